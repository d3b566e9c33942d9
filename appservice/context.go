package appservice

import "net/http"

// Cookie is a single inbound cookie name/value pair
type Cookie struct {
	Name  string
	Value string
}

// ExistingIdentity describes an identity already attached to the request
// by an earlier stage of the host pipeline
type ExistingIdentity struct {
	Name          string
	Authenticated bool
}

// RequestContext is the read-only view of an inbound request the
// authenticator works from. It is built fresh for every request.
type RequestContext struct {
	Scheme   string
	Host     string
	Cookies  []Cookie // inbound order
	Headers  http.Header
	Identity *ExistingIdentity
}

// IsAuthenticated returns true if the request already carries an
// authenticated identity, in which case the endpoint must not be called
func IsAuthenticated(rc RequestContext) bool {
	return rc.Identity != nil && rc.Identity.Authenticated
}
