package appservice

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"slices"
	"strings"
)

const (
	// IdentityEndpointPath is the platform-owned session introspection path
	IdentityEndpointPath = "/.auth/me"

	// ForwardedHeaderPrefix selects the provider headers copied to the endpoint
	ForwardedHeaderPrefix = "X-ZUMO-"
)

// OutboundRequest is a prepared call to the introspection endpoint.
// The jar is owned by this request alone and must not be reused.
type OutboundRequest struct {
	Request *http.Request
	Jar     http.CookieJar
	Origin  *url.URL
}

// BuildRequest prepares the GET to {scheme}://{host}/.auth/me carrying every
// inbound cookie and the first value of each X-ZUMO-* header
func BuildRequest(ctx context.Context, rc RequestContext) (*OutboundRequest, error) {
	origin, err := requestOrigin(rc)
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if len(rc.Cookies) > 0 {
		cookies := make([]*http.Cookie, 0, len(rc.Cookies))
		for _, c := range rc.Cookies {
			cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
		}
		jar.SetCookies(origin, cookies)
	}

	endpoint := origin.ResolveReference(&url.URL{Path: IdentityEndpointPath})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// A header held under several spellings forwards its canonical spelling,
	// else the first in sorted order. First value only.
	for _, name := range slices.Sorted(maps.Keys(rc.Headers)) {
		if !isForwardedHeader(name) {
			continue
		}
		canonical := http.CanonicalHeaderKey(name)
		if _, seen := req.Header[canonical]; seen {
			continue
		}
		values := rc.Headers[canonical]
		if len(values) == 0 {
			values = rc.Headers[name]
		}
		if len(values) == 0 {
			continue
		}
		req.Header.Set(canonical, values[0])
	}

	return &OutboundRequest{
		Request: req,
		Jar:     jar,
		Origin:  origin,
	}, nil
}

func requestOrigin(rc RequestContext) (*url.URL, error) {
	scheme := strings.ToLower(rc.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("unsupported request scheme %q", rc.Scheme)
	}
	if rc.Host == "" {
		return nil, fmt.Errorf("request host is required")
	}

	origin, err := url.Parse(scheme + "://" + rc.Host)
	if err != nil {
		return nil, fmt.Errorf("invalid request origin: %w", err)
	}
	if origin.Host == "" || origin.Path != "" || origin.RawQuery != "" {
		return nil, fmt.Errorf("invalid request host %q", rc.Host)
	}
	return origin, nil
}

// isForwardedHeader matches the prefix case-insensitively since Go
// canonicalizes header names (X-ZUMO-AUTH arrives as X-Zumo-Auth)
func isForwardedHeader(name string) bool {
	return len(name) >= len(ForwardedHeaderPrefix) &&
		strings.EqualFold(name[:len(ForwardedHeaderPrefix)], ForwardedHeaderPrefix)
}
