package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/upb/appservice-auth/appservice"
	"github.com/upb/appservice-auth/utils"
	"go.uber.org/zap"
)

// Authenticator resolves a request context into an authentication outcome
type Authenticator interface {
	Authenticate(ctx context.Context, rc appservice.RequestContext) appservice.Outcome
}

// ReasonHostNotAllowed is the failure reason for a Host outside the allow-list
const ReasonHostNotAllowed = "request host is not allowed"

// ErrHostNotAllowed is the outcome error for a Host outside the allow-list
var ErrHostNotAllowed = errors.New(ReasonHostNotAllowed)

// AuthMiddleware adapts the App Service authenticator to net/http
type AuthMiddleware struct {
	authenticator       Authenticator
	trustForwardedProto bool
	allowedHosts        map[string]struct{}
	logger              *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(authenticator Authenticator, trustForwardedProto bool, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator:       authenticator,
		trustForwardedProto: trustForwardedProto,
		logger:              logger,
	}
}

// WithAllowedHosts restricts the Host values whose /.auth/me is consulted.
// The endpoint URL is derived from Host, so a forged Host would otherwise
// point the call at any server. An empty list allows every host.
func (m *AuthMiddleware) WithAllowedHosts(hosts []string) *AuthMiddleware {
	m.allowedHosts = nil
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			if m.allowedHosts == nil {
				m.allowedHosts = make(map[string]struct{}, len(hosts))
			}
			m.allowedHosts[h] = struct{}{}
		}
	}
	return m
}

// RequireAuth rejects the request with 401 when authentication fails
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, outcome := m.authenticate(r)
		if outcome.Kind == appservice.OutcomeFail {
			_ = utils.WriteUnauthorized(w, outcome.Reason, map[string]interface{}{
				"kind": failureKind(outcome.Err),
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Optional attaches the principal when authentication succeeds and
// otherwise lets the request through anonymously
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, _ = m.authenticate(r)
		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) authenticate(r *http.Request) (*http.Request, appservice.Outcome) {
	ctx := r.Context()
	requestID := GetRequestIDFromContext(ctx)

	// An attached principal is skipped by the authenticator without any call
	if GetPrincipalFromContext(ctx) == nil && !m.hostAllowed(r.Host) {
		m.logger.Warn("request host is not allowed, skipping auth endpoint",
			zap.String("request_id", requestID),
			zap.String("host", r.Host))
		return r, appservice.Fail(ReasonHostNotAllowed, ErrHostNotAllowed)
	}

	outcome := m.authenticator.Authenticate(ctx, RequestContextFromHTTP(r, m.trustForwardedProto))

	switch outcome.Kind {
	case appservice.OutcomeSuccess:
		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("name", outcome.Principal.Identity.Name))
		return r.WithContext(WithPrincipal(ctx, outcome.Principal)), outcome
	case appservice.OutcomeFail:
		m.logger.Warn("authentication failed",
			zap.String("request_id", requestID),
			zap.String("reason", outcome.Reason),
			zap.Error(outcome.Err))
	}

	return r, outcome
}

func (m *AuthMiddleware) hostAllowed(host string) bool {
	if len(m.allowedHosts) == 0 {
		return true
	}
	host = strings.ToLower(host)
	if _, ok := m.allowedHosts[host]; ok {
		return true
	}
	if name, _, err := net.SplitHostPort(host); err == nil {
		_, ok := m.allowedHosts[name]
		return ok
	}
	return false
}

func failureKind(err error) string {
	if errors.Is(err, ErrHostNotAllowed) {
		return "host_not_allowed"
	}
	return string(appservice.KindOf(err))
}

// RequestContextFromHTTP builds the authenticator's view of r. A principal
// already in the request context counts as an authenticated identity.
func RequestContextFromHTTP(r *http.Request, trustForwardedProto bool) appservice.RequestContext {
	inbound := r.Cookies()
	cookies := make([]appservice.Cookie, 0, len(inbound))
	for _, c := range inbound {
		cookies = append(cookies, appservice.Cookie{Name: c.Name, Value: c.Value})
	}

	rc := appservice.RequestContext{
		Scheme:  requestScheme(r, trustForwardedProto),
		Host:    r.Host,
		Cookies: cookies,
		Headers: r.Header.Clone(),
	}

	if principal := GetPrincipalFromContext(r.Context()); principal != nil {
		rc.Identity = &appservice.ExistingIdentity{
			Name:          principal.Identity.Name,
			Authenticated: true,
		}
	}

	return rc
}

func requestScheme(r *http.Request, trustForwardedProto bool) string {
	if trustForwardedProto {
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			// Proxies may append: "https, http"
			return strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
		}
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
