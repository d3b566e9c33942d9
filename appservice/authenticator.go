package appservice

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Failure reasons surfaced to the host
const (
	ReasonEndpointUnsuccessful = "unable to fetch user information from auth endpoint"
	ReasonEndpointTransport    = "could not retrieve payload from auth endpoint"
	ReasonParse                = "could not parse payload from auth endpoint"
)

// OutcomeKind is the terminal state of one authentication attempt
type OutcomeKind int

const (
	OutcomeSkip OutcomeKind = iota + 1
	OutcomeFail
	OutcomeSuccess
)

// String returns the metric/log label of the kind
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSkip:
		return "skip"
	case OutcomeFail:
		return "fail"
	case OutcomeSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Outcome is the result of Authenticate. Principal is set only on
// success; Reason and Err only on failure.
type Outcome struct {
	Kind      OutcomeKind
	Reason    string
	Err       error
	Principal *Principal
}

// Skip means an identity was already present and the endpoint was not called
func Skip() Outcome {
	return Outcome{Kind: OutcomeSkip}
}

// Fail builds a failed outcome
func Fail(reason string, err error) Outcome {
	return Outcome{Kind: OutcomeFail, Reason: reason, Err: err}
}

// Success builds a successful outcome
func Success(p *Principal) Outcome {
	return Outcome{Kind: OutcomeSuccess, Principal: p}
}

// Fetcher sends a prepared request to the introspection endpoint
type Fetcher interface {
	Send(ctx context.Context, out *OutboundRequest) ([]byte, error)
}

// Authenticator runs the per-request decision flow. It keeps no state
// between calls and is safe for concurrent use.
type Authenticator struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// NewAuthenticator creates a new Authenticator
func NewAuthenticator(fetcher Fetcher, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Authenticate resolves rc into exactly one Outcome. Nothing is retried.
func (a *Authenticator) Authenticate(ctx context.Context, rc RequestContext) Outcome {
	ctx, span := tracer.Start(ctx, "appservice.authenticate",
		trace.WithAttributes(attribute.String("auth.host", rc.Host)),
	)
	defer span.End()

	outcome := a.authenticate(ctx, rc)

	span.SetAttributes(attribute.String("auth.outcome", outcome.Kind.String()))
	if outcome.Kind == OutcomeFail {
		span.SetAttributes(attribute.String("auth.error_kind", string(KindOf(outcome.Err))))
		span.SetStatus(codes.Error, outcome.Reason)
	}
	recordOutcome(outcome)

	return outcome
}

func (a *Authenticator) authenticate(ctx context.Context, rc RequestContext) Outcome {
	logger := a.logger.With(zap.String("host", rc.Host))
	logger.Debug("starting app service authentication")

	if IsAuthenticated(rc) {
		logger.Info("identity already set, skipping authentication",
			zap.String("name", rc.Identity.Name))
		return Skip()
	}

	logger.Info("identity not found, fetching from auth endpoint",
		zap.String("path", IdentityEndpointPath))

	out, err := BuildRequest(ctx, rc)
	if err != nil {
		logger.Error("could not build auth endpoint request", zap.Error(err))
		return Fail(ReasonEndpointTransport, newTransportError(err))
	}

	logger.Debug("forwarding session state",
		zap.String("origin", out.Origin.String()),
		zap.Int("cookie_count", len(out.Jar.Cookies(out.Origin))),
		zap.Int("header_count", len(out.Request.Header)))

	body, err := a.fetcher.Send(ctx, out)
	if err != nil {
		if !IsClientError(err) {
			err = newTransportError(err)
		}
		if KindOf(err) == KindEndpointUnsuccessful {
			logger.Debug("auth endpoint rejected the session", zap.Error(err))
			return Fail(ReasonEndpointUnsuccessful, err)
		}
		logger.Error("could not retrieve payload from auth endpoint", zap.Error(err))
		return Fail(ReasonEndpointTransport, err)
	}

	payload, err := ParsePayload(body)
	if err != nil {
		logger.Error("could not parse payload from auth endpoint",
			zap.String("kind", string(KindOf(err))),
			zap.Error(err))
		return Fail(ReasonParse, err)
	}

	logger.Debug("payload was fetched from endpoint", zap.String("user_id", payload.UserID))
	if payload.SkippedClaims > 0 {
		logger.Warn("skipped claims without typ or val",
			zap.Int("skipped", payload.SkippedClaims))
	}

	logger.Debug("building claims from payload",
		zap.Int("user_claims", len(payload.UserClaims)))
	principal := BuildPrincipal(payload)

	logger.Info("identity build was a success",
		zap.String("name", principal.Identity.Name),
		zap.String("provider", payload.ProviderName))
	return Success(principal)
}
