package appservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds a single call to the introspection endpoint
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBodyBytes caps the payload read from the endpoint
	DefaultMaxBodyBytes int64 = 1 << 20
)

// ErrResponseTooLarge is wrapped in a transport error when the endpoint
// body exceeds the configured limit
var ErrResponseTooLarge = errors.New("response body exceeds limit")

var tracer = otel.Tracer("github.com/upb/appservice-auth/appservice")

// ClientConfig holds configuration for EndpointClient
type ClientConfig struct {
	Timeout      time.Duration
	MaxBodyBytes int64

	// Transport is shared between calls; nil uses http.DefaultTransport
	Transport http.RoundTripper

	Logger *zap.Logger
}

// EndpointClient performs the GET against the introspection endpoint.
// It holds no per-request state: every Send builds its own http.Client
// around the request's cookie jar.
type EndpointClient struct {
	timeout      time.Duration
	maxBodyBytes int64
	transport    http.RoundTripper
	logger       *zap.Logger
}

// NewEndpointClient creates a new EndpointClient
func NewEndpointClient(cfg ClientConfig) *EndpointClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &EndpointClient{
		timeout:      cfg.Timeout,
		maxBodyBytes: cfg.MaxBodyBytes,
		transport:    cfg.Transport,
		logger:       cfg.Logger,
	}
}

// Send issues the outbound request once and returns the response body.
// Errors are *Error values of kind KindEndpointUnsuccessful or KindEndpointTransport.
func (c *EndpointClient) Send(ctx context.Context, out *OutboundRequest) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "appservice.fetch_identity",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.url", out.Request.URL.String())),
	)
	defer span.End()

	start := time.Now()
	result := metricResultSuccess
	defer func() {
		endpointRequestDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	}()

	client := &http.Client{
		Transport: c.transport,
		Jar:       out.Jar,
		Timeout:   c.timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Do(out.Request.WithContext(ctx))
	if err != nil {
		result = metricResultNetworkError
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, newTransportError(err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result = metricResultUnsuccessful
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodyBytes))
		reason := reasonPhrase(resp)
		c.logger.Debug("auth endpoint was not successful",
			zap.Int("status_code", resp.StatusCode),
			zap.String("reason", reason))
		span.SetStatus(codes.Error, "unsuccessful status")
		return nil, newUnsuccessfulError(resp.StatusCode, reason)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		result = metricResultReadError
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, newTransportError(fmt.Errorf("failed to read response: %w", err))
	}
	if int64(len(body)) > c.maxBodyBytes {
		result = metricResultReadError
		span.SetStatus(codes.Error, "response too large")
		return nil, newTransportError(fmt.Errorf("%w: %d bytes", ErrResponseTooLarge, c.maxBodyBytes))
	}

	return body, nil
}

func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}
