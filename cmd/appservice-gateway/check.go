package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/upb/appservice-auth/appservice"
	"go.uber.org/zap"
)

// checkOptions holds the flags of the check command
type checkOptions struct {
	host    string
	scheme  string
	cookies []string
	headers []string
	timeout time.Duration
	verbose bool
}

func newCheckCmd() *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Authenticate one session against an App Service host",
		Long: `check sends the given cookies and headers to {scheme}://{host}/.auth/me,
the same way the gateway does for an inbound request, and prints the outcome.`,
		Example: `  appservice-gateway check --host myapp.azurewebsites.net \
    --cookie AppServiceAuthSession=... --header "X-ZUMO-AUTH: ..."`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "App Service host, e.g. myapp.azurewebsites.net")
	cmd.Flags().StringVar(&opts.scheme, "scheme", "https", "scheme used to reach the host")
	cmd.Flags().StringArrayVar(&opts.cookies, "cookie", nil, "cookie to forward as name=value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.headers, "header", nil, `header to forward as "Name: value" (repeatable)`)
	cmd.Flags().DurationVar(&opts.timeout, "timeout", appservice.DefaultTimeout, "timeout for the /.auth/me call")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log each authentication step to stderr")
	_ = cmd.MarkFlagRequired("host")

	return cmd
}

func runCheck(cmd *cobra.Command, opts *checkOptions) error {
	rc, err := buildRequestContext(opts.scheme, opts.host, opts.cookies, opts.headers)
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if opts.verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
	}

	client := appservice.NewEndpointClient(appservice.ClientConfig{Timeout: opts.timeout, Logger: logger})
	outcome := appservice.NewAuthenticator(client, logger).Authenticate(cmd.Context(), rc)

	if err := writeResult(cmd.OutOrStdout(), outcome); err != nil {
		return err
	}
	if outcome.Kind == appservice.OutcomeFail {
		return fmt.Errorf("authentication failed: %s", outcome.Reason)
	}
	return nil
}

// checkResult is the printable form of an Outcome
type checkResult struct {
	Outcome   string                `json:"outcome"`
	Reason    string                `json:"reason,omitempty"`
	ErrorKind string                `json:"error_kind,omitempty"`
	Error     string                `json:"error,omitempty"`
	Principal *appservice.Principal `json:"principal,omitempty"`
}

func writeResult(w io.Writer, outcome appservice.Outcome) error {
	result := checkResult{
		Outcome:   outcome.Kind.String(),
		Reason:    outcome.Reason,
		Principal: outcome.Principal,
	}
	if outcome.Err != nil {
		result.ErrorKind = string(appservice.KindOf(outcome.Err))
		result.Error = outcome.Err.Error()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func buildRequestContext(scheme, host string, cookies, headers []string) (appservice.RequestContext, error) {
	rc := appservice.RequestContext{
		Scheme:  scheme,
		Host:    host,
		Headers: http.Header{},
	}

	for _, raw := range cookies {
		name, value, ok := strings.Cut(raw, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return appservice.RequestContext{}, fmt.Errorf("invalid cookie %q, expected name=value", raw)
		}
		rc.Cookies = append(rc.Cookies, appservice.Cookie{Name: name, Value: value})
	}

	for _, raw := range headers {
		name, value, ok := strings.Cut(raw, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return appservice.RequestContext{}, fmt.Errorf("invalid header %q, expected \"Name: value\"", raw)
		}
		rc.Headers.Add(name, strings.TrimSpace(value))
	}

	return rc, nil
}
