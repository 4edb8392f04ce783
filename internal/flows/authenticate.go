package flows

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// AuthenticateKind tags an AuthenticateResult.
type AuthenticateKind int

const (
	AuthenticateRejected AuthenticateKind = iota
	AuthenticateOK
	AuthenticateRedirect
)

// AuthenticateInput is one authentication attempt.
//
// A nil RedirectOverride uses the policy default; a pointer to "" disables
// the redirect for this route.
type AuthenticateInput struct {
	Path             string
	Try              bool
	RedirectOverride *string
	Hooks            RequestHooks
}

// AuthenticateResult is the flow-local authentication decision.
type AuthenticateResult struct {
	Kind        AuthenticateKind
	Account     *AccountRecord
	RedirectURI string
	Err         error
}

// AuthenticateMetrics carries metric IDs needed by the authenticate flow.
type AuthenticateMetrics struct {
	Success  int
	Redirect int
	Rejected int
	Error    int
	Latency  int
}

// AuthenticateErrors carries host-level sentinel errors used by the authenticate flow.
type AuthenticateErrors struct {
	MisconfiguredHook error
	Lookup            error
	Unauthenticated   error
}

// AuthenticateDeps captures the authenticate policy and collaborators.
type AuthenticateDeps struct {
	RedirectOnTry bool
	RedirectTo    string
	AppendNext    string

	Now       func() time.Time
	MetricInc func(int)
	Observe   func(int, time.Duration)
	Logger    *slog.Logger

	Metrics AuthenticateMetrics
	Errors  AuthenticateErrors
}

// RunAuthenticate decides whether the request is authenticated, must be
// redirected to the login page, or is rejected.
func RunAuthenticate(ctx context.Context, in AuthenticateInput, deps AuthenticateDeps) AuthenticateResult {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.Observe == nil {
		deps.Observe = func(int, time.Duration) {}
	}
	if deps.Logger == nil {
		deps.Logger = discardLogger()
	}

	start := deps.Now()
	defer func() {
		deps.Observe(deps.Metrics.Latency, deps.Now().Sub(start))
	}()

	if in.Hooks.Lookup == nil {
		deps.MetricInc(deps.Metrics.Error)
		deps.Logger.ErrorContext(ctx, "lookup hook not configured", "op", "authenticate")
		return AuthenticateResult{Kind: AuthenticateRejected, Err: deps.Errors.MisconfiguredHook}
	}

	account, err := in.Hooks.Lookup(ctx)
	if err != nil {
		deps.MetricInc(deps.Metrics.Error)
		deps.Logger.ErrorContext(ctx, "account lookup failed", "op", "authenticate", "error", err)
		return AuthenticateResult{Kind: AuthenticateRejected, Err: fmt.Errorf("%w: %w", deps.Errors.Lookup, err)}
	}

	// An email without both credential halves is never partially trusted.
	if account == nil || account.Email == "" || !account.HasCredentials() {
		return unauthenticated(in, deps)
	}

	deps.MetricInc(deps.Metrics.Success)
	authed := *account
	authed.Password = ""
	return AuthenticateResult{Kind: AuthenticateOK, Account: &authed}
}

func unauthenticated(in AuthenticateInput, deps AuthenticateDeps) AuthenticateResult {
	if in.Try && !deps.RedirectOnTry {
		deps.MetricInc(deps.Metrics.Rejected)
		return AuthenticateResult{Kind: AuthenticateRejected, Err: deps.Errors.Unauthenticated}
	}

	uri := deps.RedirectTo
	if in.RedirectOverride != nil {
		uri = *in.RedirectOverride
	}
	if uri == "" {
		deps.MetricInc(deps.Metrics.Rejected)
		return AuthenticateResult{Kind: AuthenticateRejected, Err: deps.Errors.Unauthenticated}
	}

	if deps.AppendNext != "" {
		uri = AppendQueryParam(uri, deps.AppendNext, in.Path)
	}

	deps.MetricInc(deps.Metrics.Redirect)
	return AuthenticateResult{Kind: AuthenticateRedirect, RedirectURI: uri}
}
