package flows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// LoginInput is one submitted login form.
type LoginInput struct {
	Email    string
	Password string
	Next     string
	Path     string
	Hooks    RequestHooks
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	Success       int
	Failure       int
	RateLimited   int
	Error         int
	SessionIssued int
	Latency       int
}

// LoginEvents carries notification names used by the login flow.
type LoginEvents struct {
	Success string
	Failure string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
//
// RateExhausted is the limiter error for a spent budget; any other limiter
// error is logged as a backend failure.
type LoginErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	LoginRateLimited   error
	RateExhausted      error
	MisconfiguredHook  error
	Lookup             error
	Verification       error
	RedirectFilter     error
	SessionIssue       error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	SuccessEndpoint   string
	AllowExternalNext bool

	ClientIPFromContext func(context.Context) string
	CheckLoginRate      func(ctx context.Context, email, ip string) error
	IncrementLoginRate  func(ctx context.Context, email, ip string) error
	ResetLoginRate      func(ctx context.Context, email, ip string) error

	VerifyPassword func(password string, account AccountRecord) (bool, error)
	VerifyDummy    func(password string)
	IssueSession   func(account AccountRecord) (string, error)

	Now       func() time.Time
	MetricInc func(int)
	Observe   func(int, time.Duration)
	Logger    *slog.Logger

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin verifies the submitted credentials and issues a session on success.
//
// Unknown emails pay for a dummy verification so response time does not
// reveal whether an account exists. Every failure result carries a redirect
// back to the submitting path with the validated next target.
func RunLogin(ctx context.Context, in LoginInput, deps LoginDeps) FlowResult {
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
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.VerifyDummy == nil {
		deps.VerifyDummy = func(string) {}
	}
	if deps.VerifyPassword == nil || deps.IssueSession == nil {
		return FlowResult{Err: deps.Errors.EngineNotReady}
	}

	start := deps.Now()
	defer func() {
		deps.Observe(deps.Metrics.Latency, deps.Now().Sub(start))
	}()

	email := in.Email
	ip := deps.ClientIPFromContext(ctx)
	next := SafeNext(in.Next, deps.AllowExternalNext)

	fail := func(err error, account *AccountRecord) FlowResult {
		in.Hooks.notify(ctx, deps.Events.Failure, email, account, err)
		return FlowResult{Err: err, RedirectURI: FailureRedirect(in.Path, next)}
	}
	internal := func(msg string, err error, account *AccountRecord) FlowResult {
		deps.MetricInc(deps.Metrics.Error)
		deps.Logger.ErrorContext(ctx, msg, "op", "login", "email", email, "error", err)
		return fail(err, account)
	}
	rateLimited := func(err error, account *AccountRecord) FlowResult {
		deps.MetricInc(deps.Metrics.RateLimited)
		if errors.Is(err, deps.Errors.RateExhausted) {
			deps.Logger.WarnContext(ctx, "login rate limited", "op", "login", "email", email)
		} else {
			deps.Logger.ErrorContext(ctx, "login rate check failed", "op", "login", "email", email, "error", err)
		}
		return fail(deps.Errors.LoginRateLimited, account)
	}
	rejectCredentials := func(account *AccountRecord) FlowResult {
		if deps.IncrementLoginRate != nil {
			if err := deps.IncrementLoginRate(ctx, email, ip); err != nil {
				return rateLimited(err, account)
			}
		}
		deps.MetricInc(deps.Metrics.Failure)
		return fail(deps.Errors.InvalidCredentials, account)
	}

	if in.Hooks.LookupByEmail == nil {
		return internal("lookup-by-email hook not configured", deps.Errors.MisconfiguredHook, nil)
	}

	if deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, email, ip); err != nil {
			return rateLimited(err, nil)
		}
	}

	if email == "" || in.Password == "" {
		return rejectCredentials(nil)
	}

	account, err := in.Hooks.LookupByEmail(ctx, email)
	if err != nil {
		return internal("account lookup failed", fmt.Errorf("%w: %w", deps.Errors.Lookup, err), nil)
	}

	if account == nil || !account.HasCredentials() {
		deps.VerifyDummy(in.Password)
		return rejectCredentials(nil)
	}

	ok, err := deps.VerifyPassword(in.Password, *account)
	in.Password = ""
	if err != nil {
		if !errors.Is(err, deps.Errors.Verification) {
			err = fmt.Errorf("%w: %w", deps.Errors.Verification, err)
		}
		return internal("password verification failed", err, stripped(account))
	}
	if !ok {
		return rejectCredentials(stripped(account))
	}

	if deps.ResetLoginRate != nil {
		if err := deps.ResetLoginRate(ctx, email, ip); err != nil {
			deps.Logger.WarnContext(ctx, "login rate reset failed", "op", "login", "email", email, "error", err)
		}
	}

	destination := next
	if destination == "" {
		destination = deps.SuccessEndpoint
	}
	if in.Hooks.RedirectFilter != nil {
		filtered, err := in.Hooks.RedirectFilter(ctx, *stripped(account), destination)
		if err != nil {
			return internal("login redirect filter failed", fmt.Errorf("%w: %w", deps.Errors.RedirectFilter, err), stripped(account))
		}
		destination = filtered
	}

	token, err := deps.IssueSession(*account)
	if err != nil {
		return internal("session issue failed", fmt.Errorf("%w: %w", deps.Errors.SessionIssue, err), stripped(account))
	}
	deps.MetricInc(deps.Metrics.SessionIssued)
	deps.MetricInc(deps.Metrics.Success)

	out := *account
	out.Password = ""
	in.Hooks.notify(ctx, deps.Events.Success, email, stripped(account), nil)

	return FlowResult{
		Success:     true,
		Account:     &out,
		RedirectURI: destination,
		Session:     token,
	}
}

// stripped returns a copy of account without credential material.
func stripped(account *AccountRecord) *AccountRecord {
	if account == nil {
		return nil
	}
	out := *account
	out.Salt = ""
	out.Hash = ""
	out.Password = ""
	return &out
}
