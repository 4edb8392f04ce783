package flows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"
)

// RegisterInput is one submitted registration form.
type RegisterInput struct {
	Email    string
	Password string
	Next     string
	Path     string
	Hooks    RequestHooks
}

// RegisterMetrics carries metric IDs needed by the register flow.
type RegisterMetrics struct {
	Success       int
	Failure       int
	Duplicate     int
	SessionIssued int
}

// RegisterEvents carries notification names used by the register flow.
type RegisterEvents struct {
	Success string
	Failure string
}

// RegisterErrors carries host-level sentinel errors used by the register flow.
type RegisterErrors struct {
	EngineNotReady         error
	RegistrationInvalid    error
	PasswordPolicy         error
	RegistrationInProgress error
	AccountExists          error
	HashGeneration         error
	MisconfiguredHook      error
	Save                   error
	SessionIssue           error
}

// RegisterDeps captures register dependencies.
//
// Reserve is optional. It returns a release func, Errors.RegistrationInProgress
// when the email is held, or another error when the reservation backend
// fails; backend failures are logged and the flow continues without it.
//
// MaxPasswordBytes > 0 rejects longer passwords as a policy failure before
// they reach the hasher.
type RegisterDeps struct {
	SuccessEndpoint   string
	AllowExternalNext bool
	MinPasswordLength int
	MaxPasswordBytes  int

	Reserve      func(ctx context.Context, email string) (release func(), err error)
	NewAccountID func() (string, error)
	HashPassword func(account AccountRecord, password string) (AccountRecord, error)
	IssueSession func(account AccountRecord) (string, error)

	Now       func() time.Time
	MetricInc func(int)
	Logger    *slog.Logger

	Metrics RegisterMetrics
	Events  RegisterEvents
	Errors  RegisterErrors
}

// RunRegister creates a hashed account, hands it to the Save hook and
// issues a session for it.
func RunRegister(ctx context.Context, in RegisterInput, deps RegisterDeps) FlowResult {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.Logger == nil {
		deps.Logger = discardLogger()
	}
	if deps.NewAccountID == nil || deps.HashPassword == nil || deps.IssueSession == nil {
		return FlowResult{Err: deps.Errors.EngineNotReady}
	}

	email := in.Email
	next := SafeNext(in.Next, deps.AllowExternalNext)

	fail := func(err error, account *AccountRecord) FlowResult {
		deps.MetricInc(deps.Metrics.Failure)
		in.Hooks.notify(ctx, deps.Events.Failure, email, account, err)
		return FlowResult{Err: err, RedirectURI: FailureRedirect(in.Path, next)}
	}
	internal := func(msg string, err error, account *AccountRecord) FlowResult {
		deps.Logger.ErrorContext(ctx, msg, "op", "register", "email", email, "error", err)
		return fail(err, account)
	}

	if email == "" {
		return fail(deps.Errors.RegistrationInvalid, nil)
	}
	if utf8.RuneCountInString(in.Password) < deps.MinPasswordLength {
		return fail(deps.Errors.PasswordPolicy, nil)
	}
	if deps.MaxPasswordBytes > 0 && len(in.Password) > deps.MaxPasswordBytes {
		return fail(deps.Errors.PasswordPolicy, nil)
	}
	if in.Hooks.Save == nil {
		return internal("save hook not configured", deps.Errors.MisconfiguredHook, nil)
	}

	if deps.Reserve != nil {
		release, err := deps.Reserve(ctx, email)
		switch {
		case err == nil:
			defer release()
		case errors.Is(err, deps.Errors.RegistrationInProgress):
			deps.MetricInc(deps.Metrics.Duplicate)
			return fail(err, nil)
		default:
			deps.Logger.WarnContext(ctx, "registration reservation unavailable", "op", "register", "email", email, "error", err)
		}
	}

	id, err := deps.NewAccountID()
	if err != nil {
		return internal("account id generation failed", fmt.Errorf("%w: %w", deps.Errors.HashGeneration, err), nil)
	}

	hashed, err := deps.HashPassword(AccountRecord{ID: id, Email: email}, in.Password)
	in.Password = ""
	if err != nil {
		if !errors.Is(err, deps.Errors.HashGeneration) {
			err = fmt.Errorf("%w: %w", deps.Errors.HashGeneration, err)
		}
		return internal("password hashing failed", err, nil)
	}

	saved, err := in.Hooks.Save(ctx, hashed)
	if err != nil {
		if errors.Is(err, deps.Errors.AccountExists) {
			deps.MetricInc(deps.Metrics.Duplicate)
			return fail(err, stripped(&hashed))
		}
		return internal("account save failed", fmt.Errorf("%w: %w", deps.Errors.Save, err), stripped(&hashed))
	}
	if saved == nil {
		saved = &hashed
	}

	token, err := deps.IssueSession(*saved)
	if err != nil {
		return internal("session issue failed", fmt.Errorf("%w: %w", deps.Errors.SessionIssue, err), stripped(saved))
	}
	deps.MetricInc(deps.Metrics.SessionIssued)
	deps.MetricInc(deps.Metrics.Success)

	out := *saved
	out.Password = ""
	in.Hooks.notify(ctx, deps.Events.Success, email, stripped(saved), nil)

	destination := next
	if destination == "" {
		destination = deps.SuccessEndpoint
	}

	return FlowResult{
		Success:     true,
		Account:     &out,
		RedirectURI: destination,
		Session:     token,
	}
}
