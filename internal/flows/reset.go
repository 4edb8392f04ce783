package flows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ResetInput is one submitted password reset form.
type ResetInput struct {
	Email string
	Next  string
	Path  string
	Hooks RequestHooks
}

// ResetMetrics carries metric IDs needed by the reset flow.
type ResetMetrics struct {
	Success int
	Failure int
}

// ResetErrors carries host-level sentinel errors used by the reset flow.
type ResetErrors struct {
	EngineNotReady      error
	RegistrationInvalid error
	HashGeneration      error
	MisconfiguredHook   error
	Lookup              error
	Save                error
}

// ResetDeps captures reset dependencies. LoginURI already includes the
// route prefix.
type ResetDeps struct {
	LoginURI          string
	AllowExternalNext bool

	NewPassword  func() (string, error)
	HashPassword func(account AccountRecord, password string) (AccountRecord, error)

	MetricInc func(int)
	Logger    *slog.Logger

	Metrics ResetMetrics
	Errors  ResetErrors
}

// RunReset replaces the account password with a random one and saves the
// rehashed account with the plaintext attached for out-of-band delivery.
//
// When LookupByEmail is configured an unknown email produces the same
// success result without calling Save.
func RunReset(ctx context.Context, in ResetInput, deps ResetDeps) FlowResult {
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.Logger == nil {
		deps.Logger = discardLogger()
	}
	if deps.NewPassword == nil || deps.HashPassword == nil {
		return FlowResult{Err: deps.Errors.EngineNotReady}
	}

	email := in.Email
	next := SafeNext(in.Next, deps.AllowExternalNext)
	success := ResetRedirect(deps.LoginURI, next)

	fail := func(err error) FlowResult {
		deps.MetricInc(deps.Metrics.Failure)
		return FlowResult{Err: err, RedirectURI: FailureRedirect(in.Path, next)}
	}
	internal := func(msg string, err error) FlowResult {
		deps.Logger.ErrorContext(ctx, msg, "op", "reset", "email", email, "error", err)
		return fail(err)
	}

	if email == "" {
		return fail(deps.Errors.RegistrationInvalid)
	}
	if in.Hooks.Save == nil {
		return internal("save hook not configured", deps.Errors.MisconfiguredHook)
	}

	account := AccountRecord{Email: email}
	if in.Hooks.LookupByEmail != nil {
		existing, err := in.Hooks.LookupByEmail(ctx, email)
		if err != nil {
			return internal("account lookup failed", fmt.Errorf("%w: %w", deps.Errors.Lookup, err))
		}
		if existing == nil {
			deps.MetricInc(deps.Metrics.Success)
			return FlowResult{Success: true, RedirectURI: success}
		}
		account = *existing
		account.Email = email
	}

	plaintext, err := deps.NewPassword()
	if err != nil {
		return internal("reset password generation failed", fmt.Errorf("%w: %w", deps.Errors.HashGeneration, err))
	}

	hashed, err := deps.HashPassword(account, plaintext)
	if err != nil {
		if !errors.Is(err, deps.Errors.HashGeneration) {
			err = fmt.Errorf("%w: %w", deps.Errors.HashGeneration, err)
		}
		return internal("password hashing failed", err)
	}
	hashed.Password = plaintext

	saved, err := in.Hooks.Save(ctx, hashed)
	if err != nil {
		return internal("account save failed", fmt.Errorf("%w: %w", deps.Errors.Save, err))
	}
	if saved == nil {
		saved = &hashed
	}

	out := *saved
	out.Password = plaintext
	deps.MetricInc(deps.Metrics.Success)

	return FlowResult{
		Success:     true,
		Account:     &out,
		RedirectURI: success,
	}
}
