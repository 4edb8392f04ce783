package emailauth

import "errors"

var (
	// ErrHashGeneration is returned when a password cannot be hashed or the
	// derivation produced an empty salt or hash.
	ErrHashGeneration = errors.New("password hash generation failed")
	// ErrVerification is returned when stored credentials cannot be checked.
	// A password mismatch is never reported with this error.
	ErrVerification = errors.New("password verification failed")
	// ErrInvalidCredentials is returned when the email or password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned when a request carries no usable session
	// and no redirect applies.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrLookup wraps failures reported by the Lookup and LookupByEmail hooks.
	ErrLookup = errors.New("account lookup failed")
	// ErrSave wraps failures reported by the Save hook.
	ErrSave = errors.New("account save failed")
	// ErrMisconfiguredHook is returned when an operation needs a hook that was not provided.
	ErrMisconfiguredHook = errors.New("required hook not configured")
	// ErrRedirectFilter wraps failures reported by the LoginRedirectFilter hook.
	ErrRedirectFilter = errors.New("login redirect filter failed")
	// ErrSessionIssue is returned when a session token cannot be signed.
	ErrSessionIssue = errors.New("session issue failed")
	// ErrSessionInvalid is returned for tampered, expired or malformed session tokens.
	ErrSessionInvalid = errors.New("session invalid")
	// ErrLoginRateLimited is returned when login attempts for an email exceed the configured budget.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrRegistrationInvalid is returned for register or reset requests without an email.
	ErrRegistrationInvalid = errors.New("invalid registration request")
	// ErrRegistrationInProgress is returned when another registration holds the email reservation.
	ErrRegistrationInProgress = errors.New("registration already in progress")
	// ErrPasswordPolicy is returned when a new password violates the length policy.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrAccountExists may be returned by a Save hook to reject a duplicate email.
	ErrAccountExists = errors.New("account already exists")
	// ErrEngineNotReady is returned when the engine was not built through Builder.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// IsInternal reports whether err is a server-side failure rather than an
// expected authentication outcome. HTTP adapters map internal errors to 500.
func IsInternal(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrHashGeneration),
		errors.Is(err, ErrVerification),
		errors.Is(err, ErrLookup),
		errors.Is(err, ErrSave),
		errors.Is(err, ErrMisconfiguredHook),
		errors.Is(err, ErrRedirectFilter),
		errors.Is(err, ErrSessionIssue),
		errors.Is(err, ErrEngineNotReady):
		return true
	}
	return false
}
