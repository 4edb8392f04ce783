package emailauth

import (
	"context"
	"net/http"
	"time"
)

// Account is the stored identity handled by hooks.
//
// Salt and Hash are base64 text produced by [HashAccount]. Password is only
// populated transiently on the account handed to Save during reset and is never written
// into a session.
type Account struct {
	ID         string
	Email      string
	Salt       string
	Hash       string
	Password   string `json:"-"`
	Attributes map[string]string
}

// HasCredentials reports whether both salt and hash are present.
func (a *Account) HasCredentials() bool {
	return a != nil && a.Salt != "" && a.Hash != ""
}

// Credentials returns the session view of the account with every secret stripped.
func (a *Account) Credentials() SessionCredentials {
	if a == nil {
		return SessionCredentials{}
	}
	return SessionCredentials{
		AccountID:  a.ID,
		Email:      a.Email,
		Attributes: cloneAttributes(a.Attributes),
	}
}

func (a Account) clone() Account {
	a.Attributes = cloneAttributes(a.Attributes)
	return a
}

func cloneAttributes(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// SessionCredentials is the subset of an Account carried in the session cookie.
type SessionCredentials struct {
	AccountID  string            `json:"aid"`
	Email      string            `json:"email"`
	Attributes map[string]string `json:"attrs,omitempty"`
}

// Request is the per-request context passed to hooks.
//
// Path is the request path including the raw query. Session holds the
// decoded session cookie, or nil when the request carries none.
type Request struct {
	Path    string
	Session *SessionCredentials
	Raw     *http.Request
}

// AuthMode selects how an unauthenticated request is treated.
type AuthMode int

const (
	// AuthRequired redirects or rejects unauthenticated requests.
	AuthRequired AuthMode = iota
	// AuthTry lets unauthenticated requests through unless Policy.RedirectOnTry is set.
	AuthTry
)

// AuthOptions carries the per-route authentication settings.
//
// A nil RedirectTo uses Policy.RedirectTo. A pointer to an empty string
// disables the redirect for the route.
type AuthOptions struct {
	Mode       AuthMode
	RedirectTo *string
}

// DecisionKind tags an AuthDecision.
type DecisionKind int

const (
	// DecisionRejected is the zero value so an unset decision never authenticates.
	DecisionRejected DecisionKind = iota
	DecisionAuthenticated
	DecisionRedirect
)

// String returns the lowercase decision name.
func (k DecisionKind) String() string {
	switch k {
	case DecisionAuthenticated:
		return "authenticated"
	case DecisionRedirect:
		return "redirect"
	default:
		return "rejected"
	}
}

// AuthDecision is the outcome of [Engine.Authenticate].
//
// Credentials is set for DecisionAuthenticated, RedirectURI for
// DecisionRedirect. A rejected decision carries ErrUnauthenticated or an
// internal error, see [IsInternal].
type AuthDecision struct {
	Kind        DecisionKind
	Credentials *Account
	RedirectURI string
	Err         error
}

// FlowOutcome is the outcome of Login, Register and Reset.
//
// On failure RedirectURI points back to the submitting page with an error
// indicator. Session is the encoded session token for successful login and
// register flows.
type FlowOutcome struct {
	Success     bool
	Account     *Account
	RedirectURI string
	Session     string
	Err         error
}

// LoginRequest is the submitted login form.
type LoginRequest struct {
	Email    string
	Password string
	Next     string
}

// RegisterRequest is the submitted registration form.
type RegisterRequest struct {
	Email    string
	Password string
	Next     string
}

// ResetRequest is the submitted password reset form.
type ResetRequest struct {
	Email string
	Next  string
}

// EventKind names a flow notification.
type EventKind string

const (
	EventLoginSuccess    EventKind = "login_success"
	EventLoginError      EventKind = "login_error"
	EventRegisterSuccess EventKind = "register_success"
	EventRegisterError   EventKind = "register_error"
)

// Event is delivered to the On* hooks after a flow completes.
//
// Account is a copy with secrets stripped. Err is set for error events.
type Event struct {
	Kind    EventKind
	Email   string
	Account *Account
	Request *Request
	Err     error
	At      time.Time
}

// Hooks connects the engine to the embedding application's account storage.
//
// Lookup resolves the account behind the request session; it is required
// by Authenticate. LookupByEmail is required by Login and optional for
// Reset. Save is required by Register and Reset and owns email
// uniqueness. The On* hooks are best-effort notifications whose errors
// never affect the flow.
type Hooks struct {
	Lookup        func(ctx context.Context, req *Request) (*Account, error)
	LookupByEmail func(ctx context.Context, req *Request, email string) (*Account, error)
	Save          func(ctx context.Context, req *Request, account Account) (*Account, error)

	OnLoginSuccess    func(ctx context.Context, event Event) error
	OnLoginError      func(ctx context.Context, event Event) error
	OnRegisterSuccess func(ctx context.Context, event Event) error
	OnRegisterError   func(ctx context.Context, event Event) error

	LoginRedirectFilter func(ctx context.Context, req *Request, account Account, proposed string) (string, error)
}
