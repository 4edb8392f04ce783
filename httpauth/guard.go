package httpauth

import (
	"context"
	"net"
	"net/http"

	"github.com/MrEthical07/emailauth"
)

type credentialsContextKey struct{}

// CredentialsFromContext returns the account authenticated by Guard or Try.
func CredentialsFromContext(ctx context.Context) (*emailauth.Account, bool) {
	a, ok := ctx.Value(credentialsContextKey{}).(*emailauth.Account)
	return a, ok && a != nil
}

// Option configures a guard.
type Option func(*emailauth.AuthOptions)

// WithRedirectTo overrides the policy redirect target for one route. An
// empty uri disables the redirect.
func WithRedirectTo(uri string) Option {
	return func(o *emailauth.AuthOptions) {
		o.RedirectTo = &uri
	}
}

// WithMode sets the authentication mode.
func WithMode(mode emailauth.AuthMode) Option {
	return func(o *emailauth.AuthOptions) {
		o.Mode = mode
	}
}

// Guard authenticates requests before next runs.
//
// Authenticated requests carry the account in their context. Redirect
// decisions answer 302, internal failures 500 and other rejections 401,
// except in try mode where the request passes through unauthenticated.
func Guard(engine *emailauth.Engine, opts ...Option) func(http.Handler) http.Handler {
	var authOpts emailauth.AuthOptions
	for _, opt := range opts {
		opt(&authOpts)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := withRequestContext(r)
			req := requestFromHTTP(engine, w, r)

			d := engine.Authenticate(ctx, req, authOpts)
			switch d.Kind {
			case emailauth.DecisionAuthenticated:
				ctx = context.WithValue(ctx, credentialsContextKey{}, d.Credentials)
				next.ServeHTTP(w, r.WithContext(ctx))
			case emailauth.DecisionRedirect:
				http.Redirect(w, r, d.RedirectURI, http.StatusFound)
			default:
				switch {
				case emailauth.IsInternal(d.Err):
					http.Error(w, "internal error", http.StatusInternalServerError)
				case authOpts.Mode == emailauth.AuthTry:
					next.ServeHTTP(w, r.WithContext(ctx))
				default:
					http.Error(w, "unauthorized", http.StatusUnauthorized)
				}
			}
		})
	}
}

// Try is Guard in try mode.
func Try(engine *emailauth.Engine, opts ...Option) func(http.Handler) http.Handler {
	return Guard(engine, append(opts, WithMode(emailauth.AuthTry))...)
}

// requestFromHTTP builds the hook request view and clears a session cookie
// that no longer verifies.
func requestFromHTTP(engine *emailauth.Engine, w http.ResponseWriter, r *http.Request) *emailauth.Request {
	req := &emailauth.Request{
		Path: r.URL.RequestURI(),
		Raw:  r,
	}
	if engine == nil {
		return req
	}

	creds, invalid := readSession(engine, r)
	if invalid {
		clearSessionCookie(w, engine)
	}
	req.Session = creds
	return req
}

func withRequestContext(r *http.Request) context.Context {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return emailauth.WithClientIP(r.Context(), host)
}
