// Package httpauth adapts emailauth.Engine to net/http.
//
// # Guards
//
//   - [Guard] authenticates a route from the session cookie and redirects,
//     rejects or passes the request according to the engine policy.
//   - [Try] is Guard in try mode: unauthenticated requests reach the handler
//     unless the policy forces a redirect.
//
// Authenticated accounts are available through [CredentialsFromContext].
//
// # Handlers
//
// [Handlers] serves the login, register, reset and logout POST routes. Form
// and JSON bodies are accepted. A request with ?type=json is answered with a
// JSON status document instead of a redirect. [Mount] registers the routes
// on a ServeMux at the configured paths.
//
// This package translates HTTP semantics into Engine calls. All decisions
// are delegated to the engine; the package only owns the cookie transport.
package httpauth
