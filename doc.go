// Package emailauth provides email/password authentication for net/http
// servers: salted password hashing, constant-time verification, a
// cookie-session authentication decision and default login, register and
// reset flows.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// emailauth is the public surface. It exposes [Engine], [Builder], [Config], [Hooks] and
// value types ([Account], [AuthDecision], [FlowOutcome]). Account storage belongs to the
// embedding application and is reached only through [Hooks]. Flow orchestration, rate
// limiting, registration reservation and hook notification live under internal/.
//
// # What this package must NOT do
//
//   - Persist accounts. Save and lookup are always delegated to hooks.
//   - Log or serialize plaintext passwords, salts or hashes.
//   - Import any sub-package that re-imports emailauth (no import cycles).
//
// The HTTP transport (cookies, redirects, form parsing) lives in the httpauth package.
package emailauth
