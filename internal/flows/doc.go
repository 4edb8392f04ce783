// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunAuthenticate, RunLogin, RunRegister, RunReset) accepts the
// per-request input, including the request-bound hooks, and a typed dependency struct
// built once by the Engine. Results carry flow-local types so this package never
// imports emailauth.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to hooks, the password hasher, the session signer,
// the rate limiter, the registration reservation, notifications and metrics. They do
// NOT own any of these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import emailauth (to avoid import cycles).
//   - Log passwords, salts or hashes.
package flows
