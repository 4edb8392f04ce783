// Package internal contains helper utilities that are intentionally private to emailauth,
// including account ID and reset password generation.
//
// # Sub-packages
//
//   - flows: pure-function orchestrators for Authenticate, Login, Register and Reset
//   - notify: async hook notification dispatch
//   - rate: Redis-backed login throttle
//   - stores: Redis-backed registration reservation
//
// # What this package must NOT do
//
//   - Export types that appear in the public emailauth API.
//   - Be imported by any package outside the emailauth module.
package internal
