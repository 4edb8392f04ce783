// Package rate provides the Redis-backed login throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key layout under the
// configured prefix:
//   - <prefix>:al:<email>  login failures per email
//   - <prefix>:ali:<ip>    login failures per IP
//
// # What this package must NOT do
//
//   - Decide how a rate-limited request is answered (the flows own that).
//   - Be imported outside the emailauth module.
package rate
