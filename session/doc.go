// Package session issues and parses the signed token carried in the session cookie.
//
// # Token format
//
// A session token is a compact JWT (HS256 or EdDSA) whose claims hold the account ID
// (sub), email, optional string attributes, issuer, iat and exp. Tokens are
// tamper-evident, not encrypted, so claims must never include credential material.
//
// # Architecture boundaries
//
// This package owns signing, key parsing and claim validation. It does NOT read or
// write cookies (see httpauth) or decide whether a request is authenticated (see the
// Engine).
//
// # What this package must NOT do
//
//   - Import emailauth or httpauth (no upward imports).
//   - Accept tokens signed with a method other than the configured one.
//   - Carry salts, hashes or passwords in [Claims].
package session
