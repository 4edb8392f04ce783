// Package password implements salted password hashing and constant-time
// verification behind a pluggable key derivation function.
//
// # Output format
//
// A [Hasher] produces a [Credentials] pair: the random salt and the derived
// key, each encoded as padded standard base64. A salt of N bytes always
// encodes to base64.StdEncoding.EncodedLen(N) characters.
//
// Supported derivations are PBKDF2 (HMAC-SHA1, HMAC-SHA256, HMAC-SHA512) and
// Argon2id. Verification re-derives with the stored salt and the configured
// cost parameters; the stored hash length decides the key length.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Account handling and
// password policy live in the emailauth root package.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive credentials.
//   - Import any other emailauth package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
