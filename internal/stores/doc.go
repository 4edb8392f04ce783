// Package stores provides Redis-backed, short-lived records for authentication flows.
// It currently holds the registration reservation that serializes concurrent
// registrations of the same email.
//
// # Design
//
// A reservation is a SET NX key with a TTL whose value is a random owner token.
// Release uses a WATCH/MULTI optimistic transaction so an owner never deletes a
// reservation that expired and was taken over by another registration.
//
// # Architecture boundaries
//
// This package owns persistence and concurrency control for transient records.
// It does NOT decide what a held reservation means to the caller; that belongs to
// the flow functions in internal/flows.
//
// # What this package must NOT do
//
//   - Import emailauth or any sibling internal package.
//   - Store passwords or credential material.
package stores
