// Package notify delivers best-effort hook notifications off the request path.
//
// # Components
//
//   - [Job]: a named notification closure.
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics,
//     or inline delivery when async mode is off.
//
// # Architecture boundaries
//
// This package owns buffering, panic isolation and failure logging. It does NOT decide
// which notifications to send; that belongs to the Engine and flow functions.
//
// # What this package must NOT do
//
//   - Propagate job errors or panics to the caller.
//   - Import emailauth or any sibling internal package.
package notify
