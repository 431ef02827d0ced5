// Package sessiongate arbitrates concurrent session limits for
// already-authenticated principals: given a configured per-principal cap
// and a limit strategy, it decides whether each login is admitted,
// admitted while evicting the principal's other sessions, or rejected,
// and it does so correctly under racing logins for the same principal.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// sessiongate is the public surface. It exposes [Engine], [Builder],
// [Config], and value types (MetricsSnapshot, AuditEvent, RejectionError).
// All internal coordination (flow orchestration, per-principal locking)
// lives under internal/ and is never exported. The session store contract
// and the pure limit policy live in the session and limit sub-packages so
// hosts can supply their own storage without touching the engine.
//
// # What this package must NOT do
//
//   - Authenticate anyone. Credential verification happens before
//     AttemptLogin is called.
//   - Expose Redis clients or encoding details in its public API beyond
//     the Builder injection points.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//
// # Concurrency contract
//
// AttemptLogin holds a per-principal critical section from the count
// snapshot through the store mutation, so N racing logins for one
// principal serialize while distinct principals proceed independently.
// Cancellation before the critical section is acquired returns the
// context error with no store mutation; once mutation begins the
// operation runs to completion.
package sessiongate
