// Package limit implements the pure limit-policy evaluator used by the
// sessiongate admission path.
//
// [Decide] maps a reached-limit determination plus the configured [Strategy]
// onto a [Decision]. It is deterministic and side-effect-free: it never
// touches a session store, and all effects (session creation, eviction,
// rejection) are applied by the Engine based on its return value.
//
// # Architecture boundaries
//
// This package owns strategy and decision semantics only. It does NOT count
// sessions, consult hooks, or validate override tokens; those inputs arrive
// pre-resolved as booleans.
//
// # What this package must NOT do
//
//   - Import sessiongate, session, or override (no upward imports).
//   - Perform I/O of any kind.
package limit
