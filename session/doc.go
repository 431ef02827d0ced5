// Package session provides the session record model, a compact binary codec,
// and the [Store] contract the sessiongate engine admits sessions against,
// together with a Redis-backed store and an in-memory reference store.
//
// # Binary encoding
//
// Redis-persisted sessions use a compact binary format with a leading schema
// version byte. The codec is append-only: future versions add fields but
// never reinterpret old ones.
//
// # Architecture boundaries
//
// This package owns session persistence: record identity, expiry, and the
// per-principal index. It does NOT decide whether a session may be admitted;
// limit policy belongs to the limit package and the Engine.
//
// # What this package must NOT do
//
//   - Import sessiongate, limit, or override (no upward imports).
//   - Enforce session limits or consult hooks.
//   - Serialize admissions; per-principal mutual exclusion is the
//     Engine's responsibility.
package session
