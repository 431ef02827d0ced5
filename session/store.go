package session

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when the backing store failed to complete a
// read or write. It is never returned for a merely absent record.
var ErrUnavailable = errors.New("session store unavailable")

// ErrNotFound is returned by Get and Touch for an absent or expired session.
var ErrNotFound = errors.New("session not found")

// ErrPrincipalTooLong is returned by Create for a principal longer than
// [MaxPrincipalLen] bytes. A validation failure, not a backend one.
var ErrPrincipalTooLong = errors.New("session principal too long")

// MaxPrincipalLen is the longest principal, in bytes, a store accepts.
// The wire codec carries the principal behind a one-byte length prefix,
// and every implementation enforces the same ceiling so callers cannot
// depend on a laxer backend.
const MaxPrincipalLen = 255

// Store is the abstract session registry the engine admits sessions against.
//
// All operations are keyed by principal unless noted. A principal with zero
// sessions yields empty results, never an error. Count is computed from the
// same snapshot List observes. Revocation is idempotent: revoking an absent
// session ID reports false with a nil error.
//
// Implementations must be safe for concurrent use across principals; the
// engine serializes calls for any single principal.
type Store interface {
	// Create allocates a new session for the principal with a globally
	// unique session ID and CreatedAt = now. Returns
	// [ErrPrincipalTooLong] for a principal over [MaxPrincipalLen] bytes.
	Create(ctx context.Context, principal string) (*Session, error)

	// Get fetches one session by ID. Returns [ErrNotFound] if the
	// session is absent or expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// List returns the principal's current, non-expired sessions. Order
	// is unspecified but stable within one snapshot.
	List(ctx context.Context, principal string) ([]*Session, error)

	// Count returns len(List(principal)) from the same snapshot.
	Count(ctx context.Context, principal string) (int, error)

	// Touch advances the session's LastActivityAt and, for stores with an
	// idle timeout, renews the idle window. Returns [ErrNotFound] for an
	// absent or expired session.
	Touch(ctx context.Context, sessionID string, now time.Time) error

	// Revoke removes one session. Reports true if a record was removed,
	// false if it was already absent.
	Revoke(ctx context.Context, sessionID string) (bool, error)

	// RevokeAll removes every session for the principal and returns the
	// number removed.
	RevokeAll(ctx context.Context, principal string) (int, error)

	// RevokeAllExcept removes every session for the principal except the
	// given one and returns the number removed.
	RevokeAllExcept(ctx context.Context, principal, keepSessionID string) (int, error)
}
