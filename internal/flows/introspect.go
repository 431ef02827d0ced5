package flows

import (
	"context"
	"time"

	"github.com/sessiongate/sessiongate/session"
)

// IntrospectionErrors carries host-level sentinel errors used by the
// introspection flows.
type IntrospectionErrors struct {
	EngineNotReady   error
	StoreUnavailable error
	SessionNotFound  error
}

// IntrospectionDeps captures read-path dependencies.
type IntrospectionDeps struct {
	Get        func(context.Context, string) (*session.Session, error)
	List       func(context.Context, string) ([]*session.Session, error)
	Count      func(context.Context, string) (int, error)
	Touch      func(context.Context, string, time.Time) error
	TotalCount func(context.Context) (int, error)
	Ping       func(context.Context) (time.Duration, error)

	IsNotFound func(error) bool

	Errors IntrospectionErrors
}

// RunGetSession fetches one session by ID.
func RunGetSession(ctx context.Context, sessionID string, deps IntrospectionDeps) (*session.Session, error) {
	if deps.Get == nil {
		return nil, deps.Errors.EngineNotReady
	}

	sess, err := deps.Get(ctx, sessionID)
	if err != nil {
		if deps.IsNotFound != nil && deps.IsNotFound(err) {
			return nil, deps.Errors.SessionNotFound
		}
		return nil, wrapStore(deps.Errors.StoreUnavailable, err)
	}
	return sess, nil
}

// RunListSessions returns the principal's current sessions.
func RunListSessions(ctx context.Context, principal string, deps IntrospectionDeps) ([]*session.Session, error) {
	if deps.List == nil {
		return nil, deps.Errors.EngineNotReady
	}

	sessions, err := deps.List(ctx, principal)
	if err != nil {
		return nil, wrapStore(deps.Errors.StoreUnavailable, err)
	}
	return sessions, nil
}

// RunCountSessions returns the principal's current session count.
func RunCountSessions(ctx context.Context, principal string, deps IntrospectionDeps) (int, error) {
	if deps.Count == nil {
		return 0, deps.Errors.EngineNotReady
	}

	count, err := deps.Count(ctx, principal)
	if err != nil {
		return 0, wrapStore(deps.Errors.StoreUnavailable, err)
	}
	return count, nil
}

// RunTouch advances a session's activity timestamp.
func RunTouch(ctx context.Context, sessionID string, now time.Time, deps IntrospectionDeps) error {
	if deps.Touch == nil {
		return deps.Errors.EngineNotReady
	}

	if err := deps.Touch(ctx, sessionID, now); err != nil {
		if deps.IsNotFound != nil && deps.IsNotFound(err) {
			return deps.Errors.SessionNotFound
		}
		return wrapStore(deps.Errors.StoreUnavailable, err)
	}
	return nil
}

// RunTotalSessions returns the live session total across all principals,
// or zero when the store does not track one.
func RunTotalSessions(ctx context.Context, deps IntrospectionDeps) (int, error) {
	if deps.TotalCount == nil {
		return 0, nil
	}

	total, err := deps.TotalCount(ctx)
	if err != nil {
		return 0, wrapStore(deps.Errors.StoreUnavailable, err)
	}
	return total, nil
}

// RunHealth reports point-in-time store availability and latency.
func RunHealth(ctx context.Context, deps IntrospectionDeps) (bool, time.Duration) {
	if deps.Ping == nil {
		return true, 0
	}

	latency, err := deps.Ping(ctx)
	return err == nil, latency
}
