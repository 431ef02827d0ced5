package flows

import "context"

// RevokeMetrics carries metric IDs needed by the revocation flows.
type RevokeMetrics struct {
	Revoked      int
	RevokedAll   int
	StoreFailure int
}

// RevokeEvents carries audit event names used by the revocation flows.
type RevokeEvents struct {
	Revoked    string
	RevokedAll string
}

// RevokeErrors carries host-level sentinel errors used by the revocation flows.
type RevokeErrors struct {
	EngineNotReady   error
	StoreUnavailable error
}

// RevokeDeps captures revocation dependencies.
type RevokeDeps struct {
	AcquireLock func(context.Context, string) (func(), error)

	Revoke          func(context.Context, string) (bool, error)
	RevokeAll       func(context.Context, string) (int, error)
	RevokeAllExcept func(context.Context, string, string) (int, error)

	MetricInc func(int)
	EmitAudit func(ctx context.Context, event string, success bool, principal, sessionID string, err error, meta func() map[string]string)

	Metrics RevokeMetrics
	Events  RevokeEvents
	Errors  RevokeErrors
}

func (d *RevokeDeps) normalize() error {
	if d.MetricInc == nil {
		d.MetricInc = func(int) {}
	}
	if d.EmitAudit == nil {
		d.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
	if d.Revoke == nil || d.RevokeAll == nil || d.RevokeAllExcept == nil {
		return d.Errors.EngineNotReady
	}
	return nil
}

// RunRevoke removes one session by ID. Idempotent: an absent ID reports
// false with a nil error. No principal lock is needed; single-session
// removal is atomic at the store.
func RunRevoke(ctx context.Context, sessionID string, deps RevokeDeps) (bool, error) {
	if err := deps.normalize(); err != nil {
		return false, err
	}

	removed, err := deps.Revoke(ctx, sessionID)
	if err != nil {
		deps.MetricInc(deps.Metrics.StoreFailure)
		return false, wrapStore(deps.Errors.StoreUnavailable, err)
	}

	if removed {
		deps.MetricInc(deps.Metrics.Revoked)
		deps.EmitAudit(ctx, deps.Events.Revoked, true, "", sessionID, nil, nil)
	}
	return removed, nil
}

// RunRevokeAll removes every session for the principal, serialized against
// concurrent admissions for the same principal.
func RunRevokeAll(ctx context.Context, principal string, deps RevokeDeps) (int, error) {
	if err := deps.normalize(); err != nil {
		return 0, err
	}
	if deps.AcquireLock == nil {
		return 0, deps.Errors.EngineNotReady
	}

	release, err := deps.AcquireLock(ctx, principal)
	if err != nil {
		return 0, err
	}
	defer release()

	removed, err := deps.RevokeAll(ctx, principal)
	if err != nil {
		deps.MetricInc(deps.Metrics.StoreFailure)
		return removed, wrapStore(deps.Errors.StoreUnavailable, err)
	}

	if removed > 0 {
		deps.MetricInc(deps.Metrics.RevokedAll)
		deps.EmitAudit(ctx, deps.Events.RevokedAll, true, principal, "", nil, func() map[string]string {
			return map[string]string{"revoked": itoa(removed)}
		})
	}
	return removed, nil
}

// RunRevokeAllExcept removes every session for the principal except one,
// serialized against concurrent admissions for the same principal.
func RunRevokeAllExcept(ctx context.Context, principal, keepSessionID string, deps RevokeDeps) (int, error) {
	if err := deps.normalize(); err != nil {
		return 0, err
	}
	if deps.AcquireLock == nil {
		return 0, deps.Errors.EngineNotReady
	}

	release, err := deps.AcquireLock(ctx, principal)
	if err != nil {
		return 0, err
	}
	defer release()

	removed, err := deps.RevokeAllExcept(ctx, principal, keepSessionID)
	if err != nil {
		deps.MetricInc(deps.Metrics.StoreFailure)
		return removed, wrapStore(deps.Errors.StoreUnavailable, err)
	}

	if removed > 0 {
		deps.MetricInc(deps.Metrics.RevokedAll)
		deps.EmitAudit(ctx, deps.Events.RevokedAll, true, principal, keepSessionID, nil, func() map[string]string {
			return map[string]string{"revoked": itoa(removed), "kept": keepSessionID}
		})
	}
	return removed, nil
}
