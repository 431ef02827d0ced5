package flows

import (
	"context"
	"errors"

	"github.com/sessiongate/sessiongate/limit"
	"github.com/sessiongate/sessiongate/session"
)

// AdmitOutcome is the flow-local admission response shape. Exactly one of
// Session or Rejected is set on a nil error.
type AdmitOutcome struct {
	Session *session.Session

	Rejected bool
	// OverrideToken is a fresh one-time opt-in credential, populated on
	// SemiBlock rejections when an override manager is configured.
	OverrideToken string
}

// AdmitMetrics carries metric IDs needed by the admission flow.
type AdmitMetrics struct {
	Admitted         int
	Rejected         int
	Evicted          int
	Bypassed         int
	OverrideIssued   int
	OverrideRedeemed int
	SessionCreated   int
	StoreFailure     int
}

// AdmitEvents carries audit event names used by the admission flow.
type AdmitEvents struct {
	Admitted         string
	Rejected         string
	Evicted          string
	Bypassed         string
	OverrideIssued   string
	OverrideRedeemed string
	OverrideRejected string
}

// AdmitErrors carries host-level sentinel errors used by the admission flow.
type AdmitErrors struct {
	EngineNotReady      error
	StoreUnavailable    error
	LimitReached        error
	OverrideUnavailable error
}

// AdmitDeps captures admission dependencies.
type AdmitDeps struct {
	MaxSessions int
	Strategy    limit.Strategy

	AcquireLock func(context.Context, string) (func(), error)

	Bypass        func(context.Context, string) bool
	AdjustReached func(bool, string, int) bool

	Count           func(context.Context, string) (int, error)
	Create          func(context.Context, string) (*session.Session, error)
	RevokeAllExcept func(context.Context, string, string) (int, error)

	OverrideFromContext func(context.Context) string
	RedeemOverride      func(context.Context, string, string) error
	IssueOverride       func(context.Context, string) (string, error)

	MetricInc func(int)
	EmitAudit func(ctx context.Context, event string, success bool, principal, sessionID string, err error, meta func() map[string]string)
	Warn      func(string, ...any)

	Metrics AdmitMetrics
	Events  AdmitEvents
	Errors  AdmitErrors
}

// RunAdmit executes one admission attempt end to end: acquire the
// principal's critical section, snapshot the session count, consult hooks,
// evaluate the limit policy, and apply the decision before releasing.
func RunAdmit(ctx context.Context, principal string, deps AdmitDeps) (AdmitOutcome, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.AcquireLock == nil || deps.Count == nil || deps.Create == nil || deps.RevokeAllExcept == nil {
		return AdmitOutcome{}, deps.Errors.EngineNotReady
	}

	release, err := deps.AcquireLock(ctx, principal)
	if err != nil {
		// Cancelled before the critical section: no mutation happened,
		// and the context error must stay distinguishable from a
		// rejection.
		return AdmitOutcome{}, err
	}
	defer release()

	bypassed := false
	if deps.Bypass != nil {
		bypassed = deps.Bypass(ctx, principal)
	}

	count, err := deps.Count(ctx, principal)
	if err != nil {
		deps.MetricInc(deps.Metrics.StoreFailure)
		return AdmitOutcome{}, wrapStore(deps.Errors.StoreUnavailable, err)
	}

	reached := limit.Reached(count, deps.MaxSessions)
	if deps.AdjustReached != nil {
		reached = deps.AdjustReached(reached, principal, count)
	}

	overridePresent := false
	if !bypassed && reached && deps.Strategy == limit.StrategySemiBlock && deps.RedeemOverride != nil {
		token := ""
		if deps.OverrideFromContext != nil {
			token = deps.OverrideFromContext(ctx)
		}
		if token != "" {
			switch redeemErr := deps.RedeemOverride(ctx, principal, token); {
			case redeemErr == nil:
				overridePresent = true
				deps.MetricInc(deps.Metrics.OverrideRedeemed)
				deps.EmitAudit(ctx, deps.Events.OverrideRedeemed, true, principal, "", nil, nil)
			case deps.Errors.OverrideUnavailable != nil && errors.Is(redeemErr, deps.Errors.OverrideUnavailable):
				return AdmitOutcome{}, redeemErr
			default:
				// Invalid or replayed tokens count as absent; the
				// attempt falls through to a normal rejection.
				deps.EmitAudit(ctx, deps.Events.OverrideRejected, false, principal, "", redeemErr, nil)
			}
		}
	}

	decision := limit.Decide(reached, deps.Strategy, bypassed, overridePresent)

	switch decision {
	case limit.Admit:
		sess, err := deps.Create(ctx, principal)
		if err != nil {
			deps.MetricInc(deps.Metrics.StoreFailure)
			return AdmitOutcome{}, wrapStore(deps.Errors.StoreUnavailable, err)
		}

		deps.MetricInc(deps.Metrics.SessionCreated)
		if bypassed {
			deps.MetricInc(deps.Metrics.Bypassed)
			deps.EmitAudit(ctx, deps.Events.Bypassed, true, principal, sess.SessionID, nil, func() map[string]string {
				return map[string]string{"session_count": itoa(count)}
			})
		} else {
			deps.MetricInc(deps.Metrics.Admitted)
			deps.EmitAudit(ctx, deps.Events.Admitted, true, principal, sess.SessionID, nil, nil)
		}
		return AdmitOutcome{Session: sess}, nil

	case limit.AdmitAndEvictOthers:
		// Create first, evict after: the principal never holds zero
		// sessions mid-operation.
		sess, err := deps.Create(ctx, principal)
		if err != nil {
			deps.MetricInc(deps.Metrics.StoreFailure)
			return AdmitOutcome{}, wrapStore(deps.Errors.StoreUnavailable, err)
		}

		evicted, err := deps.RevokeAllExcept(ctx, principal, sess.SessionID)
		if err != nil {
			deps.MetricInc(deps.Metrics.StoreFailure)
			return AdmitOutcome{}, wrapStore(deps.Errors.StoreUnavailable, err)
		}

		deps.MetricInc(deps.Metrics.SessionCreated)
		deps.MetricInc(deps.Metrics.Admitted)
		deps.MetricInc(deps.Metrics.Evicted)
		deps.EmitAudit(ctx, deps.Events.Evicted, true, principal, sess.SessionID, nil, func() map[string]string {
			return map[string]string{"evicted": itoa(evicted)}
		})
		return AdmitOutcome{Session: sess}, nil

	default: // limit.Reject
		deps.MetricInc(deps.Metrics.Rejected)

		outcome := AdmitOutcome{Rejected: true}
		if deps.Strategy == limit.StrategySemiBlock && deps.IssueOverride != nil {
			token, issueErr := deps.IssueOverride(ctx, principal)
			if issueErr != nil {
				deps.Warn("sessiongate: override token issue failed")
			} else {
				outcome.OverrideToken = token
				deps.MetricInc(deps.Metrics.OverrideIssued)
				deps.EmitAudit(ctx, deps.Events.OverrideIssued, true, principal, "", nil, nil)
			}
		}

		deps.EmitAudit(ctx, deps.Events.Rejected, false, principal, "", deps.Errors.LimitReached, func() map[string]string {
			return map[string]string{"session_count": itoa(count)}
		})
		return outcome, nil
	}
}
