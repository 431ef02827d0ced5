package sessiongate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sessiongate/sessiongate/internal/flows"
	"github.com/sessiongate/sessiongate/internal/keymutex"
	"github.com/sessiongate/sessiongate/override"
	"github.com/sessiongate/sessiongate/session"
)

// Engine is the session-limiting admission coordinator. Build one with
// Builder; it is safe for concurrent use.
type Engine struct {
	config     Config
	store      session.Store
	ownedStore *session.MemoryStore
	overrides  *override.Manager
	locks      *keymutex.Table
	flows      flows.Service
	audit      *auditDispatcher
	metrics    *Metrics
}

func (e *Engine) flowDeps(bypass func(context.Context, string) bool, adjustReached func(bool, string, int) bool) flows.Deps {
	admitErrors := flows.AdmitErrors{
		EngineNotReady:      ErrEngineNotReady,
		StoreUnavailable:    ErrStoreUnavailable,
		LimitReached:        ErrSessionLimitReached,
		OverrideUnavailable: ErrOverrideUnavailable,
	}

	deps := flows.Deps{
		Admit: flows.AdmitDeps{
			MaxSessions: e.config.Limit.MaxSessions,
			Strategy:    e.config.Limit.Strategy,

			AcquireLock: e.locks.Acquire,

			Bypass:        bypass,
			AdjustReached: adjustReached,

			Count:           e.store.Count,
			Create:          e.store.Create,
			RevokeAllExcept: e.store.RevokeAllExcept,

			OverrideFromContext: overrideTokenFromContext,

			MetricInc: e.metricIncRaw,
			EmitAudit: e.emitAudit,
			Warn:      warn,

			Metrics: flows.AdmitMetrics{
				Admitted:         int(MetricAdmitAllowed),
				Rejected:         int(MetricAdmitRejected),
				Evicted:          int(MetricAdmitEvicted),
				Bypassed:         int(MetricAdmitBypassed),
				OverrideIssued:   int(MetricOverrideIssued),
				OverrideRedeemed: int(MetricOverrideRedeemed),
				SessionCreated:   int(MetricSessionCreated),
				StoreFailure:     int(MetricStoreFailure),
			},
			Events: flows.AdmitEvents{
				Admitted:         auditEventLoginAdmitted,
				Rejected:         auditEventLoginRejected,
				Evicted:          auditEventSessionsEvicted,
				Bypassed:         auditEventLimitBypassed,
				OverrideIssued:   auditEventOverrideIssued,
				OverrideRedeemed: auditEventOverrideRedeemed,
				OverrideRejected: auditEventOverrideRejected,
			},
			Errors: admitErrors,
		},
		Revoke: flows.RevokeDeps{
			AcquireLock: e.locks.Acquire,

			Revoke:          e.store.Revoke,
			RevokeAll:       e.store.RevokeAll,
			RevokeAllExcept: e.store.RevokeAllExcept,

			MetricInc: e.metricIncRaw,
			EmitAudit: e.emitAudit,

			Metrics: flows.RevokeMetrics{
				Revoked:      int(MetricSessionRevoked),
				RevokedAll:   int(MetricRevokeAll),
				StoreFailure: int(MetricStoreFailure),
			},
			Events: flows.RevokeEvents{
				Revoked:    auditEventSessionRevoked,
				RevokedAll: auditEventRevokeAll,
			},
			Errors: flows.RevokeErrors{
				EngineNotReady:   ErrEngineNotReady,
				StoreUnavailable: ErrStoreUnavailable,
			},
		},
		Introspection: flows.IntrospectionDeps{
			Get:   e.store.Get,
			List:  e.store.List,
			Count: e.store.Count,
			Touch: e.store.Touch,

			IsNotFound: func(err error) bool {
				return errors.Is(err, session.ErrNotFound)
			},

			Errors: flows.IntrospectionErrors{
				EngineNotReady:   ErrEngineNotReady,
				StoreUnavailable: ErrStoreUnavailable,
				SessionNotFound:  ErrSessionNotFound,
			},
		},
	}

	if tc, ok := e.store.(interface {
		TotalCount(context.Context) (int, error)
	}); ok {
		deps.Introspection.TotalCount = tc.TotalCount
	}
	if p, ok := e.store.(interface {
		Ping(context.Context) (time.Duration, error)
	}); ok {
		deps.Introspection.Ping = p.Ping
	}

	if e.overrides != nil {
		deps.Admit.RedeemOverride = e.redeemOverride
		deps.Admit.IssueOverride = e.overrides.Issue
	}

	return deps
}

// redeemOverride maps the override package's error vocabulary onto the
// engine's so the flow can tell backend failure from a bad token.
func (e *Engine) redeemOverride(ctx context.Context, principal, token string) error {
	err := e.overrides.Redeem(ctx, principal, token)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, override.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrOverrideUnavailable, err)
	case errors.Is(err, override.ErrReplayed):
		return ErrOverrideReplayed
	default:
		return ErrOverrideInvalid
	}
}

// AttemptLogin arbitrates one login for an already-authenticated principal.
// On admission it returns the newly created session. At the limit the
// outcome depends on the configured strategy: EvictOldest admits and
// destroys the principal's other sessions, Block and SemiBlock return a
// *RejectionError. Context cancellation before the principal's critical
// section is acquired surfaces as the context error with no store mutation.
func (e *Engine) AttemptLogin(ctx context.Context, principal string) (*session.Session, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricAttemptLatency, time.Since(start))
		}()
	}

	outcome, err := e.flows.Admit(ctx, principal)
	if err != nil {
		return nil, err
	}
	if outcome.Rejected {
		message := e.config.Limit.RejectionMessage
		if message == "" {
			message = defaultRejectionMessage
		}
		return nil, &RejectionError{
			Principal:     principal,
			Message:       message,
			OverrideToken: outcome.OverrideToken,
		}
	}
	return outcome.Session, nil
}

// Revoke removes one session by ID. Revoking an unknown ID is not an
// error; the boolean reports whether a session was actually removed.
func (e *Engine) Revoke(ctx context.Context, sessionID string) (bool, error) {
	if e == nil {
		return false, ErrEngineNotReady
	}
	return e.flows.Revoke(ctx, sessionID)
}

// RevokeAll removes every session the principal holds and returns how many
// were removed.
func (e *Engine) RevokeAll(ctx context.Context, principal string) (int, error) {
	if e == nil {
		return 0, ErrEngineNotReady
	}
	return e.flows.RevokeAll(ctx, principal)
}

// RevokeAllExcept removes every session the principal holds apart from
// keepSessionID.
func (e *Engine) RevokeAllExcept(ctx context.Context, principal, keepSessionID string) (int, error) {
	if e == nil {
		return 0, ErrEngineNotReady
	}
	return e.flows.RevokeAllExcept(ctx, principal, keepSessionID)
}

// GetSession fetches one session by ID, or ErrSessionNotFound.
func (e *Engine) GetSession(ctx context.Context, sessionID string) (*session.Session, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	return e.flows.GetSession(ctx, sessionID)
}

// ListSessions returns the principal's live sessions. A principal with no
// sessions yields an empty slice, not an error.
func (e *Engine) ListSessions(ctx context.Context, principal string) ([]*session.Session, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	return e.flows.ListSessions(ctx, principal)
}

// ActiveSessionCount returns the principal's live session count.
func (e *Engine) ActiveSessionCount(ctx context.Context, principal string) (int, error) {
	if e == nil {
		return 0, ErrEngineNotReady
	}
	return e.flows.CountSessions(ctx, principal)
}

// Touch advances a session's activity timestamp to now.
func (e *Engine) Touch(ctx context.Context, sessionID string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	return e.flows.Touch(ctx, sessionID, time.Now())
}

// TotalSessions returns the live session total across all principals, or
// zero when the store does not track one.
func (e *Engine) TotalSessions(ctx context.Context) (int, error) {
	if e == nil {
		return 0, ErrEngineNotReady
	}
	return e.flows.TotalSessions(ctx)
}

// Health reports store availability and round-trip latency.
func (e *Engine) Health(ctx context.Context) (bool, time.Duration) {
	if e == nil {
		return false, 0
	}
	return e.flows.Health(ctx)
}

// MetricsSnapshot returns a point-in-time copy of all engine metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AuditDropped returns how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Close flushes the audit dispatcher and stops any store the engine owns.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	if e.ownedStore != nil {
		e.ownedStore.Close()
	}
}

func (e *Engine) metricIncRaw(id int) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(MetricID(id))
}

func warn(msg string, _ ...any) {
	log.Print(msg)
}
