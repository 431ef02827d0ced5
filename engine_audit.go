package sessiongate

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginAdmitted    = "login_admitted"
	auditEventLoginRejected    = "login_rejected"
	auditEventSessionsEvicted  = "sessions_evicted"
	auditEventLimitBypassed    = "limit_bypassed"
	auditEventOverrideIssued   = "override_issued"
	auditEventOverrideRedeemed = "override_redeemed"
	auditEventOverrideRejected = "override_rejected"
	auditEventSessionRevoked   = "session_revoked"
	auditEventRevokeAll        = "revoke_all"
)

// AuditErrorCode is the compact error classification recorded on audit
// events.
type AuditErrorCode string

const (
	auditErrLimitReached     AuditErrorCode = "session_limit_reached"
	auditErrStoreUnavailable AuditErrorCode = "store_unavailable"
	auditErrSessionNotFound  AuditErrorCode = "session_not_found"
	auditErrOverrideInvalid  AuditErrorCode = "override_invalid"
	auditErrOverrideReplayed AuditErrorCode = "override_replayed"
	auditErrCancelled        AuditErrorCode = "cancelled"
	auditErrInternal         AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	principal string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Principal: principal,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrSessionLimitReached):
		return auditErrLimitReached
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrOverrideUnavailable):
		return auditErrStoreUnavailable
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrOverrideReplayed):
		return auditErrOverrideReplayed
	case errors.Is(err, ErrOverrideInvalid):
		return auditErrOverrideInvalid
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return auditErrCancelled
	default:
		return auditErrInternal
	}
}
