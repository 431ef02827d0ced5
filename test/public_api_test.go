package test

import (
	"context"
	"testing"
	"time"

	"github.com/sessiongate/sessiongate"
	"github.com/sessiongate/sessiongate/session"
)

// This test intentionally guards public API compile-compat for consumers.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = sessiongate.New

	var _ *sessiongate.Engine
	var _ sessiongate.Config
	var _ sessiongate.BypassFunc
	var _ sessiongate.ReachedFunc
	var _ sessiongate.AuditSink
	var _ sessiongate.AuditEvent
	var _ *sessiongate.RejectionError
	var _ sessiongate.MetricsSnapshot
	var _ session.Store

	var _ error = sessiongate.ErrEngineNotReady
	var _ error = sessiongate.ErrInvalidConfiguration
	var _ error = sessiongate.ErrSessionLimitReached
	var _ error = sessiongate.ErrStoreUnavailable
	var _ error = sessiongate.ErrSessionNotFound
	var _ error = sessiongate.ErrOverrideInvalid
	var _ error = sessiongate.ErrOverrideReplayed
	var _ error = sessiongate.ErrOverrideUnavailable

	var _ func(error) (*sessiongate.RejectionError, bool) = sessiongate.IsRejection
	var _ func(context.Context, string) context.Context = sessiongate.WithClientIP
	var _ func(context.Context, string) context.Context = sessiongate.WithOverrideToken

	var _ func(*sessiongate.Engine, context.Context, string) (*session.Session, error) = (*sessiongate.Engine).AttemptLogin
	var _ func(*sessiongate.Engine, context.Context, string) (bool, error) = (*sessiongate.Engine).Revoke
	var _ func(*sessiongate.Engine, context.Context, string) (int, error) = (*sessiongate.Engine).RevokeAll
	var _ func(*sessiongate.Engine, context.Context, string, string) (int, error) = (*sessiongate.Engine).RevokeAllExcept
	var _ func(*sessiongate.Engine, context.Context, string) (*session.Session, error) = (*sessiongate.Engine).GetSession
	var _ func(*sessiongate.Engine, context.Context, string) ([]*session.Session, error) = (*sessiongate.Engine).ListSessions
	var _ func(*sessiongate.Engine, context.Context, string) (int, error) = (*sessiongate.Engine).ActiveSessionCount
	var _ func(*sessiongate.Engine, context.Context, string) error = (*sessiongate.Engine).Touch
	var _ func(*sessiongate.Engine, context.Context) (bool, time.Duration) = (*sessiongate.Engine).Health
}
