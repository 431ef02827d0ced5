package flows

import (
	"context"
	"time"

	"github.com/sessiongate/sessiongate/session"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Admit.Count != nil
}

func (s Service) Admit(ctx context.Context, principal string) (AdmitOutcome, error) {
	return RunAdmit(ctx, principal, s.deps.Admit)
}

func (s Service) Revoke(ctx context.Context, sessionID string) (bool, error) {
	return RunRevoke(ctx, sessionID, s.deps.Revoke)
}

func (s Service) RevokeAll(ctx context.Context, principal string) (int, error) {
	return RunRevokeAll(ctx, principal, s.deps.Revoke)
}

func (s Service) RevokeAllExcept(ctx context.Context, principal, keepSessionID string) (int, error) {
	return RunRevokeAllExcept(ctx, principal, keepSessionID, s.deps.Revoke)
}

func (s Service) GetSession(ctx context.Context, sessionID string) (*session.Session, error) {
	return RunGetSession(ctx, sessionID, s.deps.Introspection)
}

func (s Service) ListSessions(ctx context.Context, principal string) ([]*session.Session, error) {
	return RunListSessions(ctx, principal, s.deps.Introspection)
}

func (s Service) CountSessions(ctx context.Context, principal string) (int, error) {
	return RunCountSessions(ctx, principal, s.deps.Introspection)
}

func (s Service) Touch(ctx context.Context, sessionID string, now time.Time) error {
	return RunTouch(ctx, sessionID, now, s.deps.Introspection)
}

func (s Service) TotalSessions(ctx context.Context) (int, error) {
	return RunTotalSessions(ctx, s.deps.Introspection)
}

func (s Service) Health(ctx context.Context) (bool, time.Duration) {
	return RunHealth(ctx, s.deps.Introspection)
}
