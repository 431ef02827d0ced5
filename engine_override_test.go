package sessiongate

import (
	"context"
	"errors"
	"testing"

	"github.com/sessiongate/sessiongate/limit"
)

func TestSemiBlockRejectThenOverrideAdmits(t *testing.T) {
	engine, _, done := newRedisEngine(t, limitTestConfig(1, limit.StrategySemiBlock))
	defer done()

	ctx := context.Background()
	first := mustAdmit(t, engine, ctx, "alice")

	_, err := engine.AttemptLogin(ctx, "alice")
	rej, ok := IsRejection(err)
	if !ok {
		t.Fatalf("expected rejection, got %v", err)
	}
	if rej.OverrideToken == "" {
		t.Fatal("SemiBlock rejection must carry an override token")
	}

	sess, err := engine.AttemptLogin(WithOverrideToken(ctx, rej.OverrideToken), "alice")
	if err != nil {
		t.Fatalf("override retry failed: %v", err)
	}

	sessions, err := engine.ListSessions(ctx, "alice")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("override admission must not evict, got %d sessions", len(sessions))
	}
	seen := map[string]bool{}
	for _, s := range sessions {
		seen[s.SessionID] = true
	}
	if !seen[first] || !seen[sess.SessionID] {
		t.Fatalf("expected both sessions to coexist, got %v", seen)
	}
}

func TestSemiBlockOverrideSingleUse(t *testing.T) {
	engine, _, done := newRedisEngine(t, limitTestConfig(1, limit.StrategySemiBlock))
	defer done()

	ctx := context.Background()
	mustAdmit(t, engine, ctx, "alice")

	_, err := engine.AttemptLogin(ctx, "alice")
	rej, ok := IsRejection(err)
	if !ok {
		t.Fatalf("expected rejection, got %v", err)
	}
	token := rej.OverrideToken

	if _, err := engine.AttemptLogin(WithOverrideToken(ctx, token), "alice"); err != nil {
		t.Fatalf("first redemption failed: %v", err)
	}

	// A burned token behaves like no token at all: normal rejection with
	// a fresh token.
	_, err = engine.AttemptLogin(WithOverrideToken(ctx, token), "alice")
	rej, ok = IsRejection(err)
	if !ok {
		t.Fatalf("expected rejection on replayed token, got %v", err)
	}
	if rej.OverrideToken == "" || rej.OverrideToken == token {
		t.Fatal("replay rejection must carry a fresh override token")
	}
}

func TestSemiBlockGarbageTokenRejected(t *testing.T) {
	engine, _, done := newRedisEngine(t, limitTestConfig(1, limit.StrategySemiBlock))
	defer done()

	ctx := context.Background()
	mustAdmit(t, engine, ctx, "alice")

	_, err := engine.AttemptLogin(WithOverrideToken(ctx, "not-a-jwt"), "alice")
	if _, ok := IsRejection(err); !ok {
		t.Fatalf("expected rejection for a garbage token, got %v", err)
	}

	count, err := engine.ActiveSessionCount(ctx, "alice")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("garbage token must not admit, got %d sessions", count)
	}
}

func TestSemiBlockTokenBoundToPrincipal(t *testing.T) {
	engine, _, done := newRedisEngine(t, limitTestConfig(1, limit.StrategySemiBlock))
	defer done()

	ctx := context.Background()
	mustAdmit(t, engine, ctx, "alice")
	mustAdmit(t, engine, ctx, "bob")

	_, err := engine.AttemptLogin(ctx, "alice")
	rej, ok := IsRejection(err)
	if !ok {
		t.Fatalf("expected rejection, got %v", err)
	}

	// Alice's token must not open a slot for bob.
	_, err = engine.AttemptLogin(WithOverrideToken(ctx, rej.OverrideToken), "bob")
	if _, ok := IsRejection(err); !ok {
		t.Fatalf("expected rejection for wrong-principal token, got %v", err)
	}
}

func TestSemiBlockUnderLimitIgnoresToken(t *testing.T) {
	engine, _, done := newRedisEngine(t, limitTestConfig(2, limit.StrategySemiBlock))
	defer done()

	ctx := context.Background()
	mustAdmit(t, engine, ctx, "alice")

	_, err := engine.AttemptLogin(ctx, "alice")
	if err != nil {
		t.Fatalf("under-limit attempt failed: %v", err)
	}
}

func TestSemiBlockRequiresSecret(t *testing.T) {
	cfg := defaultConfig()
	cfg.Limit.Strategy = limit.StrategySemiBlock

	if _, err := New().WithConfig(cfg).Build(); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestSemiBlockMemoryBackendOverride(t *testing.T) {
	// No Redis: redemption tracking falls back to the in-process burner.
	engine, done := newMemoryEngine(t, limitTestConfig(1, limit.StrategySemiBlock))
	defer done()

	ctx := context.Background()
	mustAdmit(t, engine, ctx, "alice")

	_, err := engine.AttemptLogin(ctx, "alice")
	rej, ok := IsRejection(err)
	if !ok {
		t.Fatalf("expected rejection, got %v", err)
	}

	if _, err := engine.AttemptLogin(WithOverrideToken(ctx, rej.OverrideToken), "alice"); err != nil {
		t.Fatalf("override retry failed: %v", err)
	}
	if _, err := engine.AttemptLogin(WithOverrideToken(ctx, rej.OverrideToken), "alice"); err == nil {
		t.Fatal("replayed token must not admit")
	}
}
