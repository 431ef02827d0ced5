//go:build integration
// +build integration

package test

import (
	"context"
	"sync"
	"testing"
)

func TestStoreConsistencyRevokeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _, cleanup := newIntegrationStore(t)
	defer cleanup()

	sess, err := store.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	existed, err := store.Revoke(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("first Revoke failed: %v", err)
	}
	if !existed {
		t.Fatal("first Revoke reported existed=false")
	}

	existed, err = store.Revoke(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("second Revoke failed: %v", err)
	}
	if existed {
		t.Fatal("second Revoke reported existed=true")
	}

	count, err := store.Count(ctx, "u1")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected count 0, got %d", count)
	}
}

func TestStoreConsistencyTotalNeverNegative(t *testing.T) {
	ctx := context.Background()
	store, _, cleanup := newIntegrationStore(t)
	defer cleanup()

	sess, err := store.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Race many revokes of the same session. Exactly one should win and
	// the global counter must land on zero, never below it.
	const racers = 16
	var wg sync.WaitGroup
	winners := make(chan bool, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			existed, err := store.Revoke(ctx, sess.SessionID)
			if err != nil {
				t.Errorf("Revoke failed: %v", err)
				return
			}
			winners <- existed
		}()
	}
	wg.Wait()
	close(winners)

	won := 0
	for existed := range winners {
		if existed {
			won++
		}
	}
	if won != 1 {
		t.Fatalf("expected exactly 1 winning revoke, got %d", won)
	}

	total, err := store.TotalCount(ctx)
	if err != nil {
		t.Fatalf("TotalCount failed: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected total 0, got %d", total)
	}
}

func TestStoreConsistencyRevokeAllExceptKeepsOne(t *testing.T) {
	ctx := context.Background()
	store, _, cleanup := newIntegrationStore(t)
	defer cleanup()

	var keep string
	for i := 0; i < 4; i++ {
		sess, err := store.Create(ctx, "u1")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		keep = sess.SessionID
	}

	removed, err := store.RevokeAllExcept(ctx, "u1", keep)
	if err != nil {
		t.Fatalf("RevokeAllExcept failed: %v", err)
	}
	if removed != 3 {
		t.Fatalf("removed %d sessions, want 3", removed)
	}

	sessions, err := store.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].SessionID != keep {
		t.Fatalf("expected only %s to survive, got %d sessions", keep, len(sessions))
	}
}
