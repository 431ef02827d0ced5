package sessiongate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sessiongate/sessiongate/limit"
)

func TestChannelSinkReceivesAdmissionEvents(t *testing.T) {
	sink := NewChannelSink(16)

	engine, err := New().
		WithConfig(limitTestConfig(1, limit.StrategyBlock)).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()
	mustAdmit(t, engine, ctx, "alice")
	if _, err := engine.AttemptLogin(ctx, "alice"); !errors.Is(err, ErrSessionLimitReached) {
		t.Fatalf("expected rejection, got %v", err)
	}

	want := map[string]bool{
		auditEventLoginAdmitted: false,
		auditEventLoginRejected: false,
	}
	deadline := time.After(2 * time.Second)
	for {
		remaining := false
		for _, seen := range want {
			if !seen {
				remaining = true
			}
		}
		if !remaining {
			break
		}

		select {
		case ev := <-sink.Events():
			if _, tracked := want[ev.EventType]; tracked {
				want[ev.EventType] = true
			}
			if ev.Principal != "alice" {
				t.Fatalf("expected principal on event, got %+v", ev)
			}
		case <-deadline:
			t.Fatalf("timed out waiting for audit events, saw %v", want)
		}
	}
}

func TestJSONWriterSinkEmitsOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: auditEventSessionRevoked,
		Principal: "alice",
		SessionID: "sid",
		Success:   true,
	})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}

	var decoded AuditEvent
	if err := json.Unmarshal(lines[0], &decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.EventType != auditEventSessionRevoked || decoded.Principal != "alice" {
		t.Fatalf("unexpected event %+v", decoded)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	slow := &slowSink{release: block}

	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, slow)
	defer func() {
		close(block)
		d.Close()
	}()

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "x"})
	}

	if d.Dropped() == 0 {
		t.Fatal("expected drops under backpressure")
	}
}

func TestDispatcherCloseIdempotent(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4}, NoOpSink{})
	d.Close()
	d.Close()
	d.Emit(context.Background(), AuditEvent{EventType: "late"})
}

func TestAuditErrorCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want AuditErrorCode
	}{
		{ErrSessionLimitReached, auditErrLimitReached},
		{&RejectionError{Principal: "a", Message: "m"}, auditErrLimitReached},
		{ErrStoreUnavailable, auditErrStoreUnavailable},
		{ErrSessionNotFound, auditErrSessionNotFound},
		{ErrOverrideReplayed, auditErrOverrideReplayed},
		{ErrOverrideInvalid, auditErrOverrideInvalid},
		{context.Canceled, auditErrCancelled},
		{errors.New("boom"), auditErrInternal},
		{nil, ""},
	}

	for _, tc := range cases {
		if got := auditErrorCode(tc.err); got != tc.want {
			t.Fatalf("auditErrorCode(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

type slowSink struct {
	release chan struct{}
}

func (s *slowSink) Emit(context.Context, AuditEvent) {
	<-s.release
}
