package session

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := &Session{
		Principal:      "alice",
		CreatedAt:      1700000000,
		LastActivityAt: 1700000100,
		ExpiresAt:      1700003600,
	}

	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	out, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if out.SessionID != "" {
		t.Fatalf("SessionID must not travel in the blob, got %q", out.SessionID)
	}
	if out.Principal != in.Principal {
		t.Fatalf("Principal = %q, want %q", out.Principal, in.Principal)
	}
	if out.CreatedAt != in.CreatedAt || out.LastActivityAt != in.LastActivityAt || out.ExpiresAt != in.ExpiresAt {
		t.Fatalf("timestamps mismatch: %+v vs %+v", out, in)
	}
}

func TestDecodeRejectsUnsupportedVersion(t *testing.T) {
	_, err := Decode([]byte{99})
	if err == nil || !strings.Contains(err.Error(), "invalid session version") {
		t.Fatalf("expected invalid version error, got %v", err)
	}
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	data, err := Encode(&Session{Principal: "bob", CreatedAt: 1, LastActivityAt: 1})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	for cut := 0; cut < len(data); cut++ {
		if _, err := Decode(data[:cut]); err == nil {
			t.Fatalf("Decode accepted truncation at %d bytes", cut)
		}
	}
}

func TestEncodeRejectsOversizedPrincipal(t *testing.T) {
	in := &Session{Principal: strings.Repeat("a", MaxPrincipalLen+1)}
	if _, err := Encode(in); !errors.Is(err, ErrPrincipalTooLong) {
		t.Fatalf("expected ErrPrincipalTooLong, got %v", err)
	}
}
