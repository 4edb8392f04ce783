package internal

import (
	"encoding/base64"
	"testing"

	"github.com/google/uuid"
)

func TestNewAccountIDIsUUID(t *testing.T) {
	id, err := NewAccountID()
	if err != nil {
		t.Fatalf("NewAccountID error: %v", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("expected uuid, got %q: %v", id, err)
	}
	if parsed.Version() != 4 {
		t.Fatalf("expected v4 uuid, got v%d", parsed.Version())
	}
}

func TestNewResetPasswordLengthAndUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 64)
	for i := 0; i < 64; i++ {
		pw, err := NewResetPassword(12)
		if err != nil {
			t.Fatalf("NewResetPassword error: %v", err)
		}
		if len(pw) != base64.RawURLEncoding.EncodedLen(12) {
			t.Fatalf("unexpected length %d", len(pw))
		}
		if _, dup := seen[pw]; dup {
			t.Fatalf("duplicate reset password %q", pw)
		}
		seen[pw] = struct{}{}
	}
}

func TestNewResetPasswordRejectsShortSize(t *testing.T) {
	if _, err := NewResetPassword(4); err == nil {
		t.Fatal("expected error for short reset password")
	}
}
