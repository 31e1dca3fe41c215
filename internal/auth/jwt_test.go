package auth

import (
	"testing"

	"github.com/google/uuid"
)

func TestGenerateValidateRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", 1)
	sessionID := uuid.New()

	token, err := svc.Generate(sessionID, "SilentCrimson")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.SessionID != sessionID {
		t.Fatalf("expected session %s, got %s", sessionID, claims.SessionID)
	}
	if claims.Participant != "SilentCrimson" {
		t.Fatalf("expected participant SilentCrimson, got %q", claims.Participant)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenService("secret-a", 1).Generate(uuid.New(), "Bob")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewTokenService("secret-b", 1).Validate(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := NewTokenService("test-secret", -1)
	token, err := svc.Generate(uuid.New(), "Bob")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.Validate(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewTokenService("test-secret", 1)
	if _, err := svc.Validate("not-a-token"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
