package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewService("secret", time.Minute)
	id := uuid.New()

	token, err := svc.GenerateAccessToken(id, "01712345678", "AGENT")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != id || claims.Role != "AGENT" || claims.Phone != "01712345678" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRejectsForeignAndExpiredTokens(t *testing.T) {
	issuer := NewService("other-secret", time.Minute)
	token, _ := issuer.GenerateAccessToken(uuid.New(), "01712345678", "USER")

	if _, err := NewService("secret", time.Minute).ValidateAccessToken(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	expired := NewService("secret", -time.Minute)
	token, _ = expired.GenerateAccessToken(uuid.New(), "01712345678", "USER")
	if _, err := expired.ValidateAccessToken(token); err != ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}
