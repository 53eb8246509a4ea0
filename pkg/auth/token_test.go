package auth

import (
	"testing"
	"time"

	"github.com/dmarroquin/storefront-backend/pkg/config"
	"github.com/google/uuid"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "unit-test-secret",
		Issuer:            "storefront-test",
		ExpirationMinutes: 15,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()

	signed, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: userID})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	claims, err := ParseAccessToken(cfg, signed)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user id %s, got %s", userID, claims.UserID)
	}
	if claims.ID == "" {
		t.Fatal("expected a generated jti")
	}
}

func TestParseAccessTokenRejectsWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	signed, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseAccessToken(other, signed); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	signed, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}
	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestMintAccessTokenValidation(t *testing.T) {
	cfg := testJWTConfig()
	if _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{}); err == nil {
		t.Fatal("expected missing user id to fail")
	}

	noSecret := cfg
	noSecret.Secret = ""
	if _, err := MintAccessToken(noSecret, time.Now(), AccessTokenPayload{UserID: uuid.New()}); err == nil {
		t.Fatal("expected missing secret to fail")
	}
}
