package services

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Mint("admin", "admin")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "admin" || claims.Role != "admin" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Issuer != "groundstation" {
		t.Errorf("issuer = %q", claims.Issuer)
	}
}

func TestTokenWrongKeyRejected(t *testing.T) {
	minter := NewTokenService("secret-one", time.Hour)
	verifier := NewTokenService("secret-two", time.Hour)

	token, err := minter.Mint("admin", "admin")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := verifier.Validate(token); err == nil {
		t.Error("token signed with a different key validated")
	}
}

func TestTokenExpiry(t *testing.T) {
	svc := NewTokenService("test-secret", -time.Minute)

	token, err := svc.Mint("admin", "admin")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := svc.Validate(token); err == nil {
		t.Error("expired token validated")
	}
}

func TestTokenGarbageRejected(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	for _, bad := range []string{"", "not-a-token", "aaa.bbb.ccc"} {
		if _, err := svc.Validate(bad); err == nil {
			t.Errorf("Validate(%q) accepted", bad)
		}
	}
}

func TestEphemeralKeyServiceStillMints(t *testing.T) {
	svc := NewTokenService("", 0)

	token, err := svc.Mint("guest", "guest")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "guest" {
		t.Errorf("claims = %+v", claims)
	}
}
