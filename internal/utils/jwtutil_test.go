package utils

import (
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("test-secret")

	token, exp, err := GenerateToken(secret, 42, "accountant", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if token == "" {
		t.Fatalf("empty token")
	}
	if until := time.Until(exp); until < 59*time.Minute || until > time.Hour {
		t.Errorf("expiry %v not about an hour out", until)
	}

	claims, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if claims.UserId != 42 {
		t.Errorf("UserId = %d, want 42", claims.UserId)
	}
	if claims.Username != "accountant" {
		t.Errorf("Username = %q, want accountant", claims.Username)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, _, err := GenerateToken([]byte("right-secret"), 1, "user", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if _, err := ParseToken([]byte("wrong-secret"), token); err == nil {
		t.Fatalf("token signed with another secret accepted")
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, _, err := GenerateToken([]byte("secret"), 1, "user", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if _, err := ParseToken([]byte("secret"), token); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestParseTokenGarbage(t *testing.T) {
	if _, err := ParseToken([]byte("secret"), "not.a.jwt"); err == nil {
		t.Fatalf("malformed token accepted")
	}
}
