package signing

import (
	"strings"
	"testing"
)

func TestGenerateSignTokenShape(t *testing.T) {
	token, err := GenerateSignToken()
	if err != nil {
		t.Fatalf("GenerateSignToken error: %v", err)
	}
	if len(token) != 32 {
		t.Fatalf("token length = %d, want 32", len(token))
	}
	for _, r := range token {
		if !strings.ContainsRune(tokenAlphabet, r) {
			t.Fatalf("token %q contains %q outside the alphabet", token, r)
		}
	}
}

func TestGenerateSignTokenUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		token, err := GenerateSignToken()
		if err != nil {
			t.Fatalf("GenerateSignToken error: %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token after %d draws", i)
		}
		seen[token] = true
	}
}
