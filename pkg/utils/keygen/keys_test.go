package keygen

import "testing"

func TestGenerateRandomPassword(t *testing.T) {
	a := GenerateRandomPassword(32)
	b := GenerateRandomPassword(32)
	if len(a) != 32 || len(b) != 32 {
		t.Fatalf("unexpected lengths %d %d", len(a), len(b))
	}
	if a == b {
		t.Fatal("two generated passwords are equal")
	}
}

func TestGenerateHexSecret(t *testing.T) {
	s, err := GenerateHexSecret(16)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(s) != 32 {
		t.Fatalf("expected 32 hex chars, got %d", len(s))
	}
}
