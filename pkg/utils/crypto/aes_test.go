package crypto

import (
	"errors"
	"testing"
)

func TestSealOpen(t *testing.T) {
	sealed, err := Seal("s3cret", "key", "auth.jwt_secret")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if sealed == "s3cret" {
		t.Fatal("value was not encrypted")
	}

	got, err := Open(sealed, "key", "auth.jwt_secret")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got != "s3cret" {
		t.Fatalf("got %q", got)
	}
}

func TestOpenRejectsWrongKeyOrLabel(t *testing.T) {
	sealed, err := Seal("s3cret", "key", "a")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, err := Open(sealed, "other", "a"); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("wrong key: got %v", err)
	}
	if _, err := Open(sealed, "key", "b"); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("wrong label: got %v", err)
	}
	if _, err := Open("!!", "key", "a"); !errors.Is(err, ErrInvalidCipherText) {
		t.Fatalf("garbage: got %v", err)
	}
	if _, err := Seal("x", "", "a"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("empty key: got %v", err)
	}
}
