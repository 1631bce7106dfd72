package services

import (
	"crypto/sha1"
	"fmt"
	"testing"
)

func TestFingerprintFormat(t *testing.T) {
	text := "The cell is the basic unit of life."
	got := Fingerprint("topic-1", 12, 18, text)

	want := fmt.Sprintf("quiz:topic-1:12-18:%x", sha1.Sum([]byte(text)))
	if got != want {
		t.Errorf("Fingerprint() = %q, want %q", got, want)
	}
}

func TestFingerprintIsDeterministic(t *testing.T) {
	a := Fingerprint("topic-1", 1, 5, "same text")
	b := Fingerprint("topic-1", 1, 5, "same text")
	if a != b {
		t.Errorf("same inputs produced different keys: %q vs %q", a, b)
	}
}

func TestFingerprintVariesWithInputs(t *testing.T) {
	base := Fingerprint("topic-1", 1, 5, "text")

	if Fingerprint("topic-2", 1, 5, "text") == base {
		t.Error("different topic ids produced the same key")
	}
	if Fingerprint("topic-1", 2, 5, "text") == base {
		t.Error("different page ranges produced the same key")
	}
	if Fingerprint("topic-1", 1, 5, "changed text") == base {
		t.Error("different source text produced the same key")
	}
}
