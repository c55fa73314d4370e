package common

import (
	"errors"
	"strings"
	"testing"
)

// ---------- MakeRandString ----------

func TestMakeRandString_UsesOnlyAlphabet(t *testing.T) {
	const alphabet = "abc!"
	s, err := MakeRandString(alphabet, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != 200 {
		t.Fatalf("expected length 200, got %d", len(s))
	}
	for _, r := range s {
		if !strings.ContainsRune(alphabet, r) {
			t.Fatalf("unexpected rune %q", r)
		}
	}
}

func TestMakeRandString_Errors(t *testing.T) {
	if _, err := MakeRandString("", 3); err == nil {
		t.Fatal("expected error for empty alphabet")
	}
	if _, err := MakeRandString("abc", -1); err == nil {
		t.Fatal("expected error for negative length")
	}
	s, err := MakeRandString("", 0)
	if err != nil || s != "" {
		t.Fatalf("zero length should be empty, got %q, %v", s, err)
	}
}

// ---------- typed errors ----------

func TestQuotaExceededError(t *testing.T) {
	err := error(&QuotaExceededError{Limit: 3, Contact: "admin@example.com"})

	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatal("QuotaExceededError must match ErrQuotaExceeded")
	}
	want := "You can only submit 3 snippets per day, contact admin@example.com to upgrade"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"title": "required", "code": "required"}}

	if !errors.Is(err, ErrValidation) {
		t.Fatal("ValidationError must match ErrValidation")
	}
	if got := err.Error(); got != "validation failed: code: required, title: required" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := (&ValidationError{}).Error(); got != "validation failed" {
		t.Fatalf("unexpected empty message %q", got)
	}
	if !errors.Is(NewValidationError("limit", "too big"), ErrValidation) {
		t.Fatal("NewValidationError must match ErrValidation")
	}
}
