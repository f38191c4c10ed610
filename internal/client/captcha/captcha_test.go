package captcha

import (
	"strings"
	"testing"
)

func TestCodeShape(t *testing.T) {
	for i := 0; i < 100; i++ {
		c, err := New()
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		code := c.Code()
		if len(code) != CodeLength {
			t.Fatalf("Code() length = %d, want %d", len(code), CodeLength)
		}
		for _, r := range code {
			if !strings.ContainsRune(Alphabet, r) {
				t.Fatalf("Code() contains %q, not in alphabet", r)
			}
		}
	}
}

func TestAlphabetExcludesAmbiguous(t *testing.T) {
	if len(Alphabet) != 32 {
		t.Errorf("Alphabet length = %d, want 32", len(Alphabet))
	}
	for _, forbidden := range "01IO" {
		if strings.ContainsRune(Alphabet, forbidden) {
			t.Errorf("Alphabet contains ambiguous character %q", forbidden)
		}
	}
}

func TestConfirmCaseInsensitive(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ok, err := c.Confirm(strings.ToLower(c.Code()))
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if !ok {
		t.Error("Confirm() = false for lowercased code")
	}
}

func TestConfirmTrimsInput(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ok, err := c.Confirm("  " + c.Code() + " ")
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if !ok {
		t.Error("Confirm() = false for padded code")
	}
}

func TestChallengeIsOneShot(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if ok, _ := c.Confirm("wrong"); ok {
		t.Fatal("Confirm(wrong) = true")
	}

	// The same challenge never accepts its code after a failed attempt.
	if _, err := c.Confirm(c.Code()); err != ErrConsumed {
		t.Errorf("second Confirm() error = %v, want ErrConsumed", err)
	}
}

func TestFreshChallengesDiffer(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		c, err := New()
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		seen[c.Code()] = true
	}
	// 20 identical 5-char draws from a 32-symbol space would mean the
	// generator is broken.
	if len(seen) < 2 {
		t.Error("New() produced identical codes across 20 draws")
	}
}
