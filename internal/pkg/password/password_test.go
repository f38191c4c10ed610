package password

import "testing"

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("correct horse battery")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "correct horse battery" {
		t.Fatal("Hash() returned plaintext")
	}

	if !Verify("correct horse battery", hash) {
		t.Error("Verify() = false for matching password")
	}
	if Verify("wrong password", hash) {
		t.Error("Verify() = true for non-matching password")
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	a := HashToken("some-refresh-token")
	b := HashToken("some-refresh-token")
	if a != b {
		t.Errorf("HashToken() not deterministic: %q != %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("HashToken() length = %d, want 64 hex chars", len(a))
	}
	if HashToken("another-token") == a {
		t.Error("HashToken() collision for distinct inputs")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"empty", "", false},
		{"seven chars", "1234567", false},
		{"eight chars", "12345678", true},
		{"long", "a perfectly fine passphrase", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidatePassword(tt.password); got != tt.want {
				t.Errorf("ValidatePassword(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}
