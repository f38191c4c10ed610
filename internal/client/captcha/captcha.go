// Package captcha generates the short confirmation codes typed before
// destructive actions. This is UI friction, not a security boundary:
// the server authorizes delete/recover independently and never sees
// the challenge.
package captcha

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Alphabet is the 32-symbol set codes are sampled from. Visually
// ambiguous characters (0/O, 1/I) are excluded.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the fixed challenge length
const CodeLength = 5

// ErrConsumed is returned when a challenge is confirmed after it has
// already been used once.
var ErrConsumed = errors.New("challenge already consumed")

// Challenge is a one-shot confirmation code. A failed Confirm consumes
// it; the caller must generate a fresh challenge before retrying.
type Challenge struct {
	mu       sync.Mutex
	code     string
	consumed bool
}

// New generates a fresh challenge
func New() (*Challenge, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate challenge: %w", err)
	}

	var sb strings.Builder
	for _, b := range buf {
		sb.WriteByte(Alphabet[int(b)%len(Alphabet)])
	}
	return &Challenge{code: sb.String()}, nil
}

// Code returns the code to display to the user
func (c *Challenge) Code() string {
	return c.code
}

// Confirm compares input against the code case-insensitively and
// consumes the challenge either way. ok reports a match; after the
// first call every further Confirm returns ErrConsumed.
func (c *Challenge) Confirm(input string) (ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.consumed {
		return false, ErrConsumed
	}
	c.consumed = true

	return strings.EqualFold(strings.TrimSpace(input), c.code), nil
}
