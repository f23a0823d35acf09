// Package invite generates and normalizes family invite codes.
package invite

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Alphabet is the fixed character set invite codes are drawn from. Visually
// ambiguous characters (0, O, I, 1) are excluded so codes survive being read
// aloud or copied by hand.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Length is the size of a regular invite code.
const Length = 8

// maxAttempts bounds the uniqueness retry loop.
const maxAttempts = 10

// Checker reports whether a candidate code is already taken.
type Checker interface {
	InviteCodeExists(code string) (bool, error)
}

// Generator produces invite codes that are unique at generation time.
type Generator struct {
	checker Checker
	now     func() time.Time
}

// NewGenerator creates a generator backed by the given existence checker.
func NewGenerator(checker Checker) *Generator {
	return &Generator{checker: checker, now: time.Now}
}

// Code draws Length characters uniformly at random from Alphabet.
func Code() (string, error) {
	code := make([]byte, Length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(Alphabet))))
		if err != nil {
			return "", err
		}
		code[i] = Alphabet[n.Int64()]
	}
	return string(code), nil
}

// UniqueCode returns a code the checker did not know at check time. The
// pre-check is best-effort only; the store's UNIQUE constraint on
// invite_code is the real guard against a check/insert race. After
// maxAttempts collisions the last candidate gets a base-36 timestamp
// suffix, trading the fixed 8-character contract for guaranteed progress.
func (g *Generator) UniqueCode() (string, error) {
	code, err := Code()
	if err != nil {
		return "", err
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		exists, err := g.checker.InviteCodeExists(code)
		if err != nil {
			return "", fmt.Errorf("failed to check invite code uniqueness: %w", err)
		}
		if !exists {
			return code, nil
		}

		code, err = Code()
		if err != nil {
			return "", err
		}
	}

	return code + g.timestampSuffix(), nil
}

// timestampSuffix returns the last 4 characters of the current unix
// millisecond timestamp in base 36, uppercased.
func (g *Generator) timestampSuffix() string {
	ts := strconv.FormatInt(g.now().UnixMilli(), 36)
	if len(ts) > 4 {
		ts = ts[len(ts)-4:]
	}
	return strings.ToUpper(ts)
}

// Normalize prepares a user-entered code for lookup: trim and uppercase.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
