package invite

import (
	"strings"
	"testing"
	"time"
)

// stubChecker scripts InviteCodeExists responses and counts calls.
type stubChecker struct {
	exists []bool
	calls  int
	codes  []string
}

func (c *stubChecker) InviteCodeExists(code string) (bool, error) {
	c.codes = append(c.codes, code)
	result := false
	if c.calls < len(c.exists) {
		result = c.exists[c.calls]
	}
	c.calls++
	return result, nil
}

func TestCodeAlphabetAndLength(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := Code()
		if err != nil {
			t.Fatalf("Code() error: %v", err)
		}
		if len(code) != Length {
			t.Fatalf("Code() length = %d, want %d", len(code), Length)
		}
		for _, ch := range code {
			if !strings.ContainsRune(Alphabet, ch) {
				t.Fatalf("Code() = %q contains %q, not in alphabet", code, ch)
			}
		}
		for _, banned := range "0OI1" {
			if strings.ContainsRune(code, banned) {
				t.Fatalf("Code() = %q contains ambiguous character %q", code, banned)
			}
		}
	}
}

func TestUniqueCodeFirstTry(t *testing.T) {
	checker := &stubChecker{}
	g := NewGenerator(checker)

	code, err := g.UniqueCode()
	if err != nil {
		t.Fatalf("UniqueCode() error: %v", err)
	}
	if len(code) != Length {
		t.Errorf("UniqueCode() length = %d, want %d", len(code), Length)
	}
	if checker.calls != 1 {
		t.Errorf("existence checks = %d, want 1", checker.calls)
	}
	if checker.codes[0] != code {
		t.Errorf("returned code %q was not the checked code %q", code, checker.codes[0])
	}
}

func TestUniqueCodeRetriesOnCollision(t *testing.T) {
	checker := &stubChecker{exists: []bool{true, true, false}}
	g := NewGenerator(checker)

	code, err := g.UniqueCode()
	if err != nil {
		t.Fatalf("UniqueCode() error: %v", err)
	}
	if checker.calls != 3 {
		t.Errorf("existence checks = %d, want 3", checker.calls)
	}
	if len(code) != Length {
		t.Errorf("UniqueCode() length = %d, want %d", len(code), Length)
	}
	// The returned code is the one whose check reported "not found".
	if checker.codes[2] != code {
		t.Errorf("returned code %q, want last checked %q", code, checker.codes[2])
	}
}

func TestUniqueCodeFallbackSuffix(t *testing.T) {
	checker := &stubChecker{exists: []bool{true, true, true, true, true, true, true, true, true, true}}
	g := NewGenerator(checker)
	g.now = func() time.Time { return time.UnixMilli(1700000000000) }

	code, err := g.UniqueCode()
	if err != nil {
		t.Fatalf("UniqueCode() error: %v", err)
	}
	if checker.calls != maxAttempts {
		t.Errorf("existence checks = %d, want %d", checker.calls, maxAttempts)
	}
	if len(code) != Length+4 {
		t.Fatalf("fallback code length = %d, want %d", len(code), Length+4)
	}

	suffix := code[Length:]
	if suffix != strings.ToUpper(suffix) {
		t.Errorf("fallback suffix %q is not uppercase", suffix)
	}
	for _, ch := range code[:Length] {
		if !strings.ContainsRune(Alphabet, ch) {
			t.Errorf("fallback prefix contains %q, not in alphabet", ch)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "already normalized", input: "ABCD2345", expected: "ABCD2345"},
		{name: "lowercase", input: "abcd2345", expected: "ABCD2345"},
		{name: "surrounding whitespace", input: "  abCD2345\n", expected: "ABCD2345"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
