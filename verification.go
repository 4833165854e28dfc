package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/goliatone/go-errors"
)

// CodeLength is the number of digits in a verification code
const CodeLength = 6

// DefaultCodeTTL is the validity window for a verification code
const DefaultCodeTTL = 5 * time.Minute

var codeSpace = big.NewInt(1_000_000)

// CodeGenerator produces one-time email verification codes. It holds no
// mutable state and is safe for concurrent use.
type CodeGenerator struct {
	ttl time.Duration
	now func() time.Time
}

// CodeGeneratorOption customizes a CodeGenerator
type CodeGeneratorOption func(*CodeGenerator)

// WithCodeTTL overrides the validity window
func WithCodeTTL(ttl time.Duration) CodeGeneratorOption {
	return func(g *CodeGenerator) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithCodeClock injects a custom clock (useful for tests)
func WithCodeClock(now func() time.Time) CodeGeneratorOption {
	return func(g *CodeGenerator) {
		if now != nil {
			g.now = now
		}
	}
}

// NewCodeGenerator creates a generator with the default 5 minute window
func NewCodeGenerator(opts ...CodeGeneratorOption) *CodeGenerator {
	g := &CodeGenerator{
		ttl: DefaultCodeTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Generate returns a fresh 6 digit code, uniform over 000000-999999 with
// leading zeros preserved, and its expiry timestamp.
func (g *CodeGenerator) Generate() (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, errors.CategoryInternal, "failed to generate verification code")
	}

	code := fmt.Sprintf("%0*d", CodeLength, n.Int64())
	return code, g.now().Add(g.ttl), nil
}

// TTL returns the configured validity window
func (g *CodeGenerator) TTL() time.Duration {
	return g.ttl
}

// IsVerificationCode reports whether the string has the exact shape of a
// generated code: CodeLength ASCII digits.
func IsVerificationCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
