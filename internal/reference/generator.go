// Package reference generates account numbers and transaction reference ids.
package reference

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	// AccountNumberLength is the number of digits in an account number.
	AccountNumberLength = 10
	// SuffixLength is the number of digits after the initials and type letter.
	SuffixLength = 12

	timeDigits         = 4
	defaultMaxAttempts = 10
)

// ErrGenerationExhausted is returned when every attempt produced a value
// that was already taken.
var ErrGenerationExhausted = errors.New("reference generation exhausted")

// ExistsFunc reports whether candidate is already in use.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Generator produces numeric identifiers from the clock plus random digits
// and retries on collision up to MaxAttempts times.
type Generator struct {
	now         func() time.Time
	digit       func() (byte, error)
	MaxAttempts int
}

// NewGenerator creates a Generator. Non-positive maxAttempts falls back to 10.
func NewGenerator(maxAttempts int) *Generator {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	return &Generator{
		MaxAttempts: maxAttempts,
		now:         time.Now,
		digit:       randomDigit,
	}
}

// AccountNumber returns an unused 10-digit account number.
func (g *Generator) AccountNumber(ctx context.Context, exists ExistsFunc) (string, error) {
	return g.unique(ctx, exists, func() (string, error) {
		return g.candidate(AccountNumberLength)
	})
}

// TransactionReference returns an unused reference such as "JDC123456789012".
func (g *Generator) TransactionReference(ctx context.Context, initials string, kindLetter byte, exists ExistsFunc) (string, error) {
	return g.unique(ctx, exists, func() (string, error) {
		suffix, err := g.candidate(SuffixLength)
		if err != nil {
			return "", err
		}
		return FormatReference(initials, kindLetter, suffix), nil
	})
}

func (g *Generator) unique(ctx context.Context, exists ExistsFunc, next func() (string, error)) (string, error) {
	for attempt := 0; attempt < g.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate, err := next()
		if err != nil {
			return "", err
		}

		if exists == nil {
			return candidate, nil
		}

		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check candidate: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrGenerationExhausted
}

// candidate builds a numeric string of the given length whose leading digits
// come from the nanosecond clock and the rest from crypto/rand.
func (g *Generator) candidate(length int) (string, error) {
	clock := strconv.FormatInt(g.now().UnixNano(), 10)
	n := timeDigits
	if n > length {
		n = length
	}

	var b strings.Builder
	b.Grow(length)
	b.WriteString(clock[len(clock)-n:])
	for b.Len() < length {
		d, err := g.digit()
		if err != nil {
			return "", fmt.Errorf("failed to read random digit: %w", err)
		}
		b.WriteByte('0' + d)
	}
	return b.String(), nil
}

func randomDigit() (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10))
	if err != nil {
		return 0, err
	}
	return byte(n.Int64()), nil
}

// FormatReference joins holder initials, the transaction type letter and a
// numeric suffix.
func FormatReference(initials string, kindLetter byte, suffix string) string {
	return initials + string(kindLetter) + suffix
}

// Initials returns the upper-cased first letters of the first and last names.
// A blank name contributes an X.
func Initials(firstName, lastName string) string {
	return string([]rune{initial(firstName), initial(lastName)})
}

func initial(name string) rune {
	for _, r := range strings.TrimSpace(name) {
		return unicode.ToUpper(r)
	}
	return 'X'
}

// Digits returns n crypto-random decimal digits.
func Digits(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		d, err := randomDigit()
		if err != nil {
			return "", fmt.Errorf("failed to read random digit: %w", err)
		}
		b.WriteByte('0' + d)
	}
	return b.String(), nil
}
