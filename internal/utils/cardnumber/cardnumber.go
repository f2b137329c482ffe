// Package cardnumber generates 16-digit card numbers and guarantees global
// uniqueness against an existing population under bounded retry.
package cardnumber

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/cardbank/transfer_core/internal/apperrors"
)

// Length is the number of decimal digits in a generated card number.
const Length = 16

// DefaultMaxAttempts bounds the collision-retry loop in GenerateUnique.
const DefaultMaxAttempts = 5

// ExistsFunc reports whether a candidate card number is already taken.
// It must be read-only against the underlying store.
type ExistsFunc func(ctx context.Context, cardNumber string) (bool, error)

// Generate returns a random 16-digit numeric string from a cryptographically
// strong source. No Luhn check and no prefix reservation are applied.
func Generate() (string, error) {
	digits := make([]byte, Length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to read random digit: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

// GenerateUnique repeatedly generates card numbers until the exists predicate
// reports the candidate is free, failing with ErrExhaustedAttempts after
// maxAttempts tries. Collisions in a 10^16 space are rare but non-zero at
// scale; bounding the loop surfaces a clear failure instead of hanging.
func GenerateUnique(ctx context.Context, exists ExistsFunc, maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate, err := Generate()
		if err != nil {
			return "", err
		}

		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check card number existence: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: gave up after %d attempts", apperrors.ErrExhaustedAttempts, maxAttempts)
}
