package cardnumber

import (
	"context"
	"errors"
	"testing"

	"github.com/cardbank/transfer_core/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Format(t *testing.T) {
	for i := 0; i < 100; i++ {
		num, err := Generate()
		require.NoError(t, err)
		assert.Len(t, num, Length, "card number should have exactly 16 digits")
		for _, r := range num {
			assert.True(t, r >= '0' && r <= '9', "card number should contain only digits, got %q", num)
		}
	}
}

func TestGenerateUnique_FirstAttemptFree(t *testing.T) {
	calls := 0
	exists := func(ctx context.Context, cardNumber string) (bool, error) {
		calls++
		return false, nil
	}

	num, err := GenerateUnique(context.Background(), exists, DefaultMaxAttempts)
	require.NoError(t, err)
	assert.Len(t, num, Length)
	assert.Equal(t, 1, calls, "should stop after the first free candidate")
}

func TestGenerateUnique_SucceedsOnFifthAttempt(t *testing.T) {
	calls := 0
	var fifth string
	exists := func(ctx context.Context, cardNumber string) (bool, error) {
		calls++
		if calls < 5 {
			return true, nil
		}
		fifth = cardNumber
		return false, nil
	}

	num, err := GenerateUnique(context.Background(), exists, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, calls)
	assert.Equal(t, fifth, num, "should return the identifier accepted on the fifth attempt")
}

func TestGenerateUnique_ExhaustedAttempts(t *testing.T) {
	calls := 0
	exists := func(ctx context.Context, cardNumber string) (bool, error) {
		calls++
		return true, nil
	}

	num, err := GenerateUnique(context.Background(), exists, 5)
	assert.Empty(t, num)
	assert.ErrorIs(t, err, apperrors.ErrExhaustedAttempts)
	assert.Equal(t, 5, calls, "should try exactly maxAttempts times")
}

func TestGenerateUnique_PredicateError(t *testing.T) {
	boom := errors.New("store unavailable")
	exists := func(ctx context.Context, cardNumber string) (bool, error) {
		return false, boom
	}

	_, err := GenerateUnique(context.Background(), exists, 5)
	assert.ErrorIs(t, err, boom, "predicate errors should propagate, not retry")
}

func TestGenerateUnique_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exists := func(ctx context.Context, cardNumber string) (bool, error) {
		return true, nil
	}

	_, err := GenerateUnique(ctx, exists, 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateUnique_DefaultsMaxAttempts(t *testing.T) {
	calls := 0
	exists := func(ctx context.Context, cardNumber string) (bool, error) {
		calls++
		return true, nil
	}

	_, err := GenerateUnique(context.Background(), exists, 0)
	assert.ErrorIs(t, err, apperrors.ErrExhaustedAttempts)
	assert.Equal(t, DefaultMaxAttempts, calls)
}
