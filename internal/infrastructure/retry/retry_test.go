package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/iho/ledgerd/internal/domain"
)

func fastRetrier(maxRetries int) *Retrier {
	return NewConflictRetrier(maxRetries, WithIntervals(time.Millisecond, 2*time.Millisecond, time.Second))
}

func TestRetrierRetriesOnConflict(t *testing.T) {
	attempts := 0
	err := fastRetrier(2).Retry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return fmt.Errorf("commit: %w", domain.ErrConflict)
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetrierStopsOnPermanentError(t *testing.T) {
	attempts := 0
	err := fastRetrier(3).Retry(context.Background(), func() error {
		attempts++
		return domain.ErrInsufficientFunds
	})

	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetrierGivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	err := fastRetrier(2).Retry(context.Background(), func() error {
		attempts++
		return domain.ErrConflict
	})

	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetrierZeroRetriesRunsOnce(t *testing.T) {
	attempts := 0
	_ = fastRetrier(0).Retry(context.Background(), func() error {
		attempts++
		return domain.ErrConflict
	})
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetrierCustomClassifier(t *testing.T) {
	transient := errors.New("transient")
	attempts := 0
	r := NewConflictRetrier(1,
		WithIntervals(time.Millisecond, time.Millisecond, time.Second),
		WithClassifier(func(err error) bool { return errors.Is(err, transient) }),
	)

	_ = r.Retry(context.Background(), func() error {
		attempts++
		return transient
	})
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}
