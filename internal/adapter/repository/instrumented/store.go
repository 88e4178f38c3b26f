// Package instrumented decorates an account store with commit metrics.
package instrumented

import (
	"context"
	"errors"
	"time"

	"github.com/iho/ledgerd/internal/domain"
	"github.com/iho/ledgerd/internal/infrastructure/metrics"
	"github.com/iho/ledgerd/internal/usecase"
)

// Commit outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Store records duration and outcome of every commit, labelled by entry kind.
type Store struct {
	next    usecase.AccountStore
	metrics *metrics.Metrics
}

// NewStore wraps next.
func NewStore(next usecase.AccountStore, m *metrics.Metrics) *Store {
	return &Store{next: next, metrics: m}
}

// Get delegates to the wrapped store.
func (s *Store) Get(ctx context.Context, id string) (*domain.Account, error) {
	return s.next.Get(ctx, id)
}

// Commit delegates to the wrapped store and records the result.
func (s *Store) Commit(ctx context.Context, ops []domain.DocumentOp) (int64, error) {
	kind := domain.ClassifyEntry(domain.TransactionEntry{Operations: ops}).Kind.String()

	start := time.Now()
	seq, err := s.next.Commit(ctx, ops)
	s.metrics.CommitDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	s.metrics.Commits.WithLabelValues(kind, outcome(err)).Inc()

	return seq, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, domain.ErrConflict):
		return OutcomeConflict
	default:
		return OutcomeError
	}
}
