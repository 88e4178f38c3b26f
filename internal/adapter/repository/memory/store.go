// Package memory implements the account store and transaction log in process memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/iho/ledgerd/internal/domain"
)

// DocumentStore implements usecase.AccountStore and usecase.TransactionLog.
type DocumentStore struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	log      []domain.TransactionEntry
	now      func() time.Time
}

// NewDocumentStore creates an empty DocumentStore.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		accounts: make(map[string]*domain.Account),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the latest committed snapshot of an account.
func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return account.Clone(), nil
}

// Commit applies ops atomically if every Match holds.
func (s *DocumentStore) Commit(ctx context.Context, ops []domain.DocumentOp) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, op := range ops {
		if op.Kind == domain.OpMatch && !s.accounts[op.AccountID].Equal(op.Document) {
			return 0, domain.ErrConflict
		}
	}

	recorded := make([]domain.DocumentOp, len(ops))
	for i, op := range ops {
		op.Document = op.Document.Clone()
		recorded[i] = op
		if op.Kind == domain.OpPut {
			s.accounts[op.AccountID] = op.Document.Clone()
		}
	}

	entry := domain.TransactionEntry{
		SequenceID:  int64(len(s.log)) + 1,
		CommittedAt: s.now(),
		Operations:  recorded,
	}
	s.log = append(s.log, entry)

	return entry.SequenceID, nil
}

// ReadLog returns a snapshot of the entries after afterSequence.
// Entries are never modified once appended, so the copy shares their operations.
func (s *DocumentStore) ReadLog(ctx context.Context, afterSequence int64) ([]domain.TransactionEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if afterSequence < 0 {
		afterSequence = 0
	}
	if afterSequence >= int64(len(s.log)) {
		return []domain.TransactionEntry{}, nil
	}

	return append([]domain.TransactionEntry(nil), s.log[afterSequence:]...), nil
}

// Ping reports the store as always available.
func (s *DocumentStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
