package usecase

import (
	"context"
	"time"

	"github.com/iho/ledgerd/internal/domain"
)

// AccountStore is the document store behind the ledger.
type AccountStore interface {
	// Get returns the latest committed snapshot or domain.ErrAccountNotFound.
	Get(ctx context.Context, id string) (*domain.Account, error)
	// Commit applies every Put iff every Match holds, atomically, and records the
	// batch as one transaction entry. A failed Match returns domain.ErrConflict.
	Commit(ctx context.Context, ops []domain.DocumentOp) (int64, error)
}

// TransactionLog exposes the ordered, immutable history of committed batches.
type TransactionLog interface {
	// ReadLog returns entries with SequenceID > afterSequence, oldest first.
	// The result is a snapshot; later appends are not visible in it.
	ReadLog(ctx context.Context, afterSequence int64) ([]domain.TransactionEntry, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// EntryPublisher delivers committed entries to downstream consumers.
type EntryPublisher interface {
	Publish(ctx context.Context, event domain.EntryCommittedEvent) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request can be retried.
	Release(ctx context.Context, key string) error
}

// RelayObserver receives the outcome of each relay pass.
type RelayObserver interface {
	ObserveRelayPass(published int, cursor int64, err error)
}
