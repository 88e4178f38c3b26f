package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/ledgerd/internal/adapter/repository/codec"
	"github.com/iho/ledgerd/internal/domain"
)

const defaultKeyPrefix = "ledger:"

// DocumentStore implements usecase.AccountStore and usecase.TransactionLog on Redis.
//
// Accounts live under <prefix>account:<id> and the log is the list <prefix>log,
// whose 1-based positions are the sequence IDs.
type DocumentStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(client redis.UniversalClient) *DocumentStore {
	return &DocumentStore{
		client: client,
		prefix: defaultKeyPrefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *DocumentStore) accountKey(id string) string {
	return s.prefix + "account:" + id
}

func (s *DocumentStore) logKey() string {
	return s.prefix + "log"
}

// Get retrieves the latest committed snapshot of an account.
func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Account, error) {
	return s.get(ctx, s.client, id)
}

func (s *DocumentStore) get(ctx context.Context, c redis.Cmdable, id string) (*domain.Account, error) {
	data, err := c.Get(ctx, s.accountKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return codec.UnmarshalAccount(data)
}

// Commit applies ops in one MULTI/EXEC if every Match holds.
// Matched keys are WATCHed, so a concurrent write between check and apply
// aborts the transaction and is reported as domain.ErrConflict.
func (s *DocumentStore) Commit(ctx context.Context, ops []domain.DocumentOp) (int64, error) {
	payload, err := codec.MarshalEntry(domain.TransactionEntry{CommittedAt: s.now(), Operations: ops})
	if err != nil {
		return 0, err
	}

	puts := make(map[string][]byte)
	var order []string
	for _, op := range ops {
		if op.Kind != domain.OpPut {
			continue
		}
		doc, err := codec.MarshalAccount(op.Document)
		if err != nil {
			return 0, err
		}
		key := s.accountKey(op.AccountID)
		if _, seen := puts[key]; !seen {
			order = append(order, key)
		}
		puts[key] = doc
	}

	var appended *redis.IntCmd
	apply := func(pipe redis.Pipeliner) error {
		for _, key := range order {
			pipe.Set(ctx, key, puts[key], 0)
		}
		appended = pipe.RPush(ctx, s.logKey(), payload)
		return nil
	}

	watched := domain.MatchedAccountIDs(ops)
	if len(watched) == 0 {
		if _, err := s.client.TxPipelined(ctx, apply); err != nil {
			return 0, mapError(err)
		}
		return appended.Val(), nil
	}

	keys := make([]string, len(watched))
	for i, id := range watched {
		keys[i] = s.accountKey(id)
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		for _, op := range ops {
			if op.Kind != domain.OpMatch {
				continue
			}
			current, err := s.get(ctx, tx, op.AccountID)
			if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
				return err
			}
			if !current.Equal(op.Document) {
				return domain.ErrConflict
			}
		}

		_, err := tx.TxPipelined(ctx, apply)
		return err
	}, keys...)
	if err != nil {
		return 0, mapError(err)
	}

	return appended.Val(), nil
}

// ReadLog returns the entries after afterSequence from a single LRANGE.
func (s *DocumentStore) ReadLog(ctx context.Context, afterSequence int64) ([]domain.TransactionEntry, error) {
	if afterSequence < 0 {
		afterSequence = 0
	}

	raw, err := s.client.LRange(ctx, s.logKey(), afterSequence, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.TransactionEntry, 0, len(raw))
	for i, item := range raw {
		entry, err := codec.UnmarshalEntry([]byte(item))
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", afterSequence+int64(i)+1, err)
		}
		entry.SequenceID = afterSequence + int64(i) + 1
		entries = append(entries, entry)
	}

	return entries, nil
}

// Ping checks Redis connectivity.
func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// mapError reports an aborted WATCH transaction as domain.ErrConflict.
func mapError(err error) error {
	if errors.Is(err, redis.TxFailedErr) {
		return domain.ErrConflict
	}
	return err
}
