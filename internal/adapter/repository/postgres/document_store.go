package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/ledgerd/internal/adapter/repository/codec"
	"github.com/iho/ledgerd/internal/domain"
)

// PostgreSQL error codes that mean a concurrent commit won.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrUniqueViolation      = "23505"
)

// logLockKey serializes log appends so sequence order equals commit order.
const logLockKey int64 = 0x6c6564676572

const (
	selectAccountSQL = `SELECT id, name, balance, version FROM accounts WHERE id = $1`

	lockAccountsSQL = `SELECT id, name, balance, version FROM accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	lockLogSQL = `SELECT pg_advisory_xact_lock($1)`

	insertAccountSQL = `INSERT INTO accounts (id, name, balance, version) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING`

	upsertAccountSQL = `INSERT INTO accounts (id, name, balance, version) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, balance = EXCLUDED.balance, version = EXCLUDED.version`

	appendLogSQL = `INSERT INTO transaction_log (operations) VALUES ($1) RETURNING sequence_id`

	readLogSQL = `SELECT sequence_id, committed_at, operations FROM transaction_log WHERE sequence_id > $1 ORDER BY sequence_id`
)

type pgxPool interface {
	Begin(context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(context.Context) error
}

// DocumentStore implements usecase.AccountStore and usecase.TransactionLog on PostgreSQL.
type DocumentStore struct {
	pool pgxPool
}

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(pool *pgxpool.Pool) *DocumentStore {
	return newDocumentStoreWithPool(pool)
}

func newDocumentStoreWithPool(pool pgxPool) *DocumentStore {
	return &DocumentStore{pool: pool}
}

// Get retrieves the latest committed snapshot of an account.
func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Account, error) {
	var account domain.Account
	err := s.pool.QueryRow(ctx, selectAccountSQL, id).Scan(&account.ID, &account.Name, &account.Balance, &account.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}

	return &account, nil
}

// Commit applies ops in one database transaction if every Match holds.
//
// Rows are locked in id order so concurrent commits cannot deadlock on each
// other's accounts. A Match on an absent document is enforced at insert time.
func (s *DocumentStore) Commit(ctx context.Context, ops []domain.DocumentOp) (int64, error) {
	payload, err := codec.MarshalOperations(ops)
	if err != nil {
		return 0, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}

	abort := func(err error) (int64, error) {
		_ = tx.Rollback(ctx)
		return 0, mapError(err)
	}

	current, err := lockAccounts(ctx, tx, matchedIDs(ops))
	if err != nil {
		return abort(err)
	}

	mustBeAbsent := make(map[string]bool)
	for _, op := range ops {
		if op.Kind != domain.OpMatch {
			continue
		}
		if !current[op.AccountID].Equal(op.Document) {
			return abort(domain.ErrConflict)
		}
		if op.Document == nil {
			mustBeAbsent[op.AccountID] = true
		}
	}

	if _, err := tx.Exec(ctx, lockLogSQL, logLockKey); err != nil {
		return abort(err)
	}

	for _, op := range ops {
		if op.Kind != domain.OpPut {
			continue
		}
		if err := putAccount(ctx, tx, op.Document, mustBeAbsent[op.AccountID]); err != nil {
			return abort(err)
		}
		delete(mustBeAbsent, op.AccountID)
	}

	var seq int64
	if err := tx.QueryRow(ctx, appendLogSQL, payload).Scan(&seq); err != nil {
		return abort(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, mapError(err)
	}

	return seq, nil
}

// ReadLog returns the entries after afterSequence in one statement snapshot.
func (s *DocumentStore) ReadLog(ctx context.Context, afterSequence int64) ([]domain.TransactionEntry, error) {
	rows, err := s.pool.Query(ctx, readLogSQL, afterSequence)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.TransactionEntry, 0)
	for rows.Next() {
		var (
			seq         int64
			committedAt time.Time
			payload     []byte
		)
		if err := rows.Scan(&seq, &committedAt, &payload); err != nil {
			return nil, err
		}

		ops, err := codec.UnmarshalOperations(payload)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", seq, err)
		}

		entries = append(entries, domain.TransactionEntry{
			SequenceID:  seq,
			CommittedAt: committedAt.UTC(),
			Operations:  ops,
		})
	}

	return entries, rows.Err()
}

// Ping checks database connectivity.
func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func lockAccounts(ctx context.Context, tx pgx.Tx, ids []string) (map[string]*domain.Account, error) {
	current := make(map[string]*domain.Account, len(ids))
	if len(ids) == 0 {
		return current, nil
	}

	rows, err := tx.Query(ctx, lockAccountsSQL, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(&account.ID, &account.Name, &account.Balance, &account.Version); err != nil {
			return nil, err
		}
		current[account.ID] = &account
	}

	return current, rows.Err()
}

func putAccount(ctx context.Context, tx pgx.Tx, doc *domain.Account, insertOnly bool) error {
	sql := upsertAccountSQL
	if insertOnly {
		sql = insertAccountSQL
	}

	tag, err := tx.Exec(ctx, sql, doc.ID, doc.Name, doc.Balance, doc.Version)
	if err != nil {
		return err
	}
	if insertOnly && tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}

	return nil
}

func matchedIDs(ops []domain.DocumentOp) []string {
	ids := domain.MatchedAccountIDs(ops)
	slices.Sort(ids)
	return slices.Compact(ids)
}

// mapError reports lost races as domain.ErrConflict.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure, pgErrUniqueViolation:
			return domain.ErrConflict
		}
	}
	return err
}
