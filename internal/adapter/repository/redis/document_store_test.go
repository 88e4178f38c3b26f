package redis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/ledgerd/internal/domain"
)

func TestDocumentStore_CommitAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestDocumentStore(t)

	created := &domain.Account{ID: "1", Name: "alice"}
	seq, err := store.Commit(ctx, []domain.DocumentOp{domain.Put(created)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	got, err := store.Get(ctx, "1")
	require.NoError(t, err)
	assert.True(t, got.Equal(created))

	deposited := created.WithBalance(created.Balance + 25)
	seq, err = store.Commit(ctx, []domain.DocumentOp{domain.Match("1", created), domain.Put(deposited)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)

	got, err = store.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(25), got.Balance)
	assert.Equal(t, int64(1), got.Version)
}

func TestDocumentStore_GetMissing(t *testing.T) {
	_, err := newTestDocumentStore(t).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestDocumentStore_StaleMatchAppliesNothing(t *testing.T) {
	ctx := context.Background()
	store := newTestDocumentStore(t)

	a := &domain.Account{ID: "a", Balance: 10}
	_, err := store.Commit(ctx, []domain.DocumentOp{domain.Put(a)})
	require.NoError(t, err)

	stale := a.WithBalance(a.Balance + 1)
	_, err = store.Commit(ctx, []domain.DocumentOp{domain.Match("a", stale), domain.Put(stale.WithBalance(stale.Balance + 1))})
	require.ErrorIs(t, err, domain.ErrConflict)

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Balance)

	entries, err := store.ReadLog(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDocumentStore_MatchAbsent(t *testing.T) {
	ctx := context.Background()
	store := newTestDocumentStore(t)
	doc := &domain.Account{ID: "x"}

	_, err := store.Commit(ctx, []domain.DocumentOp{domain.Match("x", nil), domain.Put(doc)})
	require.NoError(t, err)

	_, err = store.Commit(ctx, []domain.DocumentOp{domain.Match("x", nil), domain.Put(doc)})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestDocumentStore_ReadLog(t *testing.T) {
	ctx := context.Background()
	store := newTestDocumentStore(t)

	a := &domain.Account{ID: "a"}
	b := &domain.Account{ID: "b"}
	_, err := store.Commit(ctx, []domain.DocumentOp{domain.Put(a)})
	require.NoError(t, err)
	_, err = store.Commit(ctx, []domain.DocumentOp{domain.Put(b)})
	require.NoError(t, err)
	_, err = store.Commit(ctx, []domain.DocumentOp{domain.Match("a", a), domain.Put(a.WithBalance(a.Balance + 3))})
	require.NoError(t, err)

	entries, err := store.ReadLog(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, entry := range entries {
		assert.Equal(t, int64(i+1), entry.SequenceID)
		assert.False(t, entry.CommittedAt.IsZero())
	}
	assert.Equal(t, domain.EntryKindSingleAccount, domain.ClassifyEntry(entries[2]).Kind)

	tail, err := store.ReadLog(ctx, 2)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, int64(3), tail[0].SequenceID)

	empty, err := store.ReadLog(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDocumentStore_ConcurrentCommitsFromSameSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newTestDocumentStore(t)

	base := &domain.Account{ID: "acc"}
	_, err := store.Commit(ctx, []domain.DocumentOp{domain.Put(base)})
	require.NoError(t, err)

	const workers = 10
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)

	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			_, err := store.Commit(ctx, []domain.DocumentOp{
				domain.Match("acc", base), domain.Put(base.WithBalance(base.Balance + 10)),
			})
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, domain.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(workers-1), conflicts.Load())

	got, err := store.Get(ctx, "acc")
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Balance)
}

func TestMapError(t *testing.T) {
	assert.ErrorIs(t, mapError(redislib.TxFailedErr), domain.ErrConflict)

	other := errors.New("boom")
	assert.Equal(t, other, mapError(other))
}
