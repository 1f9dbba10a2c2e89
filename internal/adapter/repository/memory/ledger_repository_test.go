package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverpine/guildbank/internal/domain"
)

func sampleTransaction(receiver int64, confirmed bool) domain.Transaction {
	return domain.Transaction{
		Timestamp:       time.Now().UTC(),
		ActorID:         1,
		SenderAccount:   receiver,
		ReceiverAccount: receiver,
		Amounts:         domain.Amounts{domain.Copper: 1},
		Description:     "sample",
		Confirmed:       confirmed,
	}
}

func TestCreateAssignsMonotonicIDs(t *testing.T) {
	t.Parallel()

	repo := NewLedgerRepository()
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		stored, err := repo.Create(ctx, sampleTransaction(10, false))
		require.NoError(t, err)
		ids = append(ids, stored.ID)
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)

	// Deleting the newest record must not free its id.
	require.NoError(t, repo.Delete(ctx, 3))
	stored, err := repo.Create(ctx, sampleTransaction(10, false))
	require.NoError(t, err)
	assert.Equal(t, int64(4), stored.ID)
}

func TestGetByID(t *testing.T) {
	t.Parallel()

	repo := NewLedgerRepository()
	ctx := context.Background()

	stored, err := repo.Create(ctx, sampleTransaction(10, true))
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQueryFilters(t *testing.T) {
	t.Parallel()

	repo := NewLedgerRepository()
	ctx := context.Background()

	fixtures := []domain.Transaction{
		sampleTransaction(10, true),
		sampleTransaction(10, false),
		sampleTransaction(20, true),
		sampleTransaction(20, true),
	}
	for _, tx := range fixtures {
		_, err := repo.Create(ctx, tx)
		require.NoError(t, err)
	}

	receiver := int64(10)
	confirmed := true

	all, err := repo.Query(ctx, domain.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	byReceiver, err := repo.Query(ctx, domain.TransactionFilter{ReceiverAccount: &receiver})
	require.NoError(t, err)
	assert.Len(t, byReceiver, 2)

	byBoth, err := repo.Query(ctx, domain.TransactionFilter{ReceiverAccount: &receiver, Confirmed: &confirmed})
	require.NoError(t, err)
	require.Len(t, byBoth, 1)
	assert.Equal(t, int64(1), byBoth[0].ID)

	// Insertion order is preserved.
	byConfirmed, err := repo.Query(ctx, domain.TransactionFilter{Confirmed: &confirmed})
	require.NoError(t, err)
	require.Len(t, byConfirmed, 3)
	assert.True(t, byConfirmed[0].ID < byConfirmed[1].ID)
	assert.True(t, byConfirmed[1].ID < byConfirmed[2].ID)
}

func TestRangeNewestFirst(t *testing.T) {
	t.Parallel()

	repo := NewLedgerRepository()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, sampleTransaction(10, false))
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, sampleTransaction(20, false))
	require.NoError(t, err)

	newest, err := repo.Range(ctx, 10, 0, 3)
	require.NoError(t, err)
	require.Len(t, newest, 3)
	assert.Equal(t, int64(5), newest[0].ID)
	assert.Equal(t, int64(4), newest[1].ID)
	assert.Equal(t, int64(3), newest[2].ID)

	offset, err := repo.Range(ctx, 10, 3, 3)
	require.NoError(t, err)
	require.Len(t, offset, 2)
	assert.Equal(t, int64(2), offset[0].ID)
	assert.Equal(t, int64(1), offset[1].ID)

	empty, err := repo.Range(ctx, 10, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	unknown, err := repo.Range(ctx, 99, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, unknown)

	past, err := repo.Range(ctx, 10, 99, 10)
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestDeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	repo := NewLedgerRepository()
	ctx := context.Background()

	stored, err := repo.Create(ctx, sampleTransaction(10, false))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, stored.ID))
	require.NoError(t, repo.Delete(ctx, stored.ID))
	require.NoError(t, repo.Delete(ctx, 12345))

	_, err = repo.GetByID(ctx, stored.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfirm(t *testing.T) {
	t.Parallel()

	repo := NewLedgerRepository()
	ctx := context.Background()

	stored, err := repo.Create(ctx, sampleTransaction(10, false))
	require.NoError(t, err)

	require.NoError(t, repo.Confirm(ctx, stored.ID))

	got, err := repo.GetByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.True(t, got.Confirmed)

	// Confirming twice is fine; confirming a missing id is not.
	require.NoError(t, repo.Confirm(ctx, stored.ID))
	assert.ErrorIs(t, repo.Confirm(ctx, 999), domain.ErrNotFound)
}
