package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverpine/guildbank/internal/domain"
)

// openTestStore connects to the database named by GUILDBANK_TEST_POSTGRES_DSN
// and resets the transactions table. Tests are skipped when the variable is
// unset so the suite stays green without a database around.
func openTestStore(t *testing.T) (*LedgerRepository, *sql.DB) {
	t.Helper()

	dsn := os.Getenv("GUILDBANK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("GUILDBANK_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, RunMigrations(ctx, db, "../../../../migrations"))
	_, err = db.ExecContext(ctx, "TRUNCATE TABLE transactions RESTART IDENTITY")
	require.NoError(t, err)

	return NewLedgerRepository(db), db
}

func sampleTransaction(receiver int64, confirmed bool) domain.Transaction {
	return domain.Transaction{
		Timestamp:       time.Now().UTC().Truncate(time.Microsecond),
		ActorID:         1,
		SenderAccount:   receiver,
		ReceiverAccount: receiver,
		Amounts:         domain.Amounts{domain.Gold: 2, domain.Copper: 9},
		Description:     "sample",
		Confirmed:       confirmed,
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	_, db := openTestStore(t)
	assert.NoError(t, RunMigrations(context.Background(), db, "../../../../migrations"))
}

func TestLedgerRepositoryContract(t *testing.T) {
	repo, _ := openTestStore(t)
	ctx := context.Background()

	stored, err := repo.Create(ctx, sampleTransaction(10, false))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.ID)

	got, err := repo.GetByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.Amounts, got.Amounts)
	assert.Equal(t, stored.Description, got.Description)
	assert.True(t, stored.Timestamp.Equal(got.Timestamp))

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	second, err := repo.Create(ctx, sampleTransaction(20, true))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)

	receiver := int64(10)
	confirmed := false
	matched, err := repo.Query(ctx, domain.TransactionFilter{ReceiverAccount: &receiver, Confirmed: &confirmed})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, stored.ID, matched[0].ID)

	for i := 0; i < 3; i++ {
		_, err = repo.Create(ctx, sampleTransaction(10, true))
		require.NoError(t, err)
	}
	window, err := repo.Range(ctx, 10, 1, 2)
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Greater(t, window[0].ID, window[1].ID)

	require.NoError(t, repo.Confirm(ctx, stored.ID))
	got, err = repo.GetByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.True(t, got.Confirmed)
	assert.ErrorIs(t, repo.Confirm(ctx, 999), domain.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, stored.ID))
	require.NoError(t, repo.Delete(ctx, stored.ID))
	_, err = repo.GetByID(ctx, stored.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
