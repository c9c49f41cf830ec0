package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhatro/backend/internal/domain/rental"
)

func TestGormReadingRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormReadingRepository(db)
	ctx := context.Background()

	t.Run("saves and reloads a reading", func(t *testing.T) {
		reading, err := rental.NewServiceReading(uuid.New(), uuid.New(), testMonth(t, "08-2026"), 1200, 1345, false, 9999)
		require.NoError(t, err)
		reading.AttachEvidence("https://img.example/meter-0826.jpg")

		require.NoError(t, repo.Save(ctx, reading))

		found, err := repo.FindByID(ctx, reading.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1200), found.OldIndex)
		assert.Equal(t, int64(1345), found.NewIndex)
		assert.Equal(t, "08-2026", found.Month.String())
		assert.Equal(t, rental.EvidenceImages{"https://img.example/meter-0826.jpg"}, found.Evidence)
		assert.False(t, found.Confirmed)
	})

	t.Run("finds by contract, service and month", func(t *testing.T) {
		reading, err := rental.NewServiceReading(uuid.New(), uuid.New(), testMonth(t, "07-2026"), 500, 520, false, 9999)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, reading))

		found, err := repo.FindByContractServiceMonth(ctx, reading.ContractID, reading.ServiceID, reading.Month)
		require.NoError(t, err)
		assert.Equal(t, reading.ID, found.ID)

		missing, err := repo.FindByContractServiceMonth(ctx, reading.ContractID, reading.ServiceID, testMonth(t, "06-2026"))
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestGormReadingRepository_FindConfirmedByContractMonth(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormReadingRepository(db)
	ctx := context.Background()

	contractID := uuid.New()
	month := testMonth(t, "08-2026")

	confirmed, err := rental.NewServiceReading(contractID, uuid.New(), month, 100, 150, false, 9999)
	require.NoError(t, err)
	require.NoError(t, confirmed.Confirm())
	require.NoError(t, repo.Save(ctx, confirmed))

	pending, err := rental.NewServiceReading(contractID, uuid.New(), month, 30, 42, false, 9999)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, pending))

	otherMonth, err := rental.NewServiceReading(contractID, confirmed.ServiceID, testMonth(t, "07-2026"), 50, 100, false, 9999)
	require.NoError(t, err)
	require.NoError(t, otherMonth.Confirm())
	require.NoError(t, repo.Save(ctx, otherMonth))

	found, err := repo.FindConfirmedByContractMonth(ctx, contractID, month)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, confirmed.ID, found[0].ID)
}

func TestGormReadingRepository_UniqueTriple(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormReadingRepository(db)
	ctx := context.Background()

	first, err := rental.NewServiceReading(uuid.New(), uuid.New(), testMonth(t, "08-2026"), 10, 20, false, 9999)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	duplicate, err := rental.NewServiceReading(first.ContractID, first.ServiceID, first.Month, 10, 25, false, 9999)
	require.NoError(t, err)
	assert.Error(t, repo.Save(ctx, duplicate))
}
