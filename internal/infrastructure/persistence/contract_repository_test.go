package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
)

func TestGormContractRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormContractRepository(db)
	ctx := context.Background()

	t.Run("saves and reloads a contract", func(t *testing.T) {
		contract := createPersistedContract(t)
		contract.InitialIndexes[uuid.New()] = 1200

		require.NoError(t, repo.Save(ctx, contract))

		found, err := repo.FindByID(ctx, contract.ID)
		require.NoError(t, err)
		assert.Equal(t, contract.ID, found.ID)
		assert.Equal(t, contract.RoomID, found.RoomID)
		assert.True(t, found.Price.Equal(decimal.NewFromInt(3000000)))
		assert.Equal(t, contract.InitialIndexes, found.InitialIndexes)
		assert.True(t, found.Active)
	})

	t.Run("returns nil for unknown id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestGormContractRepository_SaveWithLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormContractRepository(db)
	ctx := context.Background()

	t.Run("succeeds when version matches", func(t *testing.T) {
		contract := createPersistedContract(t)
		require.NoError(t, repo.Save(ctx, contract))

		require.NoError(t, contract.CorrectDeposit(valueobject.NewMoneyVND(decimal.NewFromInt(2500000))))
		require.NoError(t, repo.SaveWithLock(ctx, contract))

		found, err := repo.FindByID(ctx, contract.ID)
		require.NoError(t, err)
		assert.True(t, found.Deposit.Equal(decimal.NewFromInt(2500000)))
		assert.Equal(t, 2, found.Version)
	})

	t.Run("persists a deactivation", func(t *testing.T) {
		contract := createPersistedContract(t)
		require.NoError(t, repo.Save(ctx, contract))

		contract.Deactivate()
		require.NoError(t, repo.SaveWithLock(ctx, contract))

		found, err := repo.FindByID(ctx, contract.ID)
		require.NoError(t, err)
		assert.False(t, found.Active)
	})

	t.Run("fails when another writer got there first", func(t *testing.T) {
		contract := createPersistedContract(t)
		require.NoError(t, repo.Save(ctx, contract))

		stale, err := repo.FindByID(ctx, contract.ID)
		require.NoError(t, err)

		require.NoError(t, contract.CorrectDeposit(valueobject.NewMoneyVND(decimal.NewFromInt(2000000))))
		require.NoError(t, repo.SaveWithLock(ctx, contract))

		require.NoError(t, stale.CorrectDeposit(valueobject.NewMoneyVND(decimal.NewFromInt(1000000))))
		err = repo.SaveWithLock(ctx, stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestGormContractRepository_FindActive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormContractRepository(db)
	ctx := context.Background()

	contract := createPersistedContract(t)
	require.NoError(t, repo.Save(ctx, contract))

	ended := createPersistedContract(t)
	ended.PropertyID = contract.PropertyID
	ended.Deactivate()
	require.NoError(t, repo.Save(ctx, ended))

	t.Run("lists only active contracts for the property", func(t *testing.T) {
		found, err := repo.FindActiveByProperty(ctx, contract.PropertyID)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, contract.ID, found[0].ID)
	})

	t.Run("finds the active contract occupying a room", func(t *testing.T) {
		found, err := repo.FindActiveByRoom(ctx, contract.RoomID)
		require.NoError(t, err)
		assert.Equal(t, contract.ID, found.ID)
	})

	t.Run("ignores contracts that already ended", func(t *testing.T) {
		past := createPersistedContract(t)
		end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
		require.NoError(t, past.CorrectDates(past.StartDate, &end))
		require.NoError(t, repo.Save(ctx, past))

		found, err := repo.FindActiveByRoom(ctx, past.RoomID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}
