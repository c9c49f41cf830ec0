package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/infrastructure/persistence/models"
)

func TestGormRoomDirectory_OccupantCount(t *testing.T) {
	db := setupTestDB(t)
	directory := NewGormRoomDirectory(db)
	ctx := context.Background()

	room := &models.RoomModel{
		BaseModel: models.BaseModel{
			ID: uuid.New(),
		},
		PropertyID:    uuid.New(),
		Name:          "A-101",
		OccupantCount: 3,
	}
	require.NoError(t, db.Create(room).Error)

	t.Run("returns the registered head count", func(t *testing.T) {
		count, err := directory.OccupantCount(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("returns not found for an unknown room", func(t *testing.T) {
		_, err := directory.OccupantCount(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
