package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nhatro/backend/internal/domain/rental"
	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/infrastructure/persistence/models"
)

// GormRoomDirectory implements RoomDirectory using GORM
type GormRoomDirectory struct {
	db *gorm.DB
}

// NewGormRoomDirectory creates a new GormRoomDirectory
func NewGormRoomDirectory(db *gorm.DB) *GormRoomDirectory {
	return &GormRoomDirectory{db: db}
}

// OccupantCount returns the number of people registered in a room
func (r *GormRoomDirectory) OccupantCount(ctx context.Context, roomID uuid.UUID) (int, error) {
	var model models.RoomModel
	if err := r.db.WithContext(ctx).
		Select("occupant_count").
		First(&model, "id = ?", roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return model.OccupantCount, nil
}

// Ensure GormRoomDirectory implements RoomDirectory
var _ rental.RoomDirectory = (*GormRoomDirectory)(nil)
