package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nhatro/backend/internal/domain/rental"
	"github.com/nhatro/backend/internal/infrastructure/persistence/models"
)

// GormReadingRepository implements ReadingRepository using GORM
type GormReadingRepository struct {
	db *gorm.DB
}

// NewGormReadingRepository creates a new GormReadingRepository
func NewGormReadingRepository(db *gorm.DB) *GormReadingRepository {
	return &GormReadingRepository{db: db}
}

// Save creates or updates a reading
func (r *GormReadingRepository) Save(ctx context.Context, reading *rental.ServiceReading) error {
	model := models.ServiceReadingModelFromDomain(reading)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a reading by its ID
func (r *GormReadingRepository) FindByID(ctx context.Context, id uuid.UUID) (*rental.ServiceReading, error) {
	var model models.ServiceReadingModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByContractServiceMonth finds the reading for a contract, service and
// month. The triple is unique.
func (r *GormReadingRepository) FindByContractServiceMonth(ctx context.Context, contractID, serviceID uuid.UUID, month rental.BillingMonth) (*rental.ServiceReading, error) {
	var model models.ServiceReadingModel
	if err := r.db.WithContext(ctx).
		Where("contract_id = ? AND service_id = ? AND month = ?", contractID, serviceID, month.String()).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindConfirmedByContractMonth finds all confirmed readings for a contract
// in a month
func (r *GormReadingRepository) FindConfirmedByContractMonth(ctx context.Context, contractID uuid.UUID, month rental.BillingMonth) ([]*rental.ServiceReading, error) {
	var readingModels []models.ServiceReadingModel
	if err := r.db.WithContext(ctx).
		Where("contract_id = ? AND month = ? AND confirmed = ?", contractID, month.String(), true).
		Find(&readingModels).Error; err != nil {
		return nil, err
	}
	readings := make([]*rental.ServiceReading, len(readingModels))
	for i := range readingModels {
		reading, err := readingModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		readings[i] = reading
	}
	return readings, nil
}

// Ensure GormReadingRepository implements ReadingRepository
var _ rental.ReadingRepository = (*GormReadingRepository)(nil)
