package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nhatro/backend/internal/domain/rental"
	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/infrastructure/persistence/models"
)

// GormContractRepository implements ContractRepository using GORM
type GormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a new GormContractRepository
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// Save creates or updates a contract
func (r *GormContractRepository) Save(ctx context.Context, contract *rental.Contract) error {
	model := models.ContractModelFromDomain(contract)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking. Save writes every column,
// so cleared flags and zeroed amounts are persisted too.
func (r *GormContractRepository) SaveWithLock(ctx context.Context, contract *rental.Contract) error {
	model := models.ContractModelFromDomain(contract)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", contract.ID, contract.Version-1).
		Save(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByID finds a contract by its ID
func (r *GormContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*rental.Contract, error) {
	var model models.ContractModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByProperty finds all active contracts for a property
func (r *GormContractRepository) FindActiveByProperty(ctx context.Context, propertyID uuid.UUID) ([]*rental.Contract, error) {
	var contractModels []models.ContractModel
	if err := r.db.WithContext(ctx).
		Where("property_id = ? AND active = ?", propertyID, true).
		Order("start_date ASC").
		Find(&contractModels).Error; err != nil {
		return nil, err
	}
	contracts := make([]*rental.Contract, len(contractModels))
	for i := range contractModels {
		contracts[i] = contractModels[i].ToDomain()
	}
	return contracts, nil
}

// FindActiveByRoom finds the active contract occupying a room. A room holds
// at most one active contract at a time.
func (r *GormContractRepository) FindActiveByRoom(ctx context.Context, roomID uuid.UUID) (*rental.Contract, error) {
	var model models.ContractModel
	if err := r.db.WithContext(ctx).
		Where("room_id = ? AND active = ? AND (end_date IS NULL OR end_date >= ?)", roomID, true, time.Now()).
		Order("start_date DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormContractRepository implements ContractRepository
var _ rental.ContractRepository = (*GormContractRepository)(nil)
