package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nhatro/backend/internal/domain/rental"
	"github.com/nhatro/backend/internal/infrastructure/persistence/models"
)

// GormServiceRepository implements ServiceRepository using GORM
type GormServiceRepository struct {
	db *gorm.DB
}

// NewGormServiceRepository creates a new GormServiceRepository
func NewGormServiceRepository(db *gorm.DB) *GormServiceRepository {
	return &GormServiceRepository{db: db}
}

// Save creates or updates a service
func (r *GormServiceRepository) Save(ctx context.Context, service *rental.Service) error {
	model := models.ServiceModelFromDomain(service)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a service by its ID
func (r *GormServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*rental.Service, error) {
	var model models.ServiceModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByProperty finds all active services offered by a property
func (r *GormServiceRepository) FindActiveByProperty(ctx context.Context, propertyID uuid.UUID) ([]*rental.Service, error) {
	var serviceModels []models.ServiceModel
	if err := r.db.WithContext(ctx).
		Where("property_id = ? AND active = ?", propertyID, true).
		Order("name ASC").
		Find(&serviceModels).Error; err != nil {
		return nil, err
	}
	services := make([]*rental.Service, len(serviceModels))
	for i := range serviceModels {
		services[i] = serviceModels[i].ToDomain()
	}
	return services, nil
}

// Ensure GormServiceRepository implements ServiceRepository
var _ rental.ServiceRepository = (*GormServiceRepository)(nil)
