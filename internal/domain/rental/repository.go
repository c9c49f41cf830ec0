package rental

import (
	"context"

	"github.com/google/uuid"
)

// ContractRepository persists contracts. Single-row Find methods return
// nil without an error when no row matches; services decide whether a
// missing row is an error.
type ContractRepository interface {
	Save(ctx context.Context, contract *Contract) error
	SaveWithLock(ctx context.Context, contract *Contract) error
	FindByID(ctx context.Context, id uuid.UUID) (*Contract, error)
	FindActiveByProperty(ctx context.Context, propertyID uuid.UUID) ([]*Contract, error)
	FindActiveByRoom(ctx context.Context, roomID uuid.UUID) (*Contract, error)
}

// ServiceRepository persists billable services.
type ServiceRepository interface {
	Save(ctx context.Context, service *Service) error
	FindByID(ctx context.Context, id uuid.UUID) (*Service, error)
	FindActiveByProperty(ctx context.Context, propertyID uuid.UUID) ([]*Service, error)
}

// ReadingRepository persists meter readings. The (contract, service, month)
// triple is unique.
type ReadingRepository interface {
	Save(ctx context.Context, reading *ServiceReading) error
	FindByID(ctx context.Context, id uuid.UUID) (*ServiceReading, error)
	FindByContractServiceMonth(ctx context.Context, contractID, serviceID uuid.UUID, month BillingMonth) (*ServiceReading, error)
	FindConfirmedByContractMonth(ctx context.Context, contractID uuid.UUID, month BillingMonth) ([]*ServiceReading, error)
}

// RoomDirectory answers occupancy questions about rooms. Room management
// lives outside this module; billing only needs the head count for
// per-person fixed services.
type RoomDirectory interface {
	OccupantCount(ctx context.Context, roomID uuid.UUID) (int, error)
}
