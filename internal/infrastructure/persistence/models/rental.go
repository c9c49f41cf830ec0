package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nhatro/backend/internal/domain/rental"
	"github.com/nhatro/backend/internal/domain/shared"
)

// ContractModel is the persistence model for the Contract aggregate root.
type ContractModel struct {
	PropertyAggregateModel
	RoomID         uuid.UUID            `gorm:"type:uuid;not null;index"`
	TenantID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	Price          decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Deposit        decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	StartDate      time.Time            `gorm:"not null"`
	EndDate        *time.Time           `gorm:"index"`
	Active         bool                 `gorm:"not null;index"`
	InitialIndexes rental.IndexBaseline `gorm:"type:jsonb;default:'{}'"`
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "contracts"
}

// ToDomain converts the persistence model to a domain Contract.
func (m *ContractModel) ToDomain() *rental.Contract {
	return &rental.Contract{
		PropertyAggregateRoot: m.ToDomainPropertyAggregateRoot(),
		RoomID:                m.RoomID,
		TenantID:              m.TenantID,
		Price:                 m.Price,
		Deposit:               m.Deposit,
		StartDate:             m.StartDate,
		EndDate:               m.EndDate,
		Active:                m.Active,
		InitialIndexes:        m.InitialIndexes,
	}
}

// FromDomain populates the persistence model from a domain Contract.
func (m *ContractModel) FromDomain(c *rental.Contract) {
	m.FromDomainPropertyAggregateRoot(c.PropertyAggregateRoot)
	m.RoomID = c.RoomID
	m.TenantID = c.TenantID
	m.Price = c.Price
	m.Deposit = c.Deposit
	m.StartDate = c.StartDate
	m.EndDate = c.EndDate
	m.Active = c.Active
	m.InitialIndexes = c.InitialIndexes
}

// ContractModelFromDomain creates a new persistence model from a domain Contract.
func ContractModelFromDomain(c *rental.Contract) *ContractModel {
	m := &ContractModel{}
	m.FromDomain(c)
	return m
}

// ServiceModel is the persistence model for the Service entity.
type ServiceModel struct {
	BaseModel
	PropertyID uuid.UUID          `gorm:"type:uuid;not null;index"`
	Name       string             `gorm:"type:varchar(100);not null;uniqueIndex:idx_service_property_name,priority:2"`
	UnitPrice  decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	Unit       string             `gorm:"type:varchar(20);not null"`
	Kind       rental.ServiceKind `gorm:"type:varchar(10);not null"`
	Basis      rental.CalcBasis   `gorm:"type:varchar(15)"`
	Active     bool               `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ServiceModel) TableName() string {
	return "services"
}

// ToDomain converts the persistence model to a domain Service.
func (m *ServiceModel) ToDomain() *rental.Service {
	return &rental.Service{
		BaseEntity: m.BaseModel.ToDomain(),
		PropertyID: m.PropertyID,
		Name:       m.Name,
		UnitPrice:  m.UnitPrice,
		Unit:       m.Unit,
		Kind:       m.Kind,
		Basis:      m.Basis,
		Active:     m.Active,
	}
}

// FromDomain populates the persistence model from a domain Service.
func (m *ServiceModel) FromDomain(s *rental.Service) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.PropertyID = s.PropertyID
	m.Name = s.Name
	m.UnitPrice = s.UnitPrice
	m.Unit = s.Unit
	m.Kind = s.Kind
	m.Basis = s.Basis
	m.Active = s.Active
}

// ServiceModelFromDomain creates a new persistence model from a domain Service.
func ServiceModelFromDomain(s *rental.Service) *ServiceModel {
	m := &ServiceModel{}
	m.FromDomain(s)
	return m
}

// RoomModel is the persistence model for rooms. Billing only reads the
// occupant count; full room management lives elsewhere.
type RoomModel struct {
	BaseModel
	PropertyID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_room_property_name,priority:1"`
	Name          string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_room_property_name,priority:2"`
	OccupantCount int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (RoomModel) TableName() string {
	return "rooms"
}

// ServiceReadingModel is the persistence model for the ServiceReading entity.
// The month is stored in its wire format ("MM-YYYY") and takes part in the
// uniqueness constraint: one reading per contract, service and month.
type ServiceReadingModel struct {
	BaseModel
	ContractID    uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_reading_contract_service_month,priority:1"`
	ServiceID     uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_reading_contract_service_month,priority:2"`
	Month         string                `gorm:"type:varchar(7);not null;uniqueIndex:idx_reading_contract_service_month,priority:3;index"`
	OldIndex      int64                 `gorm:"not null"`
	NewIndex      int64                 `gorm:"not null"`
	IsMeterReset  bool                  `gorm:"not null;default:false"`
	MaxMeterValue int64                 `gorm:"not null"`
	Confirmed     bool                  `gorm:"not null;default:false;index"`
	Evidence      rental.EvidenceImages `gorm:"type:jsonb;default:'[]'"`
}

// TableName returns the table name for GORM
func (ServiceReadingModel) TableName() string {
	return "service_readings"
}

// ToDomain converts the persistence model to a domain ServiceReading.
func (m *ServiceReadingModel) ToDomain() (*rental.ServiceReading, error) {
	month, err := rental.ParseBillingMonth(m.Month)
	if err != nil {
		return nil, shared.NewDomainError("DATA_CORRUPTION", "Stored reading month is invalid: "+m.Month)
	}
	return &rental.ServiceReading{
		BaseEntity:    m.BaseModel.ToDomain(),
		ContractID:    m.ContractID,
		ServiceID:     m.ServiceID,
		Month:         month,
		OldIndex:      m.OldIndex,
		NewIndex:      m.NewIndex,
		IsMeterReset:  m.IsMeterReset,
		MaxMeterValue: m.MaxMeterValue,
		Confirmed:     m.Confirmed,
		Evidence:      m.Evidence,
	}, nil
}

// FromDomain populates the persistence model from a domain ServiceReading.
func (m *ServiceReadingModel) FromDomain(r *rental.ServiceReading) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.ContractID = r.ContractID
	m.ServiceID = r.ServiceID
	m.Month = r.Month.String()
	m.OldIndex = r.OldIndex
	m.NewIndex = r.NewIndex
	m.IsMeterReset = r.IsMeterReset
	m.MaxMeterValue = r.MaxMeterValue
	m.Confirmed = r.Confirmed
	m.Evidence = r.Evidence
}

// ServiceReadingModelFromDomain creates a new persistence model from a domain ServiceReading.
func ServiceReadingModelFromDomain(r *rental.ServiceReading) *ServiceReadingModel {
	m := &ServiceReadingModel{}
	m.FromDomain(r)
	return m
}
