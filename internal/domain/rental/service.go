package rental

import (
	"github.com/google/uuid"
	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ServiceKind distinguishes metered consumption billing from flat recurring
// charges.
type ServiceKind string

const (
	ServiceKindIndex ServiceKind = "INDEX" // billed by metered consumption
	ServiceKindFixed ServiceKind = "FIXED" // flat recurring charge
)

// IsValid checks if the kind is a valid ServiceKind
func (k ServiceKind) IsValid() bool {
	return k == ServiceKindIndex || k == ServiceKindFixed
}

// CalcBasis is the calculation basis for FIXED services.
type CalcBasis string

const (
	CalcBasisPerRoom   CalcBasis = "PER_ROOM"
	CalcBasisPerPerson CalcBasis = "PER_PERSON"
)

// IsValid checks if the basis is a valid CalcBasis
func (b CalcBasis) IsValid() bool {
	return b == CalcBasisPerRoom || b == CalcBasisPerPerson
}

// Service is a utility or amenity offered by a property: electricity and
// water are typically INDEX services, wifi or garbage collection FIXED ones.
// Deactivating a service stops it appearing on new invoices; past invoices
// keep their line items untouched.
type Service struct {
	shared.BaseEntity
	PropertyID uuid.UUID       `json:"property_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Unit       string          `json:"unit"` // e.g. "kWh", "m3", "month"
	Kind       ServiceKind     `json:"kind"`
	Basis      CalcBasis       `json:"basis"` // only meaningful for FIXED
	Active     bool            `json:"active"`
}

// NewService creates a new service definition
func NewService(propertyID uuid.UUID, name string, unitPrice valueobject.Money, unit string, kind ServiceKind, basis CalcBasis) (*Service, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Service name cannot be empty")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Service unit price cannot be negative")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Service kind is not valid")
	}
	if kind == ServiceKindFixed && !basis.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Fixed service requires a calculation basis")
	}
	if kind == ServiceKindIndex {
		basis = ""
	}
	return &Service{
		BaseEntity: shared.NewBaseEntity(),
		PropertyID: propertyID,
		Name:       name,
		UnitPrice:  unitPrice.Amount(),
		Unit:       unit,
		Kind:       kind,
		Basis:      basis,
		Active:     true,
	}, nil
}

// UnitPriceMoney returns the unit price as Money
func (s *Service) UnitPriceMoney() valueobject.Money {
	return valueobject.NewMoneyVND(s.UnitPrice)
}

// Deactivate removes the service from future billing without touching past
// invoices.
func (s *Service) Deactivate() {
	s.Active = false
}

// IsMetered reports whether the service bills by meter index
func (s *Service) IsMetered() bool {
	return s.Kind == ServiceKindIndex
}
