package rental

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// IndexBaseline maps a service ID to the meter index recorded at contract
// signing. It is the starting point for the first month's consumption and is
// stored as JSONB on the contract row.
type IndexBaseline map[uuid.UUID]int64

// Value implements driver.Valuer for JSONB storage
func (b IndexBaseline) Value() (driver.Value, error) {
	if b == nil {
		return "{}", nil
	}
	return json.Marshal(b)
}

// Scan implements sql.Scanner for JSONB retrieval
func (b *IndexBaseline) Scan(value interface{}) error {
	if value == nil {
		*b = IndexBaseline{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan IndexBaseline: unsupported type")
	}
	if len(bytes) == 0 {
		*b = IndexBaseline{}
		return nil
	}
	return json.Unmarshal(bytes, b)
}

// Contract is a lease agreement between a property and a tenant for one room.
// Its monthly price is locked at signing: later room price changes never
// affect a running contract. Room, tenant and price are immutable after
// creation; only dates, deposit, the active flag and the index baseline may
// be corrected. Termination deactivates the contract, it is never deleted.
type Contract struct {
	shared.PropertyAggregateRoot
	RoomID         uuid.UUID       `json:"room_id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	Price          decimal.Decimal `json:"price"`
	Deposit        decimal.Decimal `json:"deposit"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        *time.Time      `json:"end_date"` // open-ended when nil
	Active         bool            `json:"active"`
	InitialIndexes IndexBaseline   `json:"initial_indexes"`
}

// NewContract creates a new contract at lease signing
func NewContract(
	propertyID uuid.UUID,
	roomID uuid.UUID,
	tenantID uuid.UUID,
	price valueobject.Money,
	deposit valueobject.Money,
	startDate time.Time,
	endDate *time.Time,
	initialIndexes IndexBaseline,
) (*Contract, error) {
	if roomID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Room ID cannot be empty")
	}
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Tenant ID cannot be empty")
	}
	if !price.IsPositive() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Contract price must be positive")
	}
	if deposit.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Deposit cannot be negative")
	}
	if startDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Start date is required")
	}
	if endDate != nil && endDate.Before(startDate) {
		return nil, shared.NewDomainError("INVALID_INPUT", "End date cannot be before start date")
	}
	for _, idx := range initialIndexes {
		if idx < 0 {
			return nil, shared.NewDomainError("INVALID_INPUT", "Initial meter index cannot be negative")
		}
	}
	if initialIndexes == nil {
		initialIndexes = IndexBaseline{}
	}

	return &Contract{
		PropertyAggregateRoot: shared.NewPropertyAggregateRoot(propertyID),
		RoomID:                roomID,
		TenantID:              tenantID,
		Price:                 price.Amount(),
		Deposit:               deposit.Amount(),
		StartDate:             startDate,
		EndDate:               endDate,
		Active:                true,
		InitialIndexes:        initialIndexes,
	}, nil
}

// PriceMoney returns the locked monthly rent as Money
func (c *Contract) PriceMoney() valueobject.Money {
	return valueobject.NewMoneyVND(c.Price)
}

// IsOpenEnded reports whether the contract has no end date
func (c *Contract) IsOpenEnded() bool {
	return c.EndDate == nil
}

// InitialIndex returns the signing-time meter index for a service, if recorded.
func (c *Contract) InitialIndex(serviceID uuid.UUID) (int64, bool) {
	idx, ok := c.InitialIndexes[serviceID]
	return idx, ok
}

// CorrectDates fixes the contract period. Dates are the only temporal fields
// an operator may amend after signing.
func (c *Contract) CorrectDates(startDate time.Time, endDate *time.Time) error {
	if startDate.IsZero() {
		return shared.NewDomainError("INVALID_INPUT", "Start date is required")
	}
	if endDate != nil && endDate.Before(startDate) {
		return shared.NewDomainError("INVALID_INPUT", "End date cannot be before start date")
	}
	c.StartDate = startDate
	c.EndDate = endDate
	c.Touch()
	c.IncrementVersion()
	return nil
}

// CorrectDeposit fixes the recorded deposit amount
func (c *Contract) CorrectDeposit(deposit valueobject.Money) error {
	if deposit.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Deposit cannot be negative")
	}
	c.Deposit = deposit.Amount()
	c.Touch()
	c.IncrementVersion()
	return nil
}

// CorrectInitialIndex fixes the signing-time baseline for one service
func (c *Contract) CorrectInitialIndex(serviceID uuid.UUID, index int64) error {
	if index < 0 {
		return shared.NewDomainError("INVALID_INPUT", "Initial meter index cannot be negative")
	}
	if c.InitialIndexes == nil {
		c.InitialIndexes = IndexBaseline{}
	}
	c.InitialIndexes[serviceID] = index
	c.Touch()
	c.IncrementVersion()
	return nil
}

// Deactivate terminates the contract. Terminated contracts stay on record
// for invoice history.
func (c *Contract) Deactivate() {
	if !c.Active {
		return
	}
	c.Active = false
	c.Touch()
	c.IncrementVersion()
}

// DaysOccupiedIn returns how many days of the billing month the contract
// covers. Start and end dates inside the month shorten the span; both days
// are counted as occupied.
func (c *Contract) DaysOccupiedIn(month BillingMonth) int {
	if !c.StartDate.Before(month.End()) {
		return 0
	}
	first := 1
	if month.Contains(c.StartDate) {
		first = c.StartDate.Day()
	}
	last := month.Days()
	if c.EndDate != nil {
		if c.EndDate.Before(month.Start()) {
			return 0
		}
		if month.Contains(*c.EndDate) {
			last = c.EndDate.Day()
		}
	}
	if last < first {
		return 0
	}
	return last - first + 1
}
