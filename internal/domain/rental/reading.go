package rental

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nhatro/backend/internal/domain/shared"
)

// DefaultMaxMeterValue is the rollover ceiling of a standard 4-digit meter.
const DefaultMaxMeterValue int64 = 9999

// EvidenceImages holds references to photos backing a reading, stored as
// JSONB alongside the row.
type EvidenceImages []string

// Value implements driver.Valuer for JSONB storage
func (e EvidenceImages) Value() (driver.Value, error) {
	if e == nil {
		return "[]", nil
	}
	return json.Marshal(e)
}

// Scan implements sql.Scanner for JSONB retrieval
func (e *EvidenceImages) Scan(value interface{}) error {
	if value == nil {
		*e = EvidenceImages{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan EvidenceImages: unsupported type")
	}
	if len(bytes) == 0 {
		*e = EvidenceImages{}
		return nil
	}
	return json.Unmarshal(bytes, e)
}

// Consumption validates a meter reading and returns the billed quantity.
//
// Without a reset the meter only moves forward: newIndex must be at least
// oldIndex and consumption is the difference. When the meter was replaced or
// rolled over (isMeterReset), consumption spans the old meter's remaining
// range plus the new meter's count from zero:
//
//	(maxMeterValue − oldIndex) + newIndex
//
// The function is pure; persistence and confirmation are the caller's
// responsibility.
func Consumption(oldIndex, newIndex int64, isMeterReset bool, maxMeterValue int64) (int64, error) {
	if oldIndex < 0 || newIndex < 0 {
		return 0, shared.NewDomainError("INVALID_READING",
			fmt.Sprintf("meter indexes must be non-negative, got old=%d new=%d", oldIndex, newIndex))
	}
	if !isMeterReset {
		if newIndex < oldIndex {
			return 0, shared.NewDomainError("INVALID_READING",
				fmt.Sprintf("new index %d is below old index %d without a meter reset", newIndex, oldIndex))
		}
		return newIndex - oldIndex, nil
	}
	if maxMeterValue <= 0 {
		maxMeterValue = DefaultMaxMeterValue
	}
	consumption := (maxMeterValue - oldIndex) + newIndex
	if consumption < 0 {
		return 0, shared.NewDomainError("INVALID_READING",
			fmt.Sprintf("reset consumption is negative: max=%d old=%d new=%d", maxMeterValue, oldIndex, newIndex))
	}
	return consumption, nil
}

// ServiceReading is one month's meter reading for one (contract, service)
// pair. The pair plus the month is unique; the old index is fixed once the
// row exists because the reading is logically bound to its billing period.
// Only the new index may be corrected until the reading is confirmed.
type ServiceReading struct {
	shared.BaseEntity
	ContractID    uuid.UUID      `json:"contract_id"`
	ServiceID     uuid.UUID      `json:"service_id"`
	Month         BillingMonth   `json:"month"`
	OldIndex      int64          `json:"old_index"`
	NewIndex      int64          `json:"new_index"`
	IsMeterReset  bool           `json:"is_meter_reset"`
	MaxMeterValue int64          `json:"max_meter_value"`
	Confirmed     bool           `json:"confirmed"`
	Evidence      EvidenceImages `json:"evidence"`
}

// NewServiceReading creates a reading for one billing period. The reading is
// validated up front so an impossible pair of indexes never reaches storage.
func NewServiceReading(
	contractID uuid.UUID,
	serviceID uuid.UUID,
	month BillingMonth,
	oldIndex int64,
	newIndex int64,
	isMeterReset bool,
	maxMeterValue int64,
) (*ServiceReading, error) {
	if contractID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Contract ID cannot be empty")
	}
	if serviceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Service ID cannot be empty")
	}
	if month.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Billing month is required")
	}
	if maxMeterValue <= 0 {
		maxMeterValue = DefaultMaxMeterValue
	}
	if _, err := Consumption(oldIndex, newIndex, isMeterReset, maxMeterValue); err != nil {
		return nil, err
	}

	return &ServiceReading{
		BaseEntity:    shared.NewBaseEntity(),
		ContractID:    contractID,
		ServiceID:     serviceID,
		Month:         month,
		OldIndex:      oldIndex,
		NewIndex:      newIndex,
		IsMeterReset:  isMeterReset,
		MaxMeterValue: maxMeterValue,
		Confirmed:     false,
		Evidence:      EvidenceImages{},
	}, nil
}

// Consumption returns the billed quantity for this reading.
func (r *ServiceReading) Consumption() (int64, error) {
	return Consumption(r.OldIndex, r.NewIndex, r.IsMeterReset, r.MaxMeterValue)
}

// CorrectNewIndex amends the new index. The old index, contract, service and
// month are immutable; a confirmed reading may already be billed, so it can
// no longer change.
func (r *ServiceReading) CorrectNewIndex(newIndex int64, isMeterReset bool) error {
	if r.Confirmed {
		return shared.NewDomainError("INVALID_STATE", "Cannot correct a confirmed reading")
	}
	if _, err := Consumption(r.OldIndex, newIndex, isMeterReset, r.MaxMeterValue); err != nil {
		return err
	}
	r.NewIndex = newIndex
	r.IsMeterReset = isMeterReset
	r.Touch()
	return nil
}

// Confirm marks the reading ready for billing.
func (r *ServiceReading) Confirm() error {
	if _, err := r.Consumption(); err != nil {
		return err
	}
	r.Confirmed = true
	r.Touch()
	return nil
}

// AttachEvidence appends an evidence image reference.
func (r *ServiceReading) AttachEvidence(ref string) {
	if ref == "" {
		return
	}
	r.Evidence = append(r.Evidence, ref)
	r.Touch()
}
