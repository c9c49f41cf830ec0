package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nhatro/backend/internal/domain/rental"
	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
)

// InvoiceStatus represents the lifecycle of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "DRAFT"   // generated, not yet issued to the tenant
	InvoiceStatusPending InvoiceStatus = "PENDING" // issued, no payment yet
	InvoiceStatusPartial InvoiceStatus = "PARTIAL" // some payment received
	InvoiceStatusPaid    InvoiceStatus = "PAID"    // fully settled
)

// IsValid checks if the status is a known one
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusPending, InvoiceStatusPartial, InvoiceStatusPaid:
		return true
	}
	return false
}

// PaymentMethod is how a payment was received.
type PaymentMethod string

const (
	PaymentMethodCash    PaymentMethod = "CASH"
	PaymentMethodBank    PaymentMethod = "BANK"
	PaymentMethodMomo    PaymentMethod = "MOMO"
	PaymentMethodZaloPay PaymentMethod = "ZALOPAY"
	PaymentMethodOther   PaymentMethod = "OTHER"
)

// IsValid checks if the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBank, PaymentMethodMomo, PaymentMethodZaloPay, PaymentMethodOther:
		return true
	}
	return false
}

// PaymentRecord is one payment applied to an invoice.
type PaymentRecord struct {
	ID             uuid.UUID       `json:"id"`
	Amount         decimal.Decimal `json:"amount"`
	Method         PaymentMethod   `json:"method"`
	PaidAt         time.Time       `json:"paid_at"`
	Note           string          `json:"note,omitempty"`
	RecordedBy     *uuid.UUID      `json:"recorded_by,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// PaymentRecords is the payment history of an invoice, stored as JSONB.
type PaymentRecords []PaymentRecord

// Value implements driver.Valuer for JSONB storage
func (p PaymentRecords) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB retrieval
func (p *PaymentRecords) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentRecords{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan PaymentRecords: unsupported type")
	}
	if len(bytes) == 0 {
		*p = PaymentRecords{}
		return nil
	}
	return json.Unmarshal(bytes, p)
}

// Invoice is the monthly bill for one contract. Exactly one invoice exists
// per (contract, month); regeneration rewrites the line items of the same
// aggregate instead of creating a sibling.
type Invoice struct {
	shared.PropertyAggregateRoot
	Code        string              `json:"code"`
	ContractID  uuid.UUID           `json:"contract_id"`
	RoomID      uuid.UUID           `json:"room_id"`
	Month       rental.BillingMonth `json:"month"`
	LineItems   LineItems           `json:"line_items"`
	Discount    decimal.Decimal     `json:"discount"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	PaidAmount  decimal.Decimal     `json:"paid_amount"`
	Status      InvoiceStatus       `json:"status"`
	DueDate     time.Time           `json:"due_date"`
	Payments    PaymentRecords      `json:"payments"`
	Note        string              `json:"note,omitempty"`
}

// NewInvoice creates a draft invoice with no lines yet.
func NewInvoice(
	propertyID uuid.UUID,
	contractID uuid.UUID,
	roomID uuid.UUID,
	month rental.BillingMonth,
	code string,
) (*Invoice, error) {
	if propertyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Property ID cannot be empty")
	}
	if contractID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Contract ID cannot be empty")
	}
	if month.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Billing month is required")
	}
	if code == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice code cannot be empty")
	}

	inv := &Invoice{
		PropertyAggregateRoot: shared.NewPropertyAggregateRoot(propertyID),
		Code:                  code,
		ContractID:            contractID,
		RoomID:                roomID,
		Month:                 month,
		LineItems:             LineItems{},
		Discount:              decimal.Zero,
		TotalAmount:           decimal.Zero,
		PaidAmount:            decimal.Zero,
		Status:                InvoiceStatusDraft,
		Payments:              PaymentRecords{},
	}
	inv.AddDomainEvent(NewInvoiceGeneratedEvent(inv))
	return inv, nil
}

// ReplaceLines swaps the full line set, keeping payment history. This is the
// regeneration path: readings or extras changed and the bill is recomputed.
// A paid invoice is a settled document and must never change.
func (i *Invoice) ReplaceLines(items LineItems, discount decimal.Decimal) error {
	if i.Status == InvoiceStatusPaid {
		return shared.ErrInvoiceImmutable
	}
	if discount.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Discount cannot be negative")
	}
	if items == nil {
		items = LineItems{}
	}
	i.LineItems = items
	i.Discount = discount
	i.TotalAmount = items.Total()
	i.refreshStatus()
	i.Touch()
	i.IncrementVersion()
	return nil
}

// Finalize issues a draft invoice to the tenant.
func (i *Invoice) Finalize(dueDate time.Time) error {
	if i.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only a draft invoice can be finalized")
	}
	i.Status = InvoiceStatusPending
	i.DueDate = dueDate
	i.Touch()
	i.IncrementVersion()
	i.AddDomainEvent(NewInvoiceFinalizedEvent(i))
	return nil
}

// ApplyPayment records a payment and re-derives the status. The paid amount
// only ever grows; overpayment is accepted and kept visible rather than
// silently capped.
func (i *Invoice) ApplyPayment(
	amount decimal.Decimal,
	method PaymentMethod,
	paidAt time.Time,
	note string,
	recordedBy *uuid.UUID,
	idempotencyKey string,
) (*PaymentRecord, error) {
	if !amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown payment method: "+string(method))
	}
	if i.Status == InvoiceStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot pay a draft invoice")
	}
	if i.Status == InvoiceStatusPaid {
		return nil, shared.NewDomainError("INVALID_STATE", "Invoice is already fully paid")
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	record := PaymentRecord{
		ID:             uuid.New(),
		Amount:         amount,
		Method:         method,
		PaidAt:         paidAt,
		Note:           note,
		RecordedBy:     recordedBy,
		IdempotencyKey: idempotencyKey,
	}
	i.Payments = append(i.Payments, record)
	i.PaidAmount = i.PaidAmount.Add(amount)
	i.refreshStatus()
	i.Touch()
	i.IncrementVersion()
	i.AddDomainEvent(NewPaymentRecordedEvent(i, &record))
	return &record, nil
}

// refreshStatus derives the status from paid vs total. A zero paid amount
// never moves the invoice: DRAFT and PENDING stay as they are until money
// arrives.
func (i *Invoice) refreshStatus() {
	if !i.PaidAmount.IsPositive() {
		return
	}
	if i.PaidAmount.GreaterThanOrEqual(i.TotalAmount) {
		i.Status = InvoiceStatusPaid
		return
	}
	i.Status = InvoiceStatusPartial
}

// Outstanding returns the amount still owed, never negative.
func (i *Invoice) Outstanding() decimal.Decimal {
	rest := i.TotalAmount.Sub(i.PaidAmount)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// OutstandingMoney returns the outstanding balance as Money.
func (i *Invoice) OutstandingMoney() valueobject.Money {
	return valueobject.NewMoneyVND(i.Outstanding())
}

// IsOverdue reports whether an unsettled invoice has passed its due date.
// Overdue is a view over status and time, not a stored state.
func (i *Invoice) IsOverdue(now time.Time) bool {
	if i.Status == InvoiceStatusDraft || i.Status == InvoiceStatusPaid {
		return false
	}
	if i.DueDate.IsZero() {
		return false
	}
	return now.After(i.DueDate)
}

// IsPaid reports whether the invoice is fully settled.
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}
