package billing

import (
	"github.com/shopspring/decimal"

	"github.com/nhatro/backend/internal/domain/shared"
)

// Event types for the billing domain
const (
	EventInvoiceGenerated      = "billing.invoice.generated"
	EventInvoiceFinalized      = "billing.invoice.finalized"
	EventPaymentRecorded       = "billing.payment.recorded"
	EventTransactionBackfilled = "billing.transaction.backfilled"
)

// InvoiceGeneratedEvent fires when a draft invoice is created for a month.
type InvoiceGeneratedEvent struct {
	shared.BaseDomainEvent
	InvoiceCode string          `json:"invoice_code"`
	ContractID  string          `json:"contract_id"`
	Month       string          `json:"month"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewInvoiceGeneratedEvent creates an InvoiceGeneratedEvent
func NewInvoiceGeneratedEvent(inv *Invoice) *InvoiceGeneratedEvent {
	return &InvoiceGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventInvoiceGenerated, "Invoice", inv.ID, inv.PropertyID),
		InvoiceCode:     inv.Code,
		ContractID:      inv.ContractID.String(),
		Month:           inv.Month.String(),
		TotalAmount:     inv.TotalAmount,
	}
}

// InvoiceFinalizedEvent fires when a draft invoice is issued to the tenant.
type InvoiceFinalizedEvent struct {
	shared.BaseDomainEvent
	InvoiceCode string          `json:"invoice_code"`
	Month       string          `json:"month"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	DueDate     string          `json:"due_date"`
}

// NewInvoiceFinalizedEvent creates an InvoiceFinalizedEvent
func NewInvoiceFinalizedEvent(inv *Invoice) *InvoiceFinalizedEvent {
	return &InvoiceFinalizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventInvoiceFinalized, "Invoice", inv.ID, inv.PropertyID),
		InvoiceCode:     inv.Code,
		Month:           inv.Month.String(),
		TotalAmount:     inv.TotalAmount,
		DueDate:         inv.DueDate.Format("2006-01-02"),
	}
}

// PaymentRecordedEvent fires for every payment applied to an invoice.
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	InvoiceCode string          `json:"invoice_code"`
	PaymentID   string          `json:"payment_id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      PaymentMethod   `json:"method"`
	NewStatus   InvoiceStatus   `json:"new_status"`
}

// NewPaymentRecordedEvent creates a PaymentRecordedEvent
func NewPaymentRecordedEvent(inv *Invoice, record *PaymentRecord) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPaymentRecorded, "Invoice", inv.ID, inv.PropertyID),
		InvoiceCode:     inv.Code,
		PaymentID:       record.ID.String(),
		Amount:          record.Amount,
		Method:          record.Method,
		NewStatus:       inv.Status,
	}
}

// TransactionBackfilledEvent fires when reconciliation creates a ledger
// transaction for a paid invoice that was missing one.
type TransactionBackfilledEvent struct {
	shared.BaseDomainEvent
	TransactionCode string          `json:"transaction_code"`
	InvoiceCode     string          `json:"invoice_code"`
	Amount          decimal.Decimal `json:"amount"`
}

// NewTransactionBackfilledEvent creates a TransactionBackfilledEvent
func NewTransactionBackfilledEvent(txn *Transaction, invoiceCode string) *TransactionBackfilledEvent {
	return &TransactionBackfilledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTransactionBackfilled, "Transaction", txn.ID, txn.PropertyID),
		TransactionCode: txn.Code,
		InvoiceCode:     invoiceCode,
		Amount:          txn.Amount,
	}
}
