package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nhatro/backend/internal/domain/shared"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TransactionInvoicePayment TransactionType = "INVOICE_PAYMENT"
	TransactionDeposit        TransactionType = "DEPOSIT"
	TransactionOther          TransactionType = "OTHER"
)

// IsValid checks if the transaction type is known
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionInvoicePayment, TransactionDeposit, TransactionOther:
		return true
	}
	return false
}

// TransactionSource records how the entry came to exist.
type TransactionSource string

const (
	// SourceOrganic means the entry was written together with the payment.
	SourceOrganic TransactionSource = "ORGANIC"
	// SourceBackfill means reconciliation created the entry after the fact.
	SourceBackfill TransactionSource = "BACKFILL"
)

// Transaction is one immutable entry in the money ledger. Entries are never
// updated or deleted; a mistake is corrected by a compensating entry.
type Transaction struct {
	shared.PropertyAggregateRoot
	Code       string            `json:"code"`
	Type       TransactionType   `json:"type"`
	Source     TransactionSource `json:"source"`
	Amount     decimal.Decimal   `json:"amount"`
	Method     PaymentMethod     `json:"method"`
	Date       time.Time         `json:"date"`
	ContractID *uuid.UUID        `json:"contract_id,omitempty"`
	InvoiceID  *uuid.UUID        `json:"invoice_id,omitempty"`
	PaymentID  *uuid.UUID        `json:"payment_id,omitempty"`
	Note       string            `json:"note,omitempty"`
}

// NewInvoicePaymentTransaction writes the ledger entry for one payment.
func NewInvoicePaymentTransaction(
	code string,
	inv *Invoice,
	record *PaymentRecord,
) (*Transaction, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Transaction code cannot be empty")
	}
	if inv == nil || record == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice and payment record are required")
	}
	if !record.Amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}

	invoiceID := inv.ID
	contractID := inv.ContractID
	paymentID := record.ID
	return &Transaction{
		PropertyAggregateRoot: shared.NewPropertyAggregateRoot(inv.PropertyID),
		Code:                  code,
		Type:                  TransactionInvoicePayment,
		Source:                SourceOrganic,
		Amount:                record.Amount,
		Method:                record.Method,
		Date:                  record.PaidAt,
		ContractID:            &contractID,
		InvoiceID:             &invoiceID,
		PaymentID:             &paymentID,
		Note:                  record.Note,
	}, nil
}

// NewBackfillTransaction writes the ledger entry reconciliation creates for a
// paid invoice whose payments never reached the ledger. The date is taken
// from the invoice's last change because the original payment time is gone.
func NewBackfillTransaction(
	code string,
	inv *Invoice,
	amount decimal.Decimal,
) (*Transaction, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Transaction code cannot be empty")
	}
	if inv == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice is required")
	}
	if !amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}

	invoiceID := inv.ID
	contractID := inv.ContractID
	txn := &Transaction{
		PropertyAggregateRoot: shared.NewPropertyAggregateRoot(inv.PropertyID),
		Code:                  code,
		Type:                  TransactionInvoicePayment,
		Source:                SourceBackfill,
		Amount:                amount,
		Method:                PaymentMethodOther,
		Date:                  inv.UpdatedAt,
		ContractID:            &contractID,
		InvoiceID:             &invoiceID,
		Note:                  "Backfilled from paid invoice " + inv.Code,
	}
	txn.AddDomainEvent(NewTransactionBackfilledEvent(txn, inv.Code))
	return txn, nil
}
