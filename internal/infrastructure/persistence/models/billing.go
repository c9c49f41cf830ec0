package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/rental"
	"github.com/nhatro/backend/internal/domain/shared"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
// Line items and payment history are JSONB snapshots so the bill survives
// later price changes unchanged.
type InvoiceModel struct {
	PropertyAggregateModel
	Code        string                 `gorm:"type:varchar(30);not null;uniqueIndex"`
	ContractID  uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_invoice_contract_month,priority:1"`
	RoomID      uuid.UUID              `gorm:"type:uuid;not null;index"`
	Month       string                 `gorm:"type:varchar(7);not null;uniqueIndex:idx_invoice_contract_month,priority:2;index"`
	LineItems   billing.LineItems      `gorm:"type:jsonb;default:'[]'"`
	Discount    decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	TotalAmount decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	PaidAmount  decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	Status      billing.InvoiceStatus  `gorm:"type:varchar(10);not null;default:'DRAFT';index"`
	DueDate     *time.Time             `gorm:"index"`
	Payments    billing.PaymentRecords `gorm:"type:jsonb;default:'[]'"`
	Note        string                 `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() (*billing.Invoice, error) {
	month, err := rental.ParseBillingMonth(m.Month)
	if err != nil {
		return nil, shared.NewDomainError("DATA_CORRUPTION", "Stored invoice month is invalid: "+m.Month)
	}
	inv := &billing.Invoice{
		PropertyAggregateRoot: m.ToDomainPropertyAggregateRoot(),
		Code:                  m.Code,
		ContractID:            m.ContractID,
		RoomID:                m.RoomID,
		Month:                 month,
		LineItems:             m.LineItems,
		Discount:              m.Discount,
		TotalAmount:           m.TotalAmount,
		PaidAmount:            m.PaidAmount,
		Status:                m.Status,
		Payments:              m.Payments,
		Note:                  m.Note,
	}
	if m.DueDate != nil {
		inv.DueDate = *m.DueDate
	}
	return inv, nil
}

// FromDomain populates the persistence model from a domain Invoice.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainPropertyAggregateRoot(inv.PropertyAggregateRoot)
	m.Code = inv.Code
	m.ContractID = inv.ContractID
	m.RoomID = inv.RoomID
	m.Month = inv.Month.String()
	m.LineItems = inv.LineItems
	m.Discount = inv.Discount
	m.TotalAmount = inv.TotalAmount
	m.PaidAmount = inv.PaidAmount
	m.Status = inv.Status
	if inv.DueDate.IsZero() {
		m.DueDate = nil
	} else {
		due := inv.DueDate
		m.DueDate = &due
	}
	m.Payments = inv.Payments
	m.Note = inv.Note
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// TransactionModel is the persistence model for the Transaction aggregate.
// Rows are append only.
type TransactionModel struct {
	PropertyAggregateModel
	Code       string                    `gorm:"type:varchar(30);not null;uniqueIndex"`
	Type       billing.TransactionType   `gorm:"type:varchar(20);not null;index"`
	Source     billing.TransactionSource `gorm:"type:varchar(10);not null;index"`
	Amount     decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	Method     billing.PaymentMethod     `gorm:"type:varchar(10);not null"`
	Date       time.Time                 `gorm:"not null;index"`
	ContractID *uuid.UUID                `gorm:"type:uuid;index"`
	InvoiceID  *uuid.UUID                `gorm:"type:uuid;index"`
	PaymentID  *uuid.UUID                `gorm:"type:uuid"`
	Note       string                    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction.
func (m *TransactionModel) ToDomain() *billing.Transaction {
	return &billing.Transaction{
		PropertyAggregateRoot: m.ToDomainPropertyAggregateRoot(),
		Code:                  m.Code,
		Type:                  m.Type,
		Source:                m.Source,
		Amount:                m.Amount,
		Method:                m.Method,
		Date:                  m.Date,
		ContractID:            m.ContractID,
		InvoiceID:             m.InvoiceID,
		PaymentID:             m.PaymentID,
		Note:                  m.Note,
	}
}

// FromDomain populates the persistence model from a domain Transaction.
func (m *TransactionModel) FromDomain(t *billing.Transaction) {
	m.FromDomainPropertyAggregateRoot(t.PropertyAggregateRoot)
	m.Code = t.Code
	m.Type = t.Type
	m.Source = t.Source
	m.Amount = t.Amount
	m.Method = t.Method
	m.Date = t.Date
	m.ContractID = t.ContractID
	m.InvoiceID = t.InvoiceID
	m.PaymentID = t.PaymentID
	m.Note = t.Note
}

// TransactionModelFromDomain creates a new persistence model from a domain Transaction.
func TransactionModelFromDomain(t *billing.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(t)
	return m
}

// AllModels lists every persistence model for migration.
func AllModels() []any {
	return []any{
		&RoomModel{},
		&ContractModel{},
		&ServiceModel{},
		&ServiceReadingModel{},
		&InvoiceModel{},
		&TransactionModel{},
	}
}
