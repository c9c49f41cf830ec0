package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/shared"
)

// LedgerService is the read side of the transaction ledger.
type LedgerService struct {
	transactions billing.TransactionRepository
	invoices     billing.InvoiceRepository
}

// NewLedgerService creates a LedgerService
func NewLedgerService(transactions billing.TransactionRepository, invoices billing.InvoiceRepository) *LedgerService {
	return &LedgerService{transactions: transactions, invoices: invoices}
}

// ListTransactions returns a property's ledger, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, propertyID uuid.UUID, limit, offset int) ([]*billing.Transaction, error) {
	txns, err := s.transactions.FindByProperty(ctx, propertyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

// ListInvoiceTransactions returns every ledger entry written for one invoice.
// Invoices of another property are reported as missing.
func (s *LedgerService) ListInvoiceTransactions(ctx context.Context, propertyID, invoiceID uuid.UUID) ([]*billing.Transaction, error) {
	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	if invoice == nil || invoice.PropertyID != propertyID {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}
	txns, err := s.transactions.FindByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoice transactions: %w", err)
	}
	return txns, nil
}
