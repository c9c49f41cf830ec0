package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nhatro/backend/internal/domain/rental"
)

// InvoiceRepository persists invoices. Single-row Find methods return nil
// without an error when no row matches.
type InvoiceRepository interface {
	Save(ctx context.Context, invoice *Invoice) error
	// SaveWithLock persists with optimistic locking: the write only succeeds
	// when the stored version matches, otherwise ErrConcurrencyConflict.
	SaveWithLock(ctx context.Context, invoice *Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByCode(ctx context.Context, code string) (*Invoice, error)
	FindByContractMonth(ctx context.Context, contractID uuid.UUID, month rental.BillingMonth) (*Invoice, error)
	FindByPropertyMonth(ctx context.Context, propertyID uuid.UUID, month rental.BillingMonth) ([]*Invoice, error)
	FindUnsettledByContract(ctx context.Context, contractID uuid.UUID) ([]*Invoice, error)
	FindPaidByProperty(ctx context.Context, propertyID uuid.UUID) ([]*Invoice, error)
	// GenerateInvoiceCode returns the next code, e.g. "INV-20260801-00042".
	GenerateInvoiceCode(ctx context.Context) (string, error)
}

// TransactionRepository persists ledger transactions. Entries are append
// only; there are no update or delete operations.
type TransactionRepository interface {
	Save(ctx context.Context, txn *Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*Transaction, error)
	FindByProperty(ctx context.Context, propertyID uuid.UUID, limit, offset int) ([]*Transaction, error)
	SumForInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)
	CountForInvoice(ctx context.Context, invoiceID uuid.UUID) (int64, error)
	// GenerateTransactionCode returns the next code with the given prefix,
	// "TXN" for organic entries and "BKF" for backfills.
	GenerateTransactionCode(ctx context.Context, prefix string) (string, error)
}

// TransactionalRepositories bundles the repositories that take part in one
// database transaction.
type TransactionalRepositories struct {
	Invoices     InvoiceRepository
	Transactions TransactionRepository
}

// TransactionScope runs a unit of work atomically. The payment path uses it
// so the invoice update and the ledger entry commit or roll back together.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(ctx context.Context, repos TransactionalRepositories) error) error
}
