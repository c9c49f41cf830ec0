package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/nhatro/backend/internal/domain/billing"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(ctx context.Context, repos billing.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := billing.TransactionalRepositories{
			Invoices:     NewGormInvoiceRepository(tx),
			Transactions: NewGormTransactionRepository(tx),
		}
		return fn(ctx, repos)
	})
}

// Ensure GormTransactionScope implements TransactionScope
var _ billing.TransactionScope = (*GormTransactionScope)(nil)
