package billing

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/shared"
)

// ReconciliationService repairs the ledger: every paid invoice must have at
// least one transaction, and historical data predating the ledger does not.
// The job scans paid invoices and backfills a transaction for the paid
// amount where none exists. It never touches invoices and never creates a
// second transaction for an invoice that already has one.
type ReconciliationService struct {
	invoices billing.InvoiceRepository
	scope    billing.TransactionScope
	events   shared.EventPublisher
	logger   *zap.Logger
	running  atomic.Bool
}

// NewReconciliationService creates a ReconciliationService
func NewReconciliationService(
	invoices billing.InvoiceRepository,
	scope billing.TransactionScope,
	events shared.EventPublisher,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		invoices: invoices,
		scope:    scope,
		events:   events,
		logger:   logger,
	}
}

// ReconciliationReport summarizes one run.
type ReconciliationReport struct {
	Checked    int      `json:"checked"`
	Backfilled int      `json:"backfilled"`
	Skipped    int      `json:"skipped"`
	Failed     []string `json:"failed,omitempty"`
}

// Reconcile backfills ledger transactions for all paid invoices of a
// property. Only one run may be active at a time.
func (s *ReconciliationService) Reconcile(ctx context.Context, propertyID uuid.UUID) (*ReconciliationReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, shared.NewDomainError("RECONCILE_RUNNING", "A reconciliation run is already in progress")
	}
	defer s.running.Store(false)

	paid, err := s.invoices.FindPaidByProperty(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load paid invoices: %w", err)
	}

	report := &ReconciliationReport{}
	for _, invoice := range paid {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Checked++

		backfilled, err := s.reconcileOne(ctx, invoice)
		if err != nil {
			report.Failed = append(report.Failed, invoice.Code)
			s.logger.Error("failed to reconcile invoice",
				zap.String("invoice_code", invoice.Code),
				zap.Error(err))
			continue
		}
		if backfilled {
			report.Backfilled++
		} else {
			report.Skipped++
		}
	}

	s.logger.Info("reconciliation finished",
		zap.String("property_id", propertyID.String()),
		zap.Int("checked", report.Checked),
		zap.Int("backfilled", report.Backfilled),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", len(report.Failed)))
	return report, nil
}

// reconcileOne backfills one invoice inside its own database transaction.
// The existence check runs again inside the transaction so a concurrent
// payment cannot slip a duplicate in.
func (s *ReconciliationService) reconcileOne(ctx context.Context, invoice *billing.Invoice) (bool, error) {
	var backfilled bool
	err := s.scope.Execute(ctx, func(ctx context.Context, repos billing.TransactionalRepositories) error {
		count, err := repos.Transactions.CountForInvoice(ctx, invoice.ID)
		if err != nil {
			return fmt.Errorf("failed to count transactions: %w", err)
		}
		if count > 0 {
			return nil
		}
		if !invoice.PaidAmount.IsPositive() {
			return nil
		}

		code, err := repos.Transactions.GenerateTransactionCode(ctx, "BKF")
		if err != nil {
			return fmt.Errorf("failed to generate transaction code: %w", err)
		}
		txn, err := billing.NewBackfillTransaction(code, invoice, invoice.TotalAmount)
		if err != nil {
			return err
		}
		if err := repos.Transactions.Save(ctx, txn); err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}

		if s.events != nil {
			for _, event := range txn.GetDomainEvents() {
				if err := s.events.Publish(ctx, event); err != nil {
					s.logger.Warn("failed to publish domain event",
						zap.String("event_type", event.EventType()),
						zap.Error(err))
				}
			}
			txn.ClearDomainEvents()
		}

		backfilled = true
		s.logger.Info("ledger transaction backfilled",
			zap.String("invoice_code", invoice.Code),
			zap.String("transaction_code", txn.Code),
			zap.String("amount", txn.Amount.String()))
		return nil
	})
	return backfilled, err
}
