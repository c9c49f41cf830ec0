package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/infrastructure/lock"
)

// PaymentService records payments against invoices. The invoice update and
// the ledger transaction are written in one database transaction: either
// both exist afterwards or neither does.
type PaymentService struct {
	scope       billing.TransactionScope
	invoices    billing.InvoiceRepository
	idempotency shared.IdempotencyStore
	idemCfg     shared.IdempotencyConfig
	locks       *lock.KeyedMutex
	events      shared.EventPublisher
	logger      *zap.Logger
}

// NewPaymentService creates a PaymentService
func NewPaymentService(
	scope billing.TransactionScope,
	invoices billing.InvoiceRepository,
	idempotency shared.IdempotencyStore,
	idemCfg shared.IdempotencyConfig,
	locks *lock.KeyedMutex,
	events shared.EventPublisher,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		scope:       scope,
		invoices:    invoices,
		idempotency: idempotency,
		idemCfg:     idemCfg,
		locks:       locks,
		events:      events,
		logger:      logger,
	}
}

// RecordPaymentRequest is one payment against one invoice. IdempotencyKey is
// client-chosen; replaying the same key returns the original outcome instead
// of double-charging.
type RecordPaymentRequest struct {
	PropertyID     uuid.UUID
	InvoiceID      uuid.UUID
	Amount         decimal.Decimal
	Method         billing.PaymentMethod
	PaidAt         time.Time
	Note           string
	IdempotencyKey string
	ActorID        *uuid.UUID
}

// RecordPaymentResult is the outcome of a payment.
type RecordPaymentResult struct {
	Invoice     *billing.Invoice
	Payment     *billing.PaymentRecord
	Transaction *billing.Transaction
	// Duplicate is true when the idempotency key was seen before and the
	// stored outcome was returned.
	Duplicate bool
}

// RecordPayment applies a payment to an invoice and writes the matching
// ledger transaction atomically.
func (s *PaymentService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*RecordPaymentResult, error) {
	if req.InvoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice ID cannot be empty")
	}

	lockKey := "payment:" + req.InvoiceID.String()
	if err := s.locks.Lock(ctx, lockKey); err != nil {
		return nil, err
	}
	defer s.locks.Unlock(lockKey)

	if req.IdempotencyKey != "" {
		seen, err := s.idempotency.IsProcessed(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
		if seen {
			return s.replayResult(ctx, req)
		}
	}

	var invoice *billing.Invoice
	var payment *billing.PaymentRecord
	var txn *billing.Transaction
	err := s.scope.Execute(ctx, func(ctx context.Context, repos billing.TransactionalRepositories) error {
		var err error
		invoice, err = repos.Invoices.FindByID(ctx, req.InvoiceID)
		if err != nil {
			return fmt.Errorf("failed to load invoice: %w", err)
		}
		if invoice == nil || invoice.PropertyID != req.PropertyID {
			return shared.NewDomainError("NOT_FOUND", "Invoice not found")
		}

		payment, err = invoice.ApplyPayment(req.Amount, req.Method, req.PaidAt, req.Note, req.ActorID, req.IdempotencyKey)
		if err != nil {
			return err
		}

		code, err := repos.Transactions.GenerateTransactionCode(ctx, "TXN")
		if err != nil {
			return fmt.Errorf("failed to generate transaction code: %w", err)
		}
		txn, err = billing.NewInvoicePaymentTransaction(code, invoice, payment)
		if err != nil {
			return err
		}
		if req.ActorID != nil {
			txn.SetCreatedBy(*req.ActorID)
		}

		if err := repos.Transactions.Save(ctx, txn); err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}
		if err := repos.Invoices.SaveWithLock(ctx, invoice); err != nil {
			return fmt.Errorf("failed to save invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Mark only after commit so a failed attempt can be retried with the
	// same key.
	if req.IdempotencyKey != "" {
		if _, err := s.idempotency.MarkProcessed(ctx, req.IdempotencyKey, s.idemCfg.TTL); err != nil {
			s.logger.Warn("failed to mark idempotency key",
				zap.String("key", req.IdempotencyKey),
				zap.Error(err))
		}
	}
	s.publishEvents(ctx, invoice)

	s.logger.Info("payment recorded",
		zap.String("invoice_code", invoice.Code),
		zap.String("transaction_code", txn.Code),
		zap.String("amount", req.Amount.String()),
		zap.String("method", string(req.Method)),
		zap.String("status", string(invoice.Status)))

	return &RecordPaymentResult{Invoice: invoice, Payment: payment, Transaction: txn}, nil
}

// replayResult reconstructs the outcome of an already processed key from the
// invoice's payment history.
func (s *PaymentService) replayResult(ctx context.Context, req RecordPaymentRequest) (*RecordPaymentResult, error) {
	invoice, err := s.invoices.FindByID(ctx, req.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	if invoice == nil || invoice.PropertyID != req.PropertyID {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}
	for i := range invoice.Payments {
		if invoice.Payments[i].IdempotencyKey == req.IdempotencyKey {
			s.logger.Info("duplicate payment request ignored",
				zap.String("invoice_code", invoice.Code),
				zap.String("key", req.IdempotencyKey))
			return &RecordPaymentResult{
				Invoice:   invoice,
				Payment:   &invoice.Payments[i],
				Duplicate: true,
			}, nil
		}
	}
	// Key marked but no matching payment on this invoice: the key was used
	// for a different invoice or the record is gone. Refuse rather than
	// guess.
	return nil, shared.NewDomainError("IDEMPOTENCY_CONFLICT",
		"Idempotency key was already used for a different request")
}

func (s *PaymentService) publishEvents(ctx context.Context, invoice *billing.Invoice) {
	if s.events == nil {
		return
	}
	for _, event := range invoice.GetDomainEvents() {
		if err := s.events.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.Error(err))
		}
	}
	invoice.ClearDomainEvents()
}
