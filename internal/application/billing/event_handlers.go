package billing

import (
	"context"

	"go.uber.org/zap"

	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/shared"
)

// BillingAuditHandler writes an audit trail entry for every billing event.
// It subscribes to all billing event types; the log is the landlord's answer
// to "who changed this bill and when".
type BillingAuditHandler struct {
	logger *zap.Logger
}

// NewBillingAuditHandler creates a BillingAuditHandler
func NewBillingAuditHandler(logger *zap.Logger) *BillingAuditHandler {
	return &BillingAuditHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *BillingAuditHandler) EventTypes() []string {
	return []string{
		billing.EventInvoiceGenerated,
		billing.EventInvoiceFinalized,
		billing.EventPaymentRecorded,
		billing.EventTransactionBackfilled,
	}
}

// Handle logs the event with its aggregate context
func (h *BillingAuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("property_id", event.PropertyID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *billing.InvoiceGeneratedEvent:
		fields = append(fields,
			zap.String("invoice_code", e.InvoiceCode),
			zap.String("month", e.Month),
			zap.String("total_amount", e.TotalAmount.String()),
		)
	case *billing.InvoiceFinalizedEvent:
		fields = append(fields,
			zap.String("invoice_code", e.InvoiceCode),
			zap.String("due_date", e.DueDate),
		)
	case *billing.PaymentRecordedEvent:
		fields = append(fields,
			zap.String("invoice_code", e.InvoiceCode),
			zap.String("payment_id", e.PaymentID),
			zap.String("amount", e.Amount.String()),
			zap.String("new_status", string(e.NewStatus)),
		)
	case *billing.TransactionBackfilledEvent:
		fields = append(fields,
			zap.String("transaction_code", e.TransactionCode),
			zap.String("invoice_code", e.InvoiceCode),
			zap.String("amount", e.Amount.String()),
		)
	}

	h.logger.Info("billing event", fields...)
	return nil
}

// Ensure BillingAuditHandler implements EventHandler
var _ shared.EventHandler = (*BillingAuditHandler)(nil)
