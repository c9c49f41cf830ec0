package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/rental"
	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/infrastructure/lock"
)

// InvoiceService generates and refreshes monthly invoices. Generation is
// idempotent per contract-month: the first call creates the invoice, later
// calls rewrite its lines from current readings and extras, and a paid
// invoice refuses any further change.
type InvoiceService struct {
	invoices  billing.InvoiceRepository
	contracts rental.ContractRepository
	services  rental.ServiceRepository
	readings  rental.ReadingRepository
	rooms     rental.RoomDirectory
	builder   *billing.LineItemBuilder
	locks     *lock.KeyedMutex
	events    shared.EventPublisher
	cfg       Config
	logger    *zap.Logger
}

// NewInvoiceService creates an InvoiceService
func NewInvoiceService(
	invoices billing.InvoiceRepository,
	contracts rental.ContractRepository,
	services rental.ServiceRepository,
	readings rental.ReadingRepository,
	rooms rental.RoomDirectory,
	locks *lock.KeyedMutex,
	events shared.EventPublisher,
	cfg Config,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoices:  invoices,
		contracts: contracts,
		services:  services,
		readings:  readings,
		rooms:     rooms,
		builder:   billing.NewLineItemBuilder(),
		locks:     locks,
		events:    events,
		cfg:       cfg,
		logger:    logger,
	}
}

// ExtraInput is an operator-supplied ad hoc non-negative charge.
type ExtraInput struct {
	Name   string
	Amount decimal.Decimal
	Note   string
}

// GenerateInvoiceRequest asks for the invoice of one contract-month.
type GenerateInvoiceRequest struct {
	PropertyID uuid.UUID
	ContractID uuid.UUID
	Month      string // "MM-YYYY"
	Extras     []ExtraInput
	Discount   decimal.Decimal
	// Finalize issues the invoice immediately instead of leaving it a draft.
	Finalize bool
	ActorID  *uuid.UUID
}

// GenerateInvoiceResult is the generated or refreshed invoice plus what the
// builder could not bill yet.
type GenerateInvoiceResult struct {
	Invoice         *billing.Invoice
	PendingServices []string
}

// GenerateInvoice creates or refreshes the invoice for one contract-month.
func (s *InvoiceService) GenerateInvoice(ctx context.Context, req GenerateInvoiceRequest) (*GenerateInvoiceResult, error) {
	month, err := rental.ParseBillingMonth(req.Month)
	if err != nil {
		return nil, err
	}

	lockKey := "invoice:" + req.ContractID.String() + ":" + month.String()
	if err := s.locks.Lock(ctx, lockKey); err != nil {
		return nil, err
	}
	defer s.locks.Unlock(lockKey)

	contract, err := s.contracts.FindByID(ctx, req.ContractID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	// A contract of another property is reported as missing so its
	// existence does not leak across properties.
	if contract == nil || contract.PropertyID != req.PropertyID {
		return nil, shared.NewDomainError("NOT_FOUND", "Contract not found")
	}

	existing, err := s.invoices.FindByContractMonth(ctx, req.ContractID, month)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing invoice: %w", err)
	}
	if existing != nil && existing.IsPaid() {
		return nil, shared.ErrInvoiceImmutable
	}

	input, err := s.collectBuildInput(ctx, contract, month, req)
	if err != nil {
		return nil, err
	}
	built, err := s.builder.Build(*input)
	if err != nil {
		return nil, err
	}

	invoice := existing
	if invoice == nil {
		code, err := s.invoices.GenerateInvoiceCode(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to generate invoice code: %w", err)
		}
		invoice, err = billing.NewInvoice(contract.PropertyID, contract.ID, contract.RoomID, month, code)
		if err != nil {
			return nil, err
		}
		if req.ActorID != nil {
			invoice.SetCreatedBy(*req.ActorID)
		}
	}

	if err := invoice.ReplaceLines(built.Items, built.AppliedDiscount); err != nil {
		return nil, err
	}
	if req.Finalize && invoice.Status == billing.InvoiceStatusDraft {
		if err := invoice.Finalize(s.dueDate(month)); err != nil {
			return nil, err
		}
	}

	if existing == nil {
		err = s.invoices.Save(ctx, invoice)
	} else {
		err = s.invoices.SaveWithLock(ctx, invoice)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}
	s.publishEvents(ctx, invoice)

	s.logger.Info("invoice generated",
		zap.String("invoice_code", invoice.Code),
		zap.String("contract_id", contract.ID.String()),
		zap.String("month", month.String()),
		zap.String("total", invoice.TotalAmount.String()),
		zap.Bool("refreshed", existing != nil))

	return &GenerateInvoiceResult{Invoice: invoice, PendingServices: built.PendingServices}, nil
}

// FinalizeInvoice issues a draft invoice to the tenant.
func (s *InvoiceService) FinalizeInvoice(ctx context.Context, invoiceID uuid.UUID) (*billing.Invoice, error) {
	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	if invoice == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}
	if err := invoice.Finalize(s.dueDate(invoice.Month)); err != nil {
		return nil, err
	}
	if err := s.invoices.SaveWithLock(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}
	s.publishEvents(ctx, invoice)
	return invoice, nil
}

// GetInvoice loads one invoice.
func (s *InvoiceService) GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*billing.Invoice, error) {
	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	if invoice == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}
	return invoice, nil
}

// ListInvoices returns all invoices of a property for one month.
func (s *InvoiceService) ListInvoices(ctx context.Context, propertyID uuid.UUID, monthStr string) ([]*billing.Invoice, error) {
	month, err := rental.ParseBillingMonth(monthStr)
	if err != nil {
		return nil, err
	}
	return s.invoices.FindByPropertyMonth(ctx, propertyID, month)
}

// collectBuildInput loads everything the line item builder needs.
func (s *InvoiceService) collectBuildInput(
	ctx context.Context,
	contract *rental.Contract,
	month rental.BillingMonth,
	req GenerateInvoiceRequest,
) (*billing.BuildInput, error) {
	activeServices, err := s.services.FindActiveByProperty(ctx, contract.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load services: %w", err)
	}
	readings, err := s.readings.FindConfirmedByContractMonth(ctx, contract.ID, month)
	if err != nil {
		return nil, fmt.Errorf("failed to load readings: %w", err)
	}

	occupants := 0
	for _, svc := range activeServices {
		if svc.Kind == rental.ServiceKindFixed && svc.Basis == rental.CalcBasisPerPerson {
			occupants, err = s.rooms.OccupantCount(ctx, contract.RoomID)
			if err != nil {
				return nil, fmt.Errorf("failed to load occupant count: %w", err)
			}
			break
		}
	}

	priorDebt, err := s.priorDebt(ctx, contract.ID, month)
	if err != nil {
		return nil, err
	}

	extras := make([]billing.ExtraCharge, 0, len(req.Extras))
	for _, e := range req.Extras {
		extras = append(extras, billing.ExtraCharge{Name: e.Name, Amount: e.Amount, Note: e.Note})
	}

	return &billing.BuildInput{
		Contract:          contract,
		Month:             month,
		Services:          activeServices,
		Readings:          readings,
		OccupantCount:     occupants,
		Extras:            extras,
		PriorDebt:         priorDebt,
		Discount:          req.Discount,
		MandatoryServices: s.cfg.MandatoryServices,
	}, nil
}

// priorDebt sums the outstanding balance of older unsettled invoices so the
// new bill carries it forward as a DEBT line.
func (s *InvoiceService) priorDebt(ctx context.Context, contractID uuid.UUID, month rental.BillingMonth) (decimal.Decimal, error) {
	unsettled, err := s.invoices.FindUnsettledByContract(ctx, contractID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load unsettled invoices: %w", err)
	}
	debt := decimal.Zero
	for _, inv := range unsettled {
		if inv.Status == billing.InvoiceStatusDraft {
			continue
		}
		if !inv.Month.Start().Before(month.Start()) {
			continue
		}
		debt = debt.Add(inv.Outstanding())
	}
	return debt, nil
}

func (s *InvoiceService) dueDate(month rental.BillingMonth) time.Time {
	return month.End().AddDate(0, 0, s.cfg.DueDayOffset)
}

func (s *InvoiceService) publishEvents(ctx context.Context, invoice *billing.Invoice) {
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
