package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhatro/backend/internal/domain/rental"
	"github.com/nhatro/backend/internal/domain/shared"
)

// ReadingService records and validates meter readings.
type ReadingService struct {
	readings  rental.ReadingRepository
	contracts rental.ContractRepository
	services  rental.ServiceRepository
	cfg       Config
	logger    *zap.Logger
}

// NewReadingService creates a ReadingService
func NewReadingService(
	readings rental.ReadingRepository,
	contracts rental.ContractRepository,
	services rental.ServiceRepository,
	cfg Config,
	logger *zap.Logger,
) *ReadingService {
	return &ReadingService{
		readings:  readings,
		contracts: contracts,
		services:  services,
		cfg:       cfg,
		logger:    logger,
	}
}

// RecordReadingRequest captures one meter reading for a contract-month. When
// OldIndex is nil the service resolves it from the previous month's confirmed
// reading, falling back to the contract's signing baseline.
type RecordReadingRequest struct {
	PropertyID    uuid.UUID
	ContractID    uuid.UUID
	ServiceID     uuid.UUID
	Month         string // "MM-YYYY"
	OldIndex      *int64
	NewIndex      int64
	IsMeterReset  bool
	MaxMeterValue int64 // 0 means the configured default
	Evidence      []string
}

// ValidateReadingRequest is a dry-run validation of a reading.
type ValidateReadingRequest struct {
	OldIndex      int64
	NewIndex      int64
	IsMeterReset  bool
	MaxMeterValue int64
}

// ValidateReadingResult reports the consumption a reading would bill.
type ValidateReadingResult struct {
	Consumption int64 `json:"consumption"`
}

// ValidateReading checks a reading without persisting anything.
func (s *ReadingService) ValidateReading(req ValidateReadingRequest) (*ValidateReadingResult, error) {
	max := req.MaxMeterValue
	if max <= 0 {
		max = s.cfg.DefaultMaxMeterValue
	}
	consumption, err := rental.Consumption(req.OldIndex, req.NewIndex, req.IsMeterReset, max)
	if err != nil {
		return nil, err
	}
	return &ValidateReadingResult{Consumption: consumption}, nil
}

// RecordReading creates or corrects the reading for one contract, service
// and month. Re-submitting for the same month corrects the new index of the
// unconfirmed reading instead of creating a duplicate.
func (s *ReadingService) RecordReading(ctx context.Context, req RecordReadingRequest) (*rental.ServiceReading, error) {
	month, err := rental.ParseBillingMonth(req.Month)
	if err != nil {
		return nil, err
	}

	contract, err := s.contracts.FindByID(ctx, req.ContractID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	// A contract of another property is reported as missing so its
	// existence does not leak across properties.
	if contract == nil || contract.PropertyID != req.PropertyID {
		return nil, shared.NewDomainError("NOT_FOUND", "Contract not found")
	}
	service, err := s.services.FindByID(ctx, req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load service: %w", err)
	}
	if service == nil || service.PropertyID != req.PropertyID {
		return nil, shared.NewDomainError("NOT_FOUND", "Service not found")
	}
	if !service.IsMetered() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Readings only apply to metered services")
	}

	existing, err := s.readings.FindByContractServiceMonth(ctx, req.ContractID, req.ServiceID, month)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing reading: %w", err)
	}
	if existing != nil {
		if err := existing.CorrectNewIndex(req.NewIndex, req.IsMeterReset); err != nil {
			return nil, err
		}
		for _, ref := range req.Evidence {
			existing.AttachEvidence(ref)
		}
		if err := s.readings.Save(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to save reading: %w", err)
		}
		s.logger.Info("meter reading corrected",
			zap.String("contract_id", req.ContractID.String()),
			zap.String("service_id", req.ServiceID.String()),
			zap.String("month", month.String()),
			zap.Int64("new_index", req.NewIndex))
		return existing, nil
	}

	oldIndex, err := s.resolveOldIndex(ctx, req, contract, month)
	if err != nil {
		return nil, err
	}
	max := req.MaxMeterValue
	if max <= 0 {
		max = s.cfg.DefaultMaxMeterValue
	}

	reading, err := rental.NewServiceReading(req.ContractID, req.ServiceID, month, oldIndex, req.NewIndex, req.IsMeterReset, max)
	if err != nil {
		return nil, err
	}
	for _, ref := range req.Evidence {
		reading.AttachEvidence(ref)
	}
	if err := s.readings.Save(ctx, reading); err != nil {
		return nil, fmt.Errorf("failed to save reading: %w", err)
	}
	s.logger.Info("meter reading recorded",
		zap.String("contract_id", req.ContractID.String()),
		zap.String("service_id", req.ServiceID.String()),
		zap.String("month", month.String()),
		zap.Int64("old_index", oldIndex),
		zap.Int64("new_index", req.NewIndex))
	return reading, nil
}

// ConfirmReading freezes a reading for billing. Readings of another
// property's contracts are reported as missing.
func (s *ReadingService) ConfirmReading(ctx context.Context, propertyID, readingID uuid.UUID) (*rental.ServiceReading, error) {
	reading, err := s.readings.FindByID(ctx, readingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reading: %w", err)
	}
	if reading == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Reading not found")
	}
	contract, err := s.contracts.FindByID(ctx, reading.ContractID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	if contract == nil || contract.PropertyID != propertyID {
		return nil, shared.NewDomainError("NOT_FOUND", "Reading not found")
	}
	if err := reading.Confirm(); err != nil {
		return nil, err
	}
	if err := s.readings.Save(ctx, reading); err != nil {
		return nil, fmt.Errorf("failed to save reading: %w", err)
	}
	return reading, nil
}

// resolveOldIndex chains months together: last month's confirmed new index
// becomes this month's old index, and the first month starts from the
// contract's signing baseline.
func (s *ReadingService) resolveOldIndex(
	ctx context.Context,
	req RecordReadingRequest,
	contract *rental.Contract,
	month rental.BillingMonth,
) (int64, error) {
	if req.OldIndex != nil {
		return *req.OldIndex, nil
	}

	prev, err := s.readings.FindByContractServiceMonth(ctx, req.ContractID, req.ServiceID, month.Prev())
	if err != nil {
		return 0, fmt.Errorf("failed to look up previous reading: %w", err)
	}
	if prev != nil && prev.Confirmed {
		return prev.NewIndex, nil
	}
	if baseline, ok := contract.InitialIndex(req.ServiceID); ok {
		return baseline, nil
	}
	return 0, shared.NewDomainError("INVALID_INPUT",
		"Old index is required: no previous reading or contract baseline exists")
}
