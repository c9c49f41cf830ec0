package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appbilling "github.com/nhatro/backend/internal/application/billing"
	"github.com/nhatro/backend/internal/interfaces/http/dto"
)

// ReadingHandler handles meter reading API endpoints
type ReadingHandler struct {
	BaseHandler
	readingService *appbilling.ReadingService
	authorizer     appbilling.Authorizer
}

// NewReadingHandler creates a new ReadingHandler
func NewReadingHandler(readingService *appbilling.ReadingService, authorizer appbilling.Authorizer) *ReadingHandler {
	return &ReadingHandler{
		readingService: readingService,
		authorizer:     authorizer,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *ReadingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	readings := rg.Group("/billing/readings")
	{
		readings.POST("/validate", h.Validate)
		readings.POST("", h.Record)
		readings.POST("/:id/confirm", h.Confirm)
	}
}

// Validate checks a reading without persisting anything
func (h *ReadingHandler) Validate(c *gin.Context) {
	if _, _, ok := h.authorizeScope(c, h.authorizer, appbilling.CapViewBilling); !ok {
		return
	}

	var req ValidateReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.readingService.ValidateReading(appbilling.ValidateReadingRequest{
		OldIndex:      *req.OldIndex,
		NewIndex:      *req.NewIndex,
		IsMeterReset:  req.IsMeterReset,
		MaxMeterValue: req.MaxMeterValue,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Record creates or corrects the reading for one contract-service-month
func (h *ReadingHandler) Record(c *gin.Context) {
	_, propertyID, ok := h.authorizeScope(c, h.authorizer, appbilling.CapManageBilling)
	if !ok {
		return
	}

	var req RecordReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	contractID, err := uuid.Parse(req.ContractID)
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}
	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		h.BadRequest(c, "Invalid service ID")
		return
	}

	reading, err := h.readingService.RecordReading(c.Request.Context(), appbilling.RecordReadingRequest{
		PropertyID:    propertyID,
		ContractID:    contractID,
		ServiceID:     serviceID,
		Month:         req.Month,
		OldIndex:      req.OldIndex,
		NewIndex:      *req.NewIndex,
		IsMeterReset:  req.IsMeterReset,
		MaxMeterValue: req.MaxMeterValue,
		Evidence:      req.Evidence,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toReadingResponse(reading))
}

// Confirm locks a reading for billing
func (h *ReadingHandler) Confirm(c *gin.Context) {
	_, propertyID, ok := h.authorizeScope(c, h.authorizer, appbilling.CapManageBilling)
	if !ok {
		return
	}

	var uriReq dto.IDRequest
	if err := c.ShouldBindUri(&uriReq); err != nil {
		h.BadRequest(c, "Invalid reading ID")
		return
	}
	readingID, err := uuid.Parse(uriReq.ID)
	if err != nil {
		h.BadRequest(c, "Invalid reading ID")
		return
	}

	reading, err := h.readingService.ConfirmReading(c.Request.Context(), propertyID, readingID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toReadingResponse(reading))
}
