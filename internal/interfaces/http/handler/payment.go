package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appbilling "github.com/nhatro/backend/internal/application/billing"
	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/interfaces/http/dto"
)

// PaymentHandler handles payment and ledger API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *appbilling.PaymentService
	ledgerService  *appbilling.LedgerService
	authorizer     appbilling.Authorizer
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(
	paymentService *appbilling.PaymentService,
	ledgerService *appbilling.LedgerService,
	authorizer appbilling.Authorizer,
) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		ledgerService:  ledgerService,
		authorizer:     authorizer,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/billing")
	{
		group.POST("/invoices/:id/payments", h.Record)
		group.GET("/invoices/:id/transactions", h.ListForInvoice)
		group.GET("/transactions", h.List)
	}
}

// Record applies a payment to an invoice
func (h *PaymentHandler) Record(c *gin.Context) {
	userID, propertyID, ok := h.authorizeScope(c, h.authorizer, appbilling.CapRecordPayment)
	if !ok {
		return
	}

	var uriReq dto.IDRequest
	if err := c.ShouldBindUri(&uriReq); err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}
	invoiceID, err := uuid.Parse(uriReq.ID)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	paidAt := time.Now()
	if req.PaidAt != "" {
		paidAt, err = time.Parse(time.RFC3339, req.PaidAt)
		if err != nil {
			h.BadRequest(c, "Invalid paid_at timestamp, expected RFC3339")
			return
		}
	}

	result, err := h.paymentService.RecordPayment(c.Request.Context(), appbilling.RecordPaymentRequest{
		PropertyID:     propertyID,
		InvoiceID:      invoiceID,
		Amount:         decimal.NewFromFloat(req.Amount),
		Method:         billing.PaymentMethod(req.Method),
		PaidAt:         paidAt,
		Note:           req.Note,
		IdempotencyKey: req.IdempotencyKey,
		ActorID:        &userID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	resp := RecordPaymentResponse{
		Invoice:   toInvoiceResponse(result.Invoice),
		Duplicate: result.Duplicate,
	}
	if result.Payment != nil {
		p := toPaymentRecordResponse(*result.Payment)
		resp.Payment = &p
	}
	if result.Transaction != nil {
		t := toTransactionResponse(result.Transaction)
		resp.Transaction = &t
	}

	h.Created(c, resp)
}

// List returns the caller's ledger, newest first
func (h *PaymentHandler) List(c *gin.Context) {
	_, propertyID, ok := h.authorizeScope(c, h.authorizer, appbilling.CapViewBilling)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	txns, err := h.ledgerService.ListTransactions(c.Request.Context(), propertyID, limit, offset)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toTransactionResponses(txns))
}

// ListForInvoice returns every ledger entry written for one invoice
func (h *PaymentHandler) ListForInvoice(c *gin.Context) {
	_, propertyID, ok := h.authorizeScope(c, h.authorizer, appbilling.CapViewBilling)
	if !ok {
		return
	}

	var uriReq dto.IDRequest
	if err := c.ShouldBindUri(&uriReq); err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}
	invoiceID, err := uuid.Parse(uriReq.ID)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	txns, err := h.ledgerService.ListInvoiceTransactions(c.Request.Context(), propertyID, invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toTransactionResponses(txns))
}
