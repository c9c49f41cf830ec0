package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appbilling "github.com/nhatro/backend/internal/application/billing"
	"github.com/nhatro/backend/internal/domain/rental"
	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/infrastructure/export"
	"github.com/nhatro/backend/internal/interfaces/http/dto"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InvoiceHandler handles invoice API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *appbilling.InvoiceService
	authorizer     appbilling.Authorizer
	pdfGenerator   *export.InvoicePDFGenerator
	reportGen      *export.MonthlyReportGenerator
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(
	invoiceService *appbilling.InvoiceService,
	authorizer appbilling.Authorizer,
	pdfGenerator *export.InvoicePDFGenerator,
	reportGen *export.MonthlyReportGenerator,
) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		authorizer:     authorizer,
		pdfGenerator:   pdfGenerator,
		reportGen:      reportGen,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/billing/invoices")
	{
		invoices.POST("/generate", h.Generate)
		invoices.GET("", h.List)
		invoices.GET("/export", h.Export)
		invoices.GET("/:id", h.Get)
		invoices.GET("/:id/pdf", h.PDF)
		invoices.POST("/:id/finalize", h.Finalize)
	}
}

// Generate creates or refreshes the invoice for one contract-month
func (h *InvoiceHandler) Generate(c *gin.Context) {
	userID, propertyID, ok := h.authorizeScope(c, h.authorizer, appbilling.CapManageBilling)
	if !ok {
		return
	}

	var req GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	contractID, err := uuid.Parse(req.ContractID)
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	extras := make([]appbilling.ExtraInput, 0, len(req.Extras))
	for _, extra := range req.Extras {
		extras = append(extras, appbilling.ExtraInput{
			Name:   extra.Name,
			Amount: decimal.NewFromFloat(extra.Amount),
			Note:   extra.Note,
		})
	}

	result, err := h.invoiceService.GenerateInvoice(c.Request.Context(), appbilling.GenerateInvoiceRequest{
		PropertyID: propertyID,
		ContractID: contractID,
		Month:      req.Month,
		Extras:     extras,
		Discount:   decimal.NewFromFloat(req.Discount),
		Finalize:   req.Finalize,
		ActorID:    &userID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, GenerateInvoiceResponse{
		Invoice:         toInvoiceResponse(result.Invoice),
		PendingServices: result.PendingServices,
	})
}

// Finalize issues a draft invoice
func (h *InvoiceHandler) Finalize(c *gin.Context) {
	_, propertyID, ok := h.authorizeScope(c, h.authorizer, appbilling.CapManageBilling)
	if !ok {
		return
	}

	invoiceID, ok := h.bindInvoiceID(c)
	if !ok {
		return
	}

	existing, err := h.invoiceService.GetInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if existing.PropertyID != propertyID {
		h.HandleDomainError(c, shared.ErrNotFound)
		return
	}

	invoice, err := h.invoiceService.FinalizeInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toInvoiceResponse(invoice))
}

// Get loads one invoice
func (h *InvoiceHandler) Get(c *gin.Context) {
	_, propertyID, ok := h.authorizeScope(c, h.authorizer, appbilling.CapViewBilling)
	if !ok {
		return
	}

	invoiceID, ok := h.bindInvoiceID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if invoice.PropertyID != propertyID {
		h.HandleDomainError(c, shared.ErrNotFound)
		return
	}

	h.Success(c, toInvoiceResponse(invoice))
}

// List returns the caller's invoices for one month
func (h *InvoiceHandler) List(c *gin.Context) {
	_, propertyID, ok := h.authorizeScope(c, h.authorizer, appbilling.CapViewBilling)
	if !ok {
		return
	}

	monthStr := c.Query("month")
	if monthStr == "" {
		h.BadRequest(c, "Query parameter 'month' is required")
		return
	}

	invoices, err := h.invoiceService.ListInvoices(c.Request.Context(), propertyID, monthStr)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toInvoiceResponses(invoices))
}

// PDF renders one invoice as a downloadable PDF
func (h *InvoiceHandler) PDF(c *gin.Context) {
	_, propertyID, ok := h.authorizeScope(c, h.authorizer, appbilling.CapViewBilling)
	if !ok {
		return
	}

	invoiceID, ok := h.bindInvoiceID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if invoice.PropertyID != propertyID {
		h.HandleDomainError(c, shared.ErrNotFound)
		return
	}

	data, err := h.pdfGenerator.Generate(invoice)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", invoice.Code))
	c.Data(200, "application/pdf", data)
}

// Export renders one month's invoices as an Excel workbook
func (h *InvoiceHandler) Export(c *gin.Context) {
	_, propertyID, ok := h.authorizeScope(c, h.authorizer, appbilling.CapViewBilling)
	if !ok {
		return
	}

	monthStr := c.Query("month")
	if monthStr == "" {
		h.BadRequest(c, "Query parameter 'month' is required")
		return
	}
	month, err := rental.ParseBillingMonth(monthStr)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	invoices, err := h.invoiceService.ListInvoices(c.Request.Context(), propertyID, monthStr)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	data, err := h.reportGen.Generate(month, invoices)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoices-%s.xlsx", month.String()))
	c.Data(200, xlsxContentType, data)
}

func (h *InvoiceHandler) bindInvoiceID(c *gin.Context) (uuid.UUID, bool) {
	var uriReq dto.IDRequest
	if err := c.ShouldBindUri(&uriReq); err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return uuid.Nil, false
	}
	invoiceID, err := uuid.Parse(uriReq.ID)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return uuid.Nil, false
	}
	return invoiceID, true
}
