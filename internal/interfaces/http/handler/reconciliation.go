package handler

import (
	"github.com/gin-gonic/gin"

	appbilling "github.com/nhatro/backend/internal/application/billing"
)

// ReconciliationHandler handles ledger reconciliation API endpoints
type ReconciliationHandler struct {
	BaseHandler
	reconciliationService *appbilling.ReconciliationService
	authorizer            appbilling.Authorizer
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(
	reconciliationService *appbilling.ReconciliationService,
	authorizer appbilling.Authorizer,
) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliationService: reconciliationService,
		authorizer:            authorizer,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *ReconciliationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/billing/reconcile", h.Run)
}

// Run backfills ledger transactions for the caller's paid invoices
func (h *ReconciliationHandler) Run(c *gin.Context) {
	_, propertyID, ok := h.authorizeScope(c, h.authorizer, appbilling.CapReconcile)
	if !ok {
		return
	}

	report, err := h.reconciliationService.Reconcile(c.Request.Context(), propertyID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, report)
}
