package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	appbilling "github.com/nhatro/backend/internal/application/billing"
	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/rental"
	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
	"github.com/nhatro/backend/internal/infrastructure/auth"
	"github.com/nhatro/backend/internal/infrastructure/cache"
	"github.com/nhatro/backend/internal/infrastructure/event"
	"github.com/nhatro/backend/internal/infrastructure/export"
	"github.com/nhatro/backend/internal/infrastructure/lock"
	"github.com/nhatro/backend/internal/infrastructure/persistence"
	"github.com/nhatro/backend/internal/infrastructure/persistence/models"
	"github.com/nhatro/backend/internal/interfaces/http/dto"
	"github.com/nhatro/backend/internal/interfaces/http/middleware"
	"github.com/nhatro/backend/internal/interfaces/http/router"
)

func init() {
	gin.SetMode(gin.TestMode)
	dto.RegisterCustomValidators()
}

type apiEnv struct {
	engine     *gin.Engine
	db         *gorm.DB
	propertyID uuid.UUID
	userID     uuid.UUID
	contract   *rental.Contract
	service    *rental.Service
}

// setupAPI wires the full HTTP stack against an in-memory database. The
// claims middleware stands in for JWT validation so tests control the
// capability set directly.
func setupAPI(t *testing.T, capabilities ...string) *apiEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	logger := zap.NewNop()
	propertyID := uuid.New()
	userID := uuid.New()
	roomID := uuid.New()

	contractRepo := persistence.NewGormContractRepository(db)
	serviceRepo := persistence.NewGormServiceRepository(db)
	readingRepo := persistence.NewGormReadingRepository(db)
	invoiceRepo := persistence.NewGormInvoiceRepository(db)
	txnRepo := persistence.NewGormTransactionRepository(db)
	roomDir := persistence.NewGormRoomDirectory(db)
	scope := persistence.NewGormTransactionScope(db)

	locks := lock.NewKeyedMutex()
	events := event.NewInMemoryEventBus(logger)
	idemStore := cache.NewInMemoryIdempotencyStore()
	cfg := appbilling.DefaultConfig()

	readingService := appbilling.NewReadingService(readingRepo, contractRepo, serviceRepo, cfg, logger)
	invoiceService := appbilling.NewInvoiceService(invoiceRepo, contractRepo, serviceRepo, readingRepo, roomDir, locks, events, cfg, logger)
	paymentService := appbilling.NewPaymentService(scope, invoiceRepo, idemStore, shared.DefaultIdempotencyConfig(), locks, events, logger)
	reconciliationService := appbilling.NewReconciliationService(invoiceRepo, scope, events, logger)
	ledgerService := appbilling.NewLedgerService(txnRepo, invoiceRepo)
	authorizer := auth.NewClaimsAuthorizer()

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		claims := &auth.Claims{
			UserID:       userID.String(),
			PropertyID:   propertyID.String(),
			Username:     "manager",
			Capabilities: capabilities,
		}
		c.Set(middleware.JWTClaimsKey, claims)
		c.Set(middleware.JWTUserIDKey, claims.UserID)
		c.Set(middleware.JWTPropertyIDKey, claims.PropertyID)
		c.Request = c.Request.WithContext(auth.WithClaims(c.Request.Context(), claims))
		c.Next()
	})

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(NewReadingHandler(readingService, authorizer))
	r.Register(NewInvoiceHandler(invoiceService, authorizer, export.NewInvoicePDFGenerator(), export.NewMonthlyReportGenerator()))
	r.Register(NewPaymentHandler(paymentService, ledgerService, authorizer))
	r.Register(NewReconciliationHandler(reconciliationService, authorizer))
	r.Setup()

	// Seed a room, an open-ended contract and a metered electricity service.
	require.NoError(t, db.Create(&models.RoomModel{
		BaseModel:     models.BaseModel{ID: roomID},
		PropertyID:    propertyID,
		Name:          "A-101",
		OccupantCount: 2,
	}).Error)

	contract, err := rental.NewContract(
		propertyID,
		roomID,
		uuid.New(),
		valueobject.NewMoneyVND(decimal.NewFromInt(3000000)),
		valueobject.NewMoneyVND(decimal.NewFromInt(3000000)),
		time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		nil,
		nil,
	)
	require.NoError(t, err)
	require.NoError(t, contractRepo.Save(context.Background(), contract))

	service, err := rental.NewService(
		propertyID,
		"Electricity",
		valueobject.NewMoneyVND(decimal.NewFromInt(3500)),
		"kWh",
		rental.ServiceKindIndex,
		"",
	)
	require.NoError(t, err)
	require.NoError(t, serviceRepo.Save(context.Background(), service))

	return &apiEnv{
		engine:     engine,
		db:         db,
		propertyID: propertyID,
		userID:     userID,
		contract:   contract,
		service:    service,
	}
}

func (e *apiEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var resp struct {
		Success bool `json:"success"`
		Data    T    `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	require.True(t, resp.Success, "body: %s", w.Body.String())
	return resp.Data
}

// recordConfirmedReading drives the reading endpoints to a confirmed state
func (e *apiEnv) recordConfirmedReading(t *testing.T, month string, oldIndex, newIndex int64) ReadingResponse {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/v1/billing/readings", RecordReadingRequest{
		ContractID: e.contract.ID.String(),
		ServiceID:  e.service.ID.String(),
		Month:      month,
		OldIndex:   &oldIndex,
		NewIndex:   &newIndex,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reading := decodeData[ReadingResponse](t, w)

	w = e.do(t, http.MethodPost, "/api/v1/billing/readings/"+reading.ID+"/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decodeData[ReadingResponse](t, w)
}

func TestReadingEndpoints(t *testing.T) {
	env := setupAPI(t, "billing:view", "billing:manage")

	t.Run("validate computes consumption", func(t *testing.T) {
		oldIdx, newIdx := int64(120), int64(145)
		w := env.do(t, http.MethodPost, "/api/v1/billing/readings/validate", ValidateReadingRequest{
			OldIndex: &oldIdx,
			NewIndex: &newIdx,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		result := decodeData[map[string]int64](t, w)
		assert.Equal(t, int64(25), result["consumption"])
	})

	t.Run("validate rejects backwards reading", func(t *testing.T) {
		oldIdx, newIdx := int64(145), int64(120)
		w := env.do(t, http.MethodPost, "/api/v1/billing/readings/validate", ValidateReadingRequest{
			OldIndex: &oldIdx,
			NewIndex: &newIdx,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	})

	t.Run("record and confirm", func(t *testing.T) {
		reading := env.recordConfirmedReading(t, "08-2026", 100, 125)
		assert.True(t, reading.Confirmed)
		assert.Equal(t, int64(25), reading.Consumption)
		assert.Equal(t, "08-2026", reading.Month)
	})

	t.Run("record rejects unknown contract", func(t *testing.T) {
		newIdx := int64(10)
		w := env.do(t, http.MethodPost, "/api/v1/billing/readings", RecordReadingRequest{
			ContractID: uuid.New().String(),
			ServiceID:  env.service.ID.String(),
			Month:      "08-2026",
			NewIndex:   &newIdx,
		})
		assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	})

	t.Run("record rejects malformed body", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/billing/readings", map[string]string{
			"contract_id": "not-a-uuid",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	})
}

func TestInvoiceLifecycle(t *testing.T) {
	env := setupAPI(t, "billing:view", "billing:manage", "billing:payment", "billing:reconcile")
	env.recordConfirmedReading(t, "08-2026", 100, 125)

	var invoiceID string

	t.Run("generate finalized invoice", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/billing/invoices/generate", GenerateInvoiceRequest{
			ContractID: env.contract.ID.String(),
			Month:      "08-2026",
			Finalize:   true,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		result := decodeData[GenerateInvoiceResponse](t, w)
		invoiceID = result.Invoice.ID
		assert.Equal(t, "PENDING", result.Invoice.Status)
		// full month rent 3,000,000 plus 25 kWh at 3,500
		assert.Equal(t, "3087500", result.Invoice.TotalAmount)
		assert.Equal(t, "3087500", result.Invoice.Outstanding)
		assert.Empty(t, result.PendingServices)
	})

	t.Run("get and list", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/billing/invoices/"+invoiceID, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		inv := decodeData[InvoiceResponse](t, w)
		assert.Equal(t, env.contract.ID.String(), inv.ContractID)
		assert.Len(t, inv.LineItems, 2)

		w = env.do(t, http.MethodGet, "/api/v1/billing/invoices?month=08-2026", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		list := decodeData[[]InvoiceResponse](t, w)
		require.Len(t, list, 1)
		assert.Equal(t, invoiceID, list[0].ID)
	})

	t.Run("list requires month", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/billing/invoices", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	})

	t.Run("full payment settles invoice", func(t *testing.T) {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/billing/invoices/%s/payments", invoiceID), RecordPaymentRequest{
			Amount:         3087500,
			Method:         "BANK",
			IdempotencyKey: "pay-full-1",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		result := decodeData[RecordPaymentResponse](t, w)
		assert.False(t, result.Duplicate)
		assert.Equal(t, "PAID", result.Invoice.Status)
		assert.Equal(t, "0", result.Invoice.Outstanding)
		require.NotNil(t, result.Transaction)
		assert.Equal(t, "3087500", result.Transaction.Amount)
	})

	t.Run("replayed idempotency key returns stored outcome", func(t *testing.T) {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/billing/invoices/%s/payments", invoiceID), RecordPaymentRequest{
			Amount:         3087500,
			Method:         "BANK",
			IdempotencyKey: "pay-full-1",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		result := decodeData[RecordPaymentResponse](t, w)
		assert.True(t, result.Duplicate)
		assert.Equal(t, "PAID", result.Invoice.Status)
	})

	t.Run("overpaying a settled invoice fails", func(t *testing.T) {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/billing/invoices/%s/payments", invoiceID), RecordPaymentRequest{
			Amount: 1000,
			Method: "CASH",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	})

	t.Run("ledger lists the payment", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/billing/transactions", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		txns := decodeData[[]TransactionResponse](t, w)
		require.Len(t, txns, 1)
		assert.Equal(t, "INVOICE_PAYMENT", txns[0].Type)
		assert.Equal(t, "ORGANIC", txns[0].Source)

		w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/billing/invoices/%s/transactions", invoiceID), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		txns = decodeData[[]TransactionResponse](t, w)
		require.Len(t, txns, 1)
	})

	t.Run("reconcile finds nothing to backfill", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/billing/reconcile", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		report := decodeData[appbilling.ReconciliationReport](t, w)
		assert.Equal(t, 1, report.Checked)
		assert.Equal(t, 0, report.Backfilled)
		assert.Equal(t, 1, report.Skipped)
	})

	t.Run("payment rejects unknown method", func(t *testing.T) {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/billing/invoices/%s/payments", invoiceID), RecordPaymentRequest{
			Amount: 1000,
			Method: "BITCOIN",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	})
}

func TestInvoiceExports(t *testing.T) {
	env := setupAPI(t, "billing:view", "billing:manage")
	env.recordConfirmedReading(t, "08-2026", 100, 125)

	w := env.do(t, http.MethodPost, "/api/v1/billing/invoices/generate", GenerateInvoiceRequest{
		ContractID: env.contract.ID.String(),
		Month:      "08-2026",
		Finalize:   true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	invoiceID := decodeData[GenerateInvoiceResponse](t, w).Invoice.ID

	t.Run("pdf download", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/billing/invoices/"+invoiceID+"/pdf", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
	})

	t.Run("monthly excel export", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/billing/invoices/export?month=08-2026", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "invoices-08-2026.xlsx")
		assert.NotEmpty(t, w.Body.Bytes())
	})

	t.Run("export requires month", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/billing/invoices/export", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("pdf for foreign invoice is hidden", func(t *testing.T) {
		other := setupAPI(t, "billing:view", "billing:manage")
		w := other.do(t, http.MethodGet, "/api/v1/billing/invoices/"+invoiceID+"/pdf", nil)
		assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	})
}

func TestCapabilityEnforcement(t *testing.T) {
	env := setupAPI(t, "billing:view")

	t.Run("viewing is allowed", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/billing/invoices?month=08-2026", nil)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("recording readings is denied", func(t *testing.T) {
		newIdx := int64(10)
		w := env.do(t, http.MethodPost, "/api/v1/billing/readings", RecordReadingRequest{
			ContractID: env.contract.ID.String(),
			ServiceID:  env.service.ID.String(),
			Month:      "08-2026",
			NewIndex:   &newIdx,
		})
		assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	})

	t.Run("payments are denied", func(t *testing.T) {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/billing/invoices/%s/payments", uuid.New()), RecordPaymentRequest{
			Amount: 1000,
			Method: "CASH",
		})
		assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	})

	t.Run("reconciliation is denied", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/billing/reconcile", nil)
		assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	})
}

func TestPropertyIsolation(t *testing.T) {
	env := setupAPI(t, "billing:view", "billing:manage", "billing:payment")
	ctx := context.Background()

	// Seed a contract, reading and invoice under another property in the
	// same database. Every mutation against them must look like a miss.
	foreignProperty := uuid.New()
	contractRepo := persistence.NewGormContractRepository(env.db)
	readingRepo := persistence.NewGormReadingRepository(env.db)
	invoiceRepo := persistence.NewGormInvoiceRepository(env.db)

	foreignContract, err := rental.NewContract(
		foreignProperty,
		uuid.New(),
		uuid.New(),
		valueobject.NewMoneyVND(decimal.NewFromInt(2000000)),
		valueobject.NewMoneyVND(decimal.NewFromInt(2000000)),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		nil,
		nil,
	)
	require.NoError(t, err)
	require.NoError(t, contractRepo.Save(ctx, foreignContract))

	month, err := rental.ParseBillingMonth("08-2026")
	require.NoError(t, err)
	foreignReading, err := rental.NewServiceReading(foreignContract.ID, env.service.ID, month, 0, 40, false, 9999)
	require.NoError(t, err)
	require.NoError(t, readingRepo.Save(ctx, foreignReading))

	foreignInvoice, err := billing.NewInvoice(foreignProperty, foreignContract.ID, foreignContract.RoomID, month, "INV-20260801-00099")
	require.NoError(t, err)
	require.NoError(t, foreignInvoice.ReplaceLines(billing.LineItems{
		{Type: billing.LineItemRent, Name: "Rent", Amount: decimal.NewFromInt(2000000)},
	}, decimal.Zero))
	require.NoError(t, foreignInvoice.Finalize(time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, invoiceRepo.Save(ctx, foreignInvoice))

	t.Run("generating for a foreign contract is hidden", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/billing/invoices/generate", GenerateInvoiceRequest{
			ContractID: foreignContract.ID.String(),
			Month:      "08-2026",
		})
		assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	})

	t.Run("recording a reading for a foreign contract is hidden", func(t *testing.T) {
		newIdx := int64(80)
		w := env.do(t, http.MethodPost, "/api/v1/billing/readings", RecordReadingRequest{
			ContractID: foreignContract.ID.String(),
			ServiceID:  env.service.ID.String(),
			Month:      "08-2026",
			NewIndex:   &newIdx,
		})
		assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	})

	t.Run("confirming a foreign reading is hidden", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/billing/readings/"+foreignReading.ID.String()+"/confirm", nil)
		assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	})

	t.Run("paying a foreign invoice is hidden", func(t *testing.T) {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/billing/invoices/%s/payments", foreignInvoice.ID), RecordPaymentRequest{
			Amount: 2000000,
			Method: "CASH",
		})
		assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	})

	t.Run("foreign invoice ledger is hidden", func(t *testing.T) {
		w := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/billing/invoices/%s/transactions", foreignInvoice.ID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	})

	t.Run("finalizing a foreign invoice is hidden", func(t *testing.T) {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/billing/invoices/%s/finalize", foreignInvoice.ID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	})
}
