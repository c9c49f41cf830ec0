package persistence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/rental"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
	"github.com/nhatro/backend/internal/infrastructure/persistence/models"
)

// setupTestDB creates an in-memory SQLite database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(models.AllModels()...)
	require.NoError(t, err)

	return db
}

func testMonth(t *testing.T, s string) rental.BillingMonth {
	t.Helper()
	month, err := rental.ParseBillingMonth(s)
	require.NoError(t, err)
	return month
}

func createPersistedContract(t *testing.T) *rental.Contract {
	t.Helper()

	contract, err := rental.NewContract(
		uuid.New(),
		uuid.New(),
		uuid.New(),
		valueobject.NewMoneyVND(decimal.NewFromInt(3000000)),
		valueobject.NewMoneyVND(decimal.NewFromInt(3000000)),
		time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		nil,
		nil,
	)
	require.NoError(t, err)
	return contract
}

func createPersistedInvoice(t *testing.T, month, code string) *billing.Invoice {
	t.Helper()

	inv, err := billing.NewInvoice(uuid.New(), uuid.New(), uuid.New(), testMonth(t, month), code)
	require.NoError(t, err)
	err = inv.ReplaceLines(billing.LineItems{
		{
			Type:      billing.LineItemRent,
			Name:      "Rent",
			Quantity:  decimal.NewFromInt(1),
			Unit:      "month",
			UnitPrice: decimal.NewFromInt(3000000),
			Amount:    decimal.NewFromInt(3000000),
		},
	}, decimal.Zero)
	require.NoError(t, err)
	err = inv.Finalize(time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return inv
}
