package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhatro/backend/internal/domain/rental"
	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
)

func buildTestContract(t *testing.T, start time.Time) *rental.Contract {
	contract, err := rental.NewContract(
		uuid.New(), uuid.New(), uuid.New(),
		valueobject.NewMoneyVNDFromInt(3_000_000),
		valueobject.NewMoneyVNDFromInt(3_000_000),
		start, nil, nil,
	)
	require.NoError(t, err)
	return contract
}

func buildTestService(t *testing.T, propertyID uuid.UUID, name string, price int64, unit string, kind rental.ServiceKind, basis rental.CalcBasis) *rental.Service {
	svc, err := rental.NewService(propertyID, name, valueobject.NewMoneyVNDFromInt(price), unit, kind, basis)
	require.NoError(t, err)
	return svc
}

func buildConfirmedReading(t *testing.T, contractID, serviceID uuid.UUID, month rental.BillingMonth, old, new int64) *rental.ServiceReading {
	reading, err := rental.NewServiceReading(contractID, serviceID, month, old, new, false, rental.DefaultMaxMeterValue)
	require.NoError(t, err)
	require.NoError(t, reading.Confirm())
	return reading
}

func findLine(items LineItems, typ LineItemType, name string) *LineItem {
	for i := range items {
		if items[i].Type == typ && (name == "" || items[i].Name == name) {
			return &items[i]
		}
	}
	return nil
}

func TestLineItemBuilder_FullBill(t *testing.T) {
	month, err := rental.ParseBillingMonth("06-2026")
	require.NoError(t, err)
	contract := buildTestContract(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	propertyID := contract.PropertyID

	electricity := buildTestService(t, propertyID, "Electricity", 3_500, "kWh", rental.ServiceKindIndex, "")
	wifi := buildTestService(t, propertyID, "Wifi", 100_000, "month", rental.ServiceKindFixed, rental.CalcBasisPerRoom)
	garbage := buildTestService(t, propertyID, "Garbage", 30_000, "person", rental.ServiceKindFixed, rental.CalcBasisPerPerson)

	result, err := NewLineItemBuilder().Build(BuildInput{
		Contract: contract,
		Month:    month,
		Services: []*rental.Service{electricity, wifi, garbage},
		Readings: []*rental.ServiceReading{
			buildConfirmedReading(t, contract.ID, electricity.ID, month, 1_000, 1_150),
		},
		OccupantCount: 2,
		Discount:      decimal.NewFromInt(10_000),
	})
	require.NoError(t, err)

	// 3,000,000 rent + 150 kWh x 3,500 + 100,000 wifi + 2 x 30,000 garbage - 10,000
	assert.True(t, decimal.NewFromInt(3_675_000).Equal(result.Total),
		"total was %s", result.Total)
	assert.Len(t, result.Items, 5)
	assert.Empty(t, result.PendingServices)

	elec := findLine(result.Items, LineItemService, "Electricity")
	require.NotNil(t, elec)
	assert.True(t, decimal.NewFromInt(525_000).Equal(elec.Amount))
	assert.True(t, decimal.NewFromInt(150).Equal(elec.Quantity))
	require.NotNil(t, elec.ReadingID)

	garbageLine := findLine(result.Items, LineItemFixed, "Garbage")
	require.NotNil(t, garbageLine)
	assert.True(t, decimal.NewFromInt(60_000).Equal(garbageLine.Amount))
}

func TestLineItemBuilder_ProratedRent(t *testing.T) {
	month, err := rental.ParseBillingMonth("06-2026")
	require.NoError(t, err)
	// moved in on the 16th: 15 of 30 days
	contract := buildTestContract(t, time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC))

	result, err := NewLineItemBuilder().Build(BuildInput{
		Contract: contract,
		Month:    month,
	})
	require.NoError(t, err)

	rent := findLine(result.Items, LineItemRent, "")
	require.NotNil(t, rent)
	assert.True(t, decimal.NewFromInt(1_500_000).Equal(rent.Amount),
		"rent was %s", rent.Amount)
	assert.Equal(t, "day", rent.Unit)
}

func TestLineItemBuilder_ProrationRoundsHalfUp(t *testing.T) {
	month, err := rental.ParseBillingMonth("06-2026")
	require.NoError(t, err)
	contract, err := rental.NewContract(
		uuid.New(), uuid.New(), uuid.New(),
		valueobject.NewMoneyVNDFromInt(1_000_000),
		valueobject.ZeroVND(),
		time.Date(2026, 6, 24, 0, 0, 0, 0, time.UTC), nil, nil,
	)
	require.NoError(t, err)

	result, err := NewLineItemBuilder().Build(BuildInput{
		Contract: contract,
		Month:    month,
	})
	require.NoError(t, err)

	// 1,000,000 x 7 / 30 = 233,333.33... rounds to 233,333
	rent := findLine(result.Items, LineItemRent, "")
	require.NotNil(t, rent)
	assert.True(t, decimal.NewFromInt(233_333).Equal(rent.Amount),
		"rent was %s", rent.Amount)
}

func TestLineItemBuilder_MandatoryServiceWithoutReading(t *testing.T) {
	month, err := rental.ParseBillingMonth("06-2026")
	require.NoError(t, err)
	contract := buildTestContract(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	water := buildTestService(t, contract.PropertyID, "Water", 15_000, "m3", rental.ServiceKindIndex, "")

	_, err = NewLineItemBuilder().Build(BuildInput{
		Contract:          contract,
		Month:             month,
		Services:          []*rental.Service{water},
		MandatoryServices: []string{"Water"},
	})
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, "MISSING_READING"))
}

func TestLineItemBuilder_OptionalServiceWithoutReading(t *testing.T) {
	month, err := rental.ParseBillingMonth("06-2026")
	require.NoError(t, err)
	contract := buildTestContract(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	water := buildTestService(t, contract.PropertyID, "Water", 15_000, "m3", rental.ServiceKindIndex, "")

	result, err := NewLineItemBuilder().Build(BuildInput{
		Contract: contract,
		Month:    month,
		Services: []*rental.Service{water},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Water"}, result.PendingServices)
	assert.Nil(t, findLine(result.Items, LineItemService, "Water"))
}

func TestLineItemBuilder_UnconfirmedReadingIsIgnored(t *testing.T) {
	month, err := rental.ParseBillingMonth("06-2026")
	require.NoError(t, err)
	contract := buildTestContract(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	water := buildTestService(t, contract.PropertyID, "Water", 15_000, "m3", rental.ServiceKindIndex, "")
	reading, err := rental.NewServiceReading(contract.ID, water.ID, month, 10, 14, false, rental.DefaultMaxMeterValue)
	require.NoError(t, err)

	result, err := NewLineItemBuilder().Build(BuildInput{
		Contract: contract,
		Month:    month,
		Services: []*rental.Service{water},
		Readings: []*rental.ServiceReading{reading},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Water"}, result.PendingServices)
}

func TestLineItemBuilder_DebtAndExtras(t *testing.T) {
	month, err := rental.ParseBillingMonth("06-2026")
	require.NoError(t, err)
	contract := buildTestContract(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	result, err := NewLineItemBuilder().Build(BuildInput{
		Contract:  contract,
		Month:     month,
		PriorDebt: decimal.NewFromInt(500_000),
		Extras: []ExtraCharge{
			{Name: "Lock repair", Amount: decimal.NewFromInt(80_000)},
			{Name: "", Amount: decimal.NewFromInt(999)}, // skipped
		},
	})
	require.NoError(t, err)

	debt := findLine(result.Items, LineItemDebt, "")
	require.NotNil(t, debt)
	assert.True(t, decimal.NewFromInt(500_000).Equal(debt.Amount))

	assert.True(t, decimal.NewFromInt(3_580_000).Equal(result.Total),
		"total was %s", result.Total)
	assert.Len(t, result.Items, 3)
}

func TestLineItemBuilder_NegativeExtraRejected(t *testing.T) {
	month, err := rental.ParseBillingMonth("06-2026")
	require.NoError(t, err)
	contract := buildTestContract(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	_, err = NewLineItemBuilder().Build(BuildInput{
		Contract: contract,
		Month:    month,
		Extras: []ExtraCharge{
			{Name: "Goodwill", Amount: decimal.NewFromInt(-10_000_000)},
		},
	})
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, "INVALID_INPUT"))
}

func TestLineItemBuilder_DiscountClampedToSubtotal(t *testing.T) {
	month, err := rental.ParseBillingMonth("06-2026")
	require.NoError(t, err)
	contract := buildTestContract(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	result, err := NewLineItemBuilder().Build(BuildInput{
		Contract: contract,
		Month:    month,
		Discount: decimal.NewFromInt(99_000_000),
	})
	require.NoError(t, err)

	assert.True(t, result.Total.IsZero(), "total was %s", result.Total)
	assert.True(t, decimal.NewFromInt(3_000_000).Equal(result.AppliedDiscount))
}

func TestLineItemBuilder_PerPersonNeedsOccupantCount(t *testing.T) {
	month, err := rental.ParseBillingMonth("06-2026")
	require.NoError(t, err)
	contract := buildTestContract(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	garbage := buildTestService(t, contract.PropertyID, "Garbage", 30_000, "person", rental.ServiceKindFixed, rental.CalcBasisPerPerson)

	_, err = NewLineItemBuilder().Build(BuildInput{
		Contract: contract,
		Month:    month,
		Services: []*rental.Service{garbage},
	})
	assert.Error(t, err)
}

func TestLineItemBuilder_ContractOutsideMonth(t *testing.T) {
	month, err := rental.ParseBillingMonth("06-2026")
	require.NoError(t, err)
	contract := buildTestContract(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))

	_, err = NewLineItemBuilder().Build(BuildInput{
		Contract: contract,
		Month:    month,
	})
	assert.Error(t, err)
}
