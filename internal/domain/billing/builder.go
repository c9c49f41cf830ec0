package billing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nhatro/backend/internal/domain/rental"
	"github.com/nhatro/backend/internal/domain/shared"
)

// ExtraCharge is an ad hoc line requested by the operator: a repair fee, a
// cleaning charge, anything outside rent and services. Amounts must not be
// negative; reductions go through the invoice discount.
type ExtraCharge struct {
	Name   string
	Amount decimal.Decimal
	Note   string
}

// BuildInput carries everything the builder needs for one contract-month.
// The builder itself is pure; the application layer loads the data.
type BuildInput struct {
	Contract      *rental.Contract
	Month         rental.BillingMonth
	Services      []*rental.Service
	Readings      []*rental.ServiceReading // confirmed readings for the month
	OccupantCount int
	Extras        []ExtraCharge
	PriorDebt     decimal.Decimal // unpaid balance carried from earlier months
	Discount      decimal.Decimal

	// MandatoryServices names metered services that must have a confirmed
	// reading before the bill can be built, typically electricity and water.
	MandatoryServices []string
}

// BuildResult is the computed bill.
type BuildResult struct {
	Items LineItems
	Total decimal.Decimal
	// AppliedDiscount is the discount after clamping to the subtotal. The
	// requested discount is kept on the invoice for audit.
	AppliedDiscount decimal.Decimal
	// PendingServices lists optional metered services that had no confirmed
	// reading and were therefore left off the bill.
	PendingServices []string
}

// LineItemBuilder turns a contract-month into invoice lines. All amounts are
// rounded half-up to whole currency units at the line level, so the total is
// always a sum of already-rounded figures.
type LineItemBuilder struct{}

// NewLineItemBuilder creates a LineItemBuilder
func NewLineItemBuilder() *LineItemBuilder {
	return &LineItemBuilder{}
}

// Build computes the full line set for one contract and month.
func (b *LineItemBuilder) Build(input BuildInput) (*BuildResult, error) {
	if input.Contract == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Contract is required")
	}
	if input.Month.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Billing month is required")
	}
	if input.Discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Discount cannot be negative")
	}

	items := LineItems{}
	result := &BuildResult{PendingServices: []string{}}

	rentLine, err := b.buildRent(input.Contract, input.Month)
	if err != nil {
		return nil, err
	}
	items = append(items, *rentLine)

	serviceLines, pending, err := b.buildServices(input)
	if err != nil {
		return nil, err
	}
	items = append(items, serviceLines...)
	result.PendingServices = pending

	for _, extra := range input.Extras {
		if extra.Amount.IsNegative() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Extra charge cannot be negative")
		}
		if extra.Name == "" || extra.Amount.IsZero() {
			continue
		}
		items = append(items, LineItem{
			Type:      LineItemExtra,
			Name:      extra.Name,
			Quantity:  decimal.NewFromInt(1),
			UnitPrice: extra.Amount,
			Amount:    extra.Amount.Round(0),
			Note:      extra.Note,
		})
	}

	if input.PriorDebt.IsPositive() {
		items = append(items, LineItem{
			Type:      LineItemDebt,
			Name:      "Carried balance",
			Quantity:  decimal.NewFromInt(1),
			UnitPrice: input.PriorDebt,
			Amount:    input.PriorDebt.Round(0),
			Note:      "Unpaid balance from earlier invoices",
		})
	}

	// The discount never pushes the bill below zero.
	subtotal := items.Total()
	applied := input.Discount.Round(0)
	if applied.GreaterThan(subtotal) {
		applied = subtotal
	}
	if applied.IsPositive() {
		items = append(items, LineItem{
			Type:      LineItemDiscount,
			Name:      "Discount",
			Quantity:  decimal.NewFromInt(1),
			UnitPrice: applied.Neg(),
			Amount:    applied.Neg(),
		})
	}

	result.Items = items
	result.Total = items.Total()
	result.AppliedDiscount = applied
	return result, nil
}

// buildRent computes the rent line, prorating by occupied days when the
// contract starts or ends inside the month.
func (b *LineItemBuilder) buildRent(contract *rental.Contract, month rental.BillingMonth) (*LineItem, error) {
	daysInMonth := month.Days()
	days := contract.DaysOccupiedIn(month)
	if days <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("contract does not cover any day of %s", month))
	}

	if days >= daysInMonth {
		return &LineItem{
			Type:      LineItemRent,
			Name:      "Rent",
			Quantity:  decimal.NewFromInt(1),
			Unit:      "month",
			UnitPrice: contract.Price,
			Amount:    contract.Price.Round(0),
		}, nil
	}

	amount := contract.Price.
		Mul(decimal.NewFromInt(int64(days))).
		Div(decimal.NewFromInt(int64(daysInMonth))).
		Round(0)
	return &LineItem{
		Type:      LineItemRent,
		Name:      "Rent",
		Quantity:  decimal.NewFromInt(int64(days)),
		Unit:      "day",
		UnitPrice: contract.Price,
		Amount:    amount,
		Note:      fmt.Sprintf("Prorated %d/%d days", days, daysInMonth),
	}, nil
}

// buildServices computes metered and fixed service lines.
func (b *LineItemBuilder) buildServices(input BuildInput) (LineItems, []string, error) {
	readingByService := make(map[uuid.UUID]*rental.ServiceReading, len(input.Readings))
	for _, r := range input.Readings {
		if r.Confirmed {
			readingByService[r.ServiceID] = r
		}
	}
	mandatory := make(map[string]bool, len(input.MandatoryServices))
	for _, name := range input.MandatoryServices {
		mandatory[name] = true
	}

	items := LineItems{}
	pending := []string{}
	for _, svc := range input.Services {
		if !svc.Active {
			continue
		}
		switch svc.Kind {
		case rental.ServiceKindIndex:
			reading, ok := readingByService[svc.ID]
			if !ok {
				if mandatory[svc.Name] {
					return nil, nil, shared.NewDomainError("MISSING_READING",
						fmt.Sprintf("service %q has no confirmed reading for %s", svc.Name, input.Month))
				}
				pending = append(pending, svc.Name)
				continue
			}
			consumption, err := reading.Consumption()
			if err != nil {
				return nil, nil, err
			}
			readingID := reading.ID
			serviceID := svc.ID
			items = append(items, LineItem{
				Type:      LineItemService,
				Name:      svc.Name,
				Quantity:  decimal.NewFromInt(consumption),
				Unit:      svc.Unit,
				UnitPrice: svc.UnitPrice,
				Amount:    svc.UnitPrice.Mul(decimal.NewFromInt(consumption)).Round(0),
				ServiceID: &serviceID,
				ReadingID: &readingID,
			})

		case rental.ServiceKindFixed:
			qty := int64(1)
			unit := "room"
			if svc.Basis == rental.CalcBasisPerPerson {
				if input.OccupantCount <= 0 {
					return nil, nil, shared.NewDomainError("INVALID_INPUT",
						fmt.Sprintf("per-person service %q needs an occupant count", svc.Name))
				}
				qty = int64(input.OccupantCount)
				unit = "person"
			}
			serviceID := svc.ID
			items = append(items, LineItem{
				Type:      LineItemFixed,
				Name:      svc.Name,
				Quantity:  decimal.NewFromInt(qty),
				Unit:      unit,
				UnitPrice: svc.UnitPrice,
				Amount:    svc.UnitPrice.Mul(decimal.NewFromInt(qty)).Round(0),
				ServiceID: &serviceID,
			})
		}
	}
	return items, pending, nil
}
