package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nhatro/backend/internal/domain/shared/valueobject"
)

// LineItemType classifies an invoice line.
type LineItemType string

const (
	LineItemRent     LineItemType = "RENT"     // monthly rent, possibly prorated
	LineItemService  LineItemType = "SERVICE"  // metered consumption
	LineItemFixed    LineItemType = "FIXED"    // flat fee per room or per person
	LineItemExtra    LineItemType = "EXTRA"    // ad hoc charge or credit
	LineItemDebt     LineItemType = "DEBT"     // unpaid balance carried forward
	LineItemDiscount LineItemType = "DISCOUNT" // invoice-level discount
)

// IsValid checks if the line item type is known
func (t LineItemType) IsValid() bool {
	switch t {
	case LineItemRent, LineItemService, LineItemFixed, LineItemExtra, LineItemDebt, LineItemDiscount:
		return true
	}
	return false
}

// LineItem is one row of an invoice. Amount is the already-rounded charge;
// Quantity and UnitPrice are kept for display and audit.
type LineItem struct {
	Type      LineItemType    `json:"type"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note,omitempty"`
	ServiceID *uuid.UUID      `json:"service_id,omitempty"`
	ReadingID *uuid.UUID      `json:"reading_id,omitempty"`
}

// AmountMoney returns the line amount as Money in the default currency.
func (l LineItem) AmountMoney() valueobject.Money {
	return valueobject.NewMoneyVND(l.Amount)
}

// LineItems is the full set of lines on an invoice, persisted as one JSONB
// document so a snapshot of the bill survives later price changes.
type LineItems []LineItem

// lineItemsEnvelope versions the stored document. Readers accept a bare
// array as version 1 for rows written before the envelope existed.
type lineItemsEnvelope struct {
	SchemaVersion int        `json:"schema_version"`
	Items         []LineItem `json:"items"`
}

const lineItemsSchemaVersion = 1

// Total sums all line amounts, discount lines included (they carry a
// negative amount).
func (ls LineItems) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range ls {
		total = total.Add(item.Amount)
	}
	return total
}

// Value implements driver.Valuer for JSONB storage
func (ls LineItems) Value() (driver.Value, error) {
	env := lineItemsEnvelope{
		SchemaVersion: lineItemsSchemaVersion,
		Items:         ls,
	}
	if env.Items == nil {
		env.Items = []LineItem{}
	}
	return json.Marshal(env)
}

// Scan implements sql.Scanner for JSONB retrieval
func (ls *LineItems) Scan(value interface{}) error {
	if value == nil {
		*ls = LineItems{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan LineItems: unsupported type")
	}
	if len(bytes) == 0 {
		*ls = LineItems{}
		return nil
	}
	if bytes[0] == '[' {
		var items []LineItem
		if err := json.Unmarshal(bytes, &items); err != nil {
			return err
		}
		*ls = items
		return nil
	}
	var env lineItemsEnvelope
	if err := json.Unmarshal(bytes, &env); err != nil {
		return err
	}
	*ls = env.Items
	return nil
}
