package rental

import (
	"fmt"
	"time"

	"github.com/nhatro/backend/internal/domain/shared"
)

// BillingMonth identifies one billing period. The wire and storage encoding
// is "MM-YYYY" (e.g. "03-2025"), matching the invoice's unique
// (contract, month) key.
type BillingMonth struct {
	Year  int
	Month time.Month
}

// ParseBillingMonth parses the canonical "MM-YYYY" encoding.
func ParseBillingMonth(s string) (BillingMonth, error) {
	t, err := time.Parse("01-2006", s)
	if err != nil {
		return BillingMonth{}, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("invalid billing month %q, expected MM-YYYY", s))
	}
	return BillingMonth{Year: t.Year(), Month: t.Month()}, nil
}

// BillingMonthOf returns the billing month containing t.
func BillingMonthOf(t time.Time) BillingMonth {
	return BillingMonth{Year: t.Year(), Month: t.Month()}
}

// String returns the canonical MM-YYYY encoding.
func (m BillingMonth) String() string {
	return fmt.Sprintf("%02d-%04d", int(m.Month), m.Year)
}

// IsZero reports whether the month is unset.
func (m BillingMonth) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// Start returns midnight UTC on the first day of the month.
func (m BillingMonth) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the exclusive end of the month (start of the next month).
func (m BillingMonth) End() time.Time {
	return m.Start().AddDate(0, 1, 0)
}

// Days returns the number of days in the month.
func (m BillingMonth) Days() int {
	return int(m.End().Sub(m.Start()).Hours() / 24)
}

// Prev returns the preceding billing month.
func (m BillingMonth) Prev() BillingMonth {
	t := m.Start().AddDate(0, -1, 0)
	return BillingMonth{Year: t.Year(), Month: t.Month()}
}

// Next returns the following billing month.
func (m BillingMonth) Next() BillingMonth {
	t := m.End()
	return BillingMonth{Year: t.Year(), Month: t.Month()}
}

// Contains reports whether t falls inside the month.
func (m BillingMonth) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}
