package rental

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBillingMonth(t *testing.T) {
	tests := []struct {
		input     string
		wantYear  int
		wantMonth time.Month
		wantErr   bool
	}{
		{"01-2026", 2026, time.January, false},
		{"12-2025", 2025, time.December, false},
		{"02-2024", 2024, time.February, false},
		{"2026-01", 0, 0, true},
		{"13-2026", 0, 0, true},
		{"1-2026", 0, 0, true},
		{"", 0, 0, true},
		{"garbage", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m, err := ParseBillingMonth(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantYear, m.Year)
			assert.Equal(t, tt.wantMonth, m.Month)
		})
	}
}

func TestBillingMonth_String_RoundTrips(t *testing.T) {
	m, err := ParseBillingMonth("07-2026")
	require.NoError(t, err)
	assert.Equal(t, "07-2026", m.String())
}

func TestBillingMonth_Days(t *testing.T) {
	tests := []struct {
		input string
		days  int
	}{
		{"01-2026", 31},
		{"04-2026", 30},
		{"02-2026", 28},
		{"02-2024", 29}, // leap year
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m, err := ParseBillingMonth(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.days, m.Days())
		})
	}
}

func TestBillingMonth_PrevNext(t *testing.T) {
	m, err := ParseBillingMonth("01-2026")
	require.NoError(t, err)

	assert.Equal(t, "12-2025", m.Prev().String())
	assert.Equal(t, "02-2026", m.Next().String())
	assert.Equal(t, m, m.Prev().Next())
}

func TestBillingMonth_Contains(t *testing.T) {
	m, err := ParseBillingMonth("06-2026")
	require.NoError(t, err)

	assert.True(t, m.Contains(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, m.Contains(time.Date(2026, 6, 30, 23, 59, 59, 0, time.UTC)))
	assert.False(t, m.Contains(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, m.Contains(time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)))
}
