package circulation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LIBRA-backend/internal/platform/db"
)

func TestFineAmount(t *testing.T) {
	cases := []struct {
		name     string
		days     int
		rate     int64
		maxFine  int64
		expected int64
	}{
		{"on time", 0, 5000, 100000, 0},
		{"negative days", -3, 5000, 100000, 0},
		{"six days", 6, 5000, 100000, 30000},
		{"exactly at cap", 20, 5000, 100000, 100000},
		{"capped", 50, 5000, 100000, 100000},
		{"overflow guarded", math.MaxInt32, math.MaxInt64 / 2, 100000, 100000},
		{"zero rate", 10, 0, 100000, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FineAmount(tc.days, tc.rate, tc.maxFine))
		})
	}
}

func TestFineAmountMonotonicAndBounded(t *testing.T) {
	const rate, maxFine = 5000, 100000
	prev := FineAmount(0, rate, maxFine)
	assert.Zero(t, prev)
	for d := 1; d <= 400; d++ {
		f := FineAmount(d, rate, maxFine)
		assert.GreaterOrEqual(t, f, prev, "day %d", d)
		assert.LessOrEqual(t, f, int64(maxFine), "day %d", d)
		prev = f
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, 6, DaysBetween(a, a.AddDate(0, 0, 6), time.UTC))
	assert.Equal(t, 6, DaysBetween(a.AddDate(0, 0, 6), a, time.UTC), "order does not matter")
	assert.Equal(t, 1, DaysBetween(a, time.Date(2025, 1, 16, 0, 5, 0, 0, time.UTC), time.UTC), "time of day is ignored")
	assert.Equal(t, 0, DaysBetween(a, time.Date(2025, 1, 15, 23, 59, 0, 0, time.UTC), time.UTC))

	// 20:00 UTC は UTC+7 では翌日
	wib := time.FixedZone("WIB", 7*3600)
	assert.Equal(t, 1, DaysBetween(a, time.Date(2025, 1, 15, 20, 0, 0, 0, time.UTC), wib))
}

func TestPolicyAssess(t *testing.T) {
	p := testPolicy()
	due := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	d, f := p.Assess(due, due)
	assert.Equal(t, 0, d)
	assert.Zero(t, f, "returning exactly at the due instant is on time")

	d, f = p.Assess(due, due.Add(-48*time.Hour))
	assert.Equal(t, 0, d)
	assert.Zero(t, f)

	d, f = p.Assess(due, due.AddDate(0, 0, 6))
	assert.Equal(t, 6, d)
	assert.EqualValues(t, 30000, f)

	d, f = p.Assess(due, due.AddDate(0, 0, 50))
	assert.Equal(t, 50, d)
	assert.EqualValues(t, 100000, f)
}

func TestPolicyDueDateAndFormatting(t *testing.T) {
	p := testPolicy()
	borrowed := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	due := p.DueDate(borrowed)
	assert.Equal(t, time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC), due)
	assert.Equal(t, "15 Jan 2025", p.FormatDate(due))
	assert.Equal(t, "Rp 30.000", p.FormatMoney(30000))
	assert.Equal(t, "Rp 0", p.FormatMoney(0))
}

func TestPolicyFromConfig(t *testing.T) {
	p, err := PolicyFromConfig(db.LibraryConfig{})
	require.NoError(t, err)
	assert.Equal(t, 14, p.BorrowDurationDays)
	assert.EqualValues(t, 5000, p.FinePerDay)
	assert.EqualValues(t, 100000, p.MaxFine)
	assert.Equal(t, "Rp", p.CurrencyPrefix)

	_, err = PolicyFromConfig(db.LibraryConfig{Timezone: "Nowhere/Atlantis"})
	assert.Error(t, err)
}
