package order

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slps/canteen/core"
)

var now = time.Date(2024, 3, 15, 13, 0, 0, 0, time.UTC)

func at(daysAgo int) time.Time {
	return now.AddDate(0, 0, -daysAgo).Add(-time.Hour)
}

func testOrders() []Order {
	return []Order{
		{OrderID: "1", CreatedAt: at(0), Status: StatusPending, TotalPrice: 110, Items: []Item{{Name: "Chai", Quantity: 2}, {Name: "Coffee", Quantity: 1}}},
		{OrderID: "2", CreatedAt: at(0), Status: StatusDelivered, TotalPrice: 30, Items: []Item{{Name: "Chai", Quantity: 1}}},
		{OrderID: "3", CreatedAt: at(5), Status: StatusCancelled, TotalPrice: 80, Items: []Item{{Name: "Veggie Burger", Quantity: 1}}},
		{OrderID: "4", CreatedAt: at(40), Status: StatusUnable, TotalPrice: 60, Items: []Item{{Name: "Fresh Fruit Salad", Quantity: 1}}},
		{OrderID: "5", Status: "Delivered", TotalPrice: 40.333, Items: []Item{{Name: "Coffee", Quantity: 1}}},
	}
}

func ids(orders []Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.OrderID)
	}
	return out
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("", "", "", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, PeriodMonth, p.Name)
	assert.Equal(t, "This Month", p.Title())

	p, err = ParsePeriod(" Custom ", "2024-03-01", "2024-03-10", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01 to 2024-03-10", p.Title())

	_, err = ParsePeriod("custom", "03/01/2024", "", time.UTC)
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Len(t, vErr.Fields, 2)

	_, err = ParsePeriod("custom", "2024-03-10", "2024-03-01", time.UTC)
	require.True(t, errors.As(err, &vErr))
	assert.EqualError(t, vErr.Err, "end_date is before start_date")

	p, err = ParsePeriod("fortnight", "", "", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "Custom Range", p.Title())
}

func TestFilter(t *testing.T) {
	orders := testOrders()
	custom, err := ParsePeriod(PeriodCustom, "2024-03-09", "2024-03-11", time.UTC)
	require.NoError(t, err)
	empty, err := ParsePeriod(PeriodCustom, "2020-01-01", "2020-01-02", time.UTC)
	require.NoError(t, err)

	tests := []struct {
		name   string
		period Period
		want   []string
	}{
		{name: "day", period: Period{Name: PeriodDay}, want: []string{"1", "2"}},
		{name: "week", period: Period{Name: PeriodWeek}, want: []string{"1", "2", "3"}},
		{name: "month", period: Period{Name: PeriodMonth}, want: []string{"1", "2", "3"}},
		{name: "year", period: Period{Name: PeriodYear}, want: []string{"1", "2", "3", "4"}},
		{name: "custom", period: custom, want: []string{"3"}},
		{name: "all", period: Period{Name: PeriodAll}, want: []string{"1", "2", "3", "4", "5"}},
		{name: "unknown", period: Period{Name: "fortnight"}, want: []string{"1", "2", "3", "4", "5"}},
		{name: "no match falls back to all", period: empty, want: []string{"1", "2", "3", "4", "5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(orders, tt.period, now)))
		})
	}
}

func TestComputeStats(t *testing.T) {
	assert.Equal(t, Stats{}, ComputeStats(nil))

	got := ComputeStats(testOrders())
	assert.Equal(t, Stats{
		Total:       5,
		Pending:     1,
		Delivered:   2,
		Unable:      1,
		Cancelled:   1,
		Revenue:     320.33,
		Average:     64.07,
		SuccessRate: 40,
	}, got)
}

func TestPopular(t *testing.T) {
	got := Popular(testOrders(), 0)
	require.Len(t, got, 4)
	assert.Equal(t, ItemCount{Name: "Chai", Quantity: 3, Revenue: 85}, got[0])
	assert.Equal(t, ItemCount{Name: "Coffee", Quantity: 2, Revenue: 95.33}, got[1])
	// ties are sorted by name
	assert.Equal(t, "Fresh Fruit Salad", got[2].Name)
	assert.Equal(t, "Veggie Burger", got[3].Name)

	assert.Len(t, Popular(testOrders(), 2), 2)
	assert.Empty(t, Popular(nil, 5))
}

func TestTodayStats(t *testing.T) {
	assert.Equal(t, DayStats{
		Date:      "2024-03-15",
		Orders:    2,
		Revenue:   140,
		Pending:   1,
		Delivered: 1,
	}, TodayStats(testOrders(), now))
}
