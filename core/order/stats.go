package order

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/slps/canteen/core"
)

// Periods
const (
	PeriodDay    = "day"
	PeriodWeek   = "week"
	PeriodMonth  = "month"
	PeriodYear   = "year"
	PeriodCustom = "custom"
	PeriodAll    = "all"
)

const dateLayout = "2006-01-02"

// Period selects orders by creation date.
type Period struct {
	Name  string
	Start time.Time // custom only, inclusive
	End   time.Time // custom only, inclusive
}

var periodTitles = map[string]string{
	PeriodDay:   "Today",
	PeriodWeek:  "Last 7 Days",
	PeriodMonth: "This Month",
	PeriodYear:  "This Year",
	PeriodAll:   "All Time",
}

// Title is the human name of the period.
func (p Period) Title() string {
	if title, ok := periodTitles[p.Name]; ok {
		return title
	}
	if p.Name == PeriodCustom {
		return p.Start.Format(dateLayout) + " to " + p.End.Format(dateLayout)
	}
	return "Custom Range"
}

// ParsePeriod reads a period name and, for custom periods, its YYYY-MM-DD bounds.
// An empty name means month; unknown names are kept and select every order.
func ParsePeriod(name, start, end string, loc *time.Location) (Period, error) {
	p := Period{Name: strings.ToLower(strings.TrimSpace(name))}
	if p.Name == "" {
		p.Name = PeriodMonth
	}
	if p.Name != PeriodCustom {
		return p, nil
	}

	var fields []core.FieldError
	var err error
	if p.Start, err = time.ParseInLocation(dateLayout, strings.TrimSpace(start), loc); err != nil {
		fields = append(fields, core.FieldError{Field: "start_date", Error: "expected a YYYY-MM-DD date"})
	}
	if p.End, err = time.ParseInLocation(dateLayout, strings.TrimSpace(end), loc); err != nil {
		fields = append(fields, core.FieldError{Field: "end_date", Error: "expected a YYYY-MM-DD date"})
	}
	if len(fields) > 0 {
		return Period{}, core.NewValidationError(nil, fields...)
	}
	if p.End.Before(p.Start) {
		return Period{}, core.NewValidationError(errors.New("end_date is before start_date"))
	}
	return p, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Includes reports whether an order created at `at` falls in the period, as seen at `now`.
func (p Period) Includes(at, now time.Time) bool {
	if at.IsZero() {
		return false
	}
	switch p.Name {
	case PeriodDay:
		return sameDay(at, now)
	case PeriodWeek:
		return !startOfDay(at).Before(startOfDay(now).AddDate(0, 0, -7))
	case PeriodMonth:
		return at.Year() == now.Year() && at.Month() == now.Month()
	case PeriodYear:
		return at.Year() == now.Year()
	case PeriodCustom:
		day := startOfDay(at)
		return !day.Before(startOfDay(p.Start)) && !day.After(startOfDay(p.End))
	}
	return true
}

// Filter keeps the orders of the period. When nothing matches, every order is returned,
// unreadable timestamps included.
func Filter(orders []Order, p Period, now time.Time) []Order {
	if _, known := periodTitles[p.Name]; p.Name == PeriodAll || (!known && p.Name != PeriodCustom) {
		return orders
	}
	filtered := make([]Order, 0, len(orders))
	for _, o := range orders {
		if p.Includes(o.CreatedAt, now) {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return orders
	}
	return filtered
}

// Stats summarizes a set of orders.
type Stats struct {
	Total       int     `json:"total"`
	Pending     int     `json:"pending"`
	Delivered   int     `json:"delivered"`
	Unable      int     `json:"unable"`
	Cancelled   int     `json:"cancelled"`
	Revenue     float64 `json:"revenue"`
	Average     float64 `json:"average"`
	SuccessRate float64 `json:"successRate"` // delivered / total, in percent
}

func ComputeStats(orders []Order) Stats {
	s := Stats{Total: len(orders)}
	for _, o := range orders {
		switch strings.ToLower(o.Status) {
		case StatusDelivered:
			s.Delivered++
		case StatusUnable:
			s.Unable++
		case StatusCancelled:
			s.Cancelled++
		default:
			s.Pending++
		}
		s.Revenue += o.TotalPrice
	}
	if s.Total > 0 {
		s.Average = round2(s.Revenue / float64(s.Total))
		s.SuccessRate = round2(float64(s.Delivered) / float64(s.Total) * 100)
	}
	s.Revenue = round2(s.Revenue)
	return s
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// ItemCount is how many times an item was ordered and the revenue share it brought.
type ItemCount struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// Popular ranks items by ordered quantity; an order's total is split evenly between its lines.
func Popular(orders []Order, n int) []ItemCount {
	byName := make(map[string]*ItemCount)
	for _, o := range orders {
		if len(o.Items) == 0 {
			continue
		}
		share := o.TotalPrice / float64(len(o.Items))
		for _, it := range o.Items {
			ic, ok := byName[it.Name]
			if !ok {
				ic = &ItemCount{Name: it.Name}
				byName[it.Name] = ic
			}
			ic.Quantity += it.Quantity
			ic.Revenue += share
		}
	}

	counts := make([]ItemCount, 0, len(byName))
	for _, ic := range byName {
		ic.Revenue = round2(ic.Revenue)
		counts = append(counts, *ic)
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Quantity != counts[j].Quantity {
			return counts[i].Quantity > counts[j].Quantity
		}
		return counts[i].Name < counts[j].Name
	})
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// DayStats are the figures of a single day.
type DayStats struct {
	Date      string  `json:"date"`
	Orders    int     `json:"orders"`
	Revenue   float64 `json:"revenue"`
	Pending   int     `json:"pending"`
	Delivered int     `json:"delivered"`
}

// TodayStats counts the orders created on the same day as `now`.
func TodayStats(orders []Order, now time.Time) DayStats {
	ds := DayStats{Date: now.Format(dateLayout)}
	for _, o := range orders {
		if o.CreatedAt.IsZero() || !sameDay(o.CreatedAt, now) {
			continue
		}
		ds.Orders++
		ds.Revenue += o.TotalPrice
		switch o.Status {
		case StatusDelivered:
			ds.Delivered++
		case StatusPending:
			ds.Pending++
		}
	}
	ds.Revenue = round2(ds.Revenue)
	return ds
}
