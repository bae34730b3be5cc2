// Package report builds the staff order reports and renders them as PDF or XLSX.
package report

import (
	"sort"
	"time"

	"github.com/slps/canteen/core/account"
	"github.com/slps/canteen/core/order"
)

const dateLayout = "2006-01-02"

type (
	Report struct {
		Period      order.Period
		GeneratedAt time.Time
		Stats       order.Stats
		Days        []Day
		Popular     []order.ItemCount
	}

	// Day groups the orders of one date.
	Day struct {
		Date    string
		Orders  []order.Order
		Total   int
		Revenue float64
	}
)

// Build filters the orders of the period and groups them by date, newest first.
// Orders with unreadable timestamps are grouped under "Unknown date", last.
func Build(orders []order.Order, period order.Period, now time.Time) Report {
	filtered := order.Filter(orders, period, now)

	byDate := make(map[string]*Day)
	for _, o := range filtered {
		date := "Unknown date"
		if !o.CreatedAt.IsZero() {
			date = o.CreatedAt.Format(dateLayout)
		}
		d, ok := byDate[date]
		if !ok {
			d = &Day{Date: date}
			byDate[date] = d
		}
		d.Orders = append(d.Orders, o)
		d.Total++
		d.Revenue += o.TotalPrice
	}

	days := make([]Day, 0, len(byDate))
	for _, d := range byDate {
		sort.SliceStable(d.Orders, func(i, j int) bool { return d.Orders[i].CreatedAt.After(d.Orders[j].CreatedAt) })
		days = append(days, *d)
	}
	// unknown dates last
	sort.Slice(days, func(i, j int) bool {
		ui, uj := days[i].CreatedUnknown(), days[j].CreatedUnknown()
		if ui != uj {
			return uj
		}
		return days[i].Date > days[j].Date
	})

	return Report{
		Period:      period,
		GeneratedAt: now,
		Stats:       order.ComputeStats(filtered),
		Days:        days,
		Popular:     order.Popular(filtered, 5),
	}
}

// FillStudents sets the name and class of each student order from the student's current row.
// Orders of unknown users are left as they were stored.
func FillStudents(orders []order.Order, students []account.Student) []order.Order {
	byID := make(map[string]account.Student, len(students))
	for _, std := range students {
		if std.UserID != "" {
			byID[std.UserID] = std
		}
	}
	filled := make([]order.Order, len(orders))
	for i, o := range orders {
		if std, ok := byID[o.UserID]; ok && o.UserID != "" {
			o.UserName, o.UserClass = std.Name, std.ClassName
		}
		filled[i] = o
	}
	return filled
}

// CreatedUnknown reports whether the day groups orders without a readable timestamp.
func (d Day) CreatedUnknown() bool {
	_, err := time.Parse(dateLayout, d.Date)
	return err != nil
}

// Filename is the download name of the report, without extension.
func (r Report) Filename() string {
	return "canteen_orders_" + r.Period.Name + "_" + r.GeneratedAt.Format("20060102_150405")
}
