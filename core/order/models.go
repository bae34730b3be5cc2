package order

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/slps/canteen/core/menu"
	"github.com/slps/canteen/core/sheet"
)

// TimeLayout is how order timestamps are written.
const TimeLayout = "2006-01-02 15:04:05"

// Statuses, as returned by the API. They are stored capitalized.
const (
	StatusPending   = "pending"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
	StatusUnable    = "unable"
)

var (
	ErrNotFound    = errors.New("order not found")
	ErrNotCustomer = errors.New("only students and teachers can place orders")

	// layouts accepted when reading timestamps back
	readLayouts = []string{TimeLayout, "01/02/2006 15:04:05", "2006-01-02", "01/02/2006"}
)

var (
	colOrderID   = []string{"orderId", "Order ID"}
	colTimestamp = []string{"timestamp", "date", "Time"}
	colUserID    = []string{"userId", "User ID"}
	colUserName  = []string{"userName", "User Name", "name", "Student"}
	colUserClass = []string{"userClass", "class", "className"}
	colItems     = []string{"items", "itemsJson"}
	colTotal     = []string{"totalPrice", "total", "Total Price", "price"}
	colStatus    = []string{"status"}
)

type (
	Item struct {
		Name     string `json:"name"`
		Quantity int    `json:"quantity"`
	}

	Order struct {
		OrderID    string    `json:"orderId"`
		Timestamp  string    `json:"timestamp"`
		UserID     string    `json:"userId"`
		UserName   string    `json:"userName"`
		UserClass  string    `json:"userClass"`
		Items      []Item    `json:"items"`
		TotalPrice float64   `json:"totalPrice"`
		Status     string    `json:"status"`
		CreatedAt  time.Time `json:"-"` // zero when Timestamp is unreadable
	}

	// NewOrder is what a customer submits.
	NewOrder struct {
		Items      []Item  `json:"items"`
		TotalPrice float64 `json:"totalPrice"`
	}

	// Receipt is returned once an order is placed.
	Receipt struct {
		OrderID      string `json:"orderId"`
		HealthPoints int    `json:"healthPoints"`
	}

	// UpdateStatus contains information needed to change the status of an Order.
	UpdateStatus struct {
		OrderID string `json:"orderId"`
		Status  string `json:"status"`
	}
)

// FormatItems writes items as "Name x qty" joined by ", ".
func FormatItems(items []Item) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		parts = append(parts, it.Name+" x "+strconv.Itoa(qty))
	}
	return strings.Join(parts, ", ")
}

// ParseItems reads FormatItems output. A part without a readable " x qty" suffix counts once.
func ParseItems(raw string) []Item {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "nan" {
		return []Item{}
	}
	parts := strings.Split(raw, ", ")
	items := make([]Item, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		item := Item{Name: part, Quantity: 1}
		if i := strings.LastIndex(part, " x "); i >= 0 {
			if qty, err := strconv.Atoi(strings.TrimSpace(part[i+3:])); err == nil {
				item = Item{Name: strings.TrimSpace(part[:i]), Quantity: qty}
			}
		}
		items = append(items, item)
	}
	return items
}

// ParseTime reads timestamps in any of the layouts found in the Orders table.
func ParseTime(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range readLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func capitalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func orderFromRow(t *sheet.Table, i int, loc *time.Location) Order {
	o := Order{
		OrderID:    t.Value(i, colOrderID...),
		Timestamp:  t.Value(i, colTimestamp...),
		UserID:     t.Value(i, colUserID...),
		UserName:   t.Value(i, colUserName...),
		UserClass:  t.Value(i, colUserClass...),
		Items:      ParseItems(t.Value(i, colItems...)),
		TotalPrice: menu.ParsePrice(t.Value(i, colTotal...)),
		Status:     strings.ToLower(t.Value(i, colStatus...)),
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	if ts, ok := ParseTime(o.Timestamp, loc); ok {
		o.CreatedAt = ts
	}
	return o
}
