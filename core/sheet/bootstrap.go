package sheet

import (
	"context"

	"github.com/pkg/errors"
)

// Headers lists the canonical header of every table, used when creating missing tables.
var Headers = map[string][]string{
	Students:   {"admissionId", "userId", "name", "password", "email", "className"},
	Staff:      {"staffId", "password", "name", "email"},
	Menu:       {"id", "ItemName", "Price", "Benefits", "image", "soldOut"},
	Orders:     {"orderId", "timestamp", "userId", "userName", "userClass", "items", "totalPrice", "status"},
	Teachers:   {"Name", "StaffID", "Password", "Email"},
	Feedback:   {"Name", "Email", "Message", "Date", "Time", "className", "rating"},
	UserHealth: {"UserId", "Username", "NutritionPoints", "LastUpdated", "BMI", "Height", "Weight"},
}

// Critical tables make the service unusable when missing.
var Critical = []string{Students, Staff, Menu, Orders}

// AllTables in display order.
var AllTables = []string{Students, Staff, Menu, Orders, Teachers, Feedback, UserHealth}

// Bootstrap makes sure every table exists with at least its canonical columns.
func Bootstrap(ctx context.Context, store Store) error {
	for _, name := range AllTables {
		if err := store.Ensure(ctx, name, Headers[name]); err != nil {
			return errors.Wrapf(err, "ensuring table %s", name)
		}
	}
	return nil
}

// TableStatus is the health of one table.
type TableStatus struct {
	Name   string `json:"name"`
	Exists bool   `json:"exists"`
	Rows   int    `json:"rows"`
}

// Inspect reports row counts per table and whether every critical table is present.
func Inspect(ctx context.Context, store Store) ([]TableStatus, bool, error) {
	names, err := store.Tables(ctx)
	if err != nil {
		return nil, false, errors.Wrap(err, "listing tables")
	}
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[Normalize(n)] = true
	}

	healthy := true
	for _, n := range Critical {
		if !present[Normalize(n)] {
			healthy = false
		}
	}

	statuses := make([]TableStatus, 0, len(AllTables))
	for _, name := range AllTables {
		st := TableStatus{Name: name}
		if present[Normalize(name)] {
			t, err := store.Get(ctx, name)
			if err != nil {
				return nil, false, errors.Wrapf(err, "reading %s", name)
			}
			st.Exists = true
			st.Rows = t.Len()
		}
		statuses = append(statuses, st)
	}
	return statuses, healthy, nil
}
