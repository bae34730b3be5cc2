// Package health keeps track of the nutrition points and body measures of canteen customers.
package health

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/slps/canteen/core"
	"github.com/slps/canteen/core/menu"
	"github.com/slps/canteen/core/order"
	"github.com/slps/canteen/core/sheet"
)

// UserHealth columns
const (
	hdrUserID      = "UserId"
	hdrUsername    = "Username"
	hdrPoints      = "NutritionPoints"
	hdrLastUpdated = "LastUpdated"
	hdrBMI         = "BMI"
	hdrHeight      = "Height"
	hdrWeight      = "Weight"
)

var (
	colUserID = []string{hdrUserID, "User ID"}
	colPoints = []string{hdrPoints, "points"}
)

type (
	// Measure accepts both JSON numbers and strings.
	Measure string

	Data struct {
		BMI    Measure `json:"bmi"`
		Height Measure `json:"height"`
		Weight Measure `json:"weight"`
	}
)

func (m *Measure) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*m = Measure(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.Wrap(err, "expected a number or a string")
	}
	*m = Measure(n.String())
	return nil
}

type Service struct {
	store   sheet.Store
	menuSvc *menu.Service
	now     func() time.Time
}

var _ order.PointsRecorder = (*Service)(nil)

func NewService(store sheet.Store, menuSvc *menu.Service) *Service {
	return &Service{store: store, menuSvc: menuSvc, now: time.Now}
}

// Record scores the ordered items against the menu and credits the user.
func (svc *Service) Record(ctx context.Context, userID, userName string, items []order.Item) (int, error) {
	menuItems, err := svc.menuSvc.Stored(ctx)
	if err != nil {
		return 0, err
	}
	pts := Score(items, menuItems)
	if err = svc.AddPoints(ctx, userID, userName, pts); err != nil {
		return 0, err
	}
	return pts, nil
}

// AddPoints adds `points` to the user's total, creating their UserHealth row when missing.
func (svc *Service) AddPoints(ctx context.Context, userID, userName string, points int) error {
	return svc.upsert(ctx, userID, userName, func(current sheet.Record) map[string]string {
		total, _ := strconv.Atoi(current.Get(colPoints...))
		return map[string]string{hdrPoints: strconv.Itoa(total + points)}
	})
}

// Points returns the user's total, 0 when they have none yet.
func (svc *Service) Points(ctx context.Context, userID string) (int, error) {
	t, err := sheet.Load(ctx, svc.store, sheet.UserHealth)
	if err != nil {
		return 0, err
	}
	idx := t.Find(userID, colUserID...)
	if idx < 0 {
		return 0, nil
	}
	pts, _ := strconv.Atoi(t.Value(idx, colPoints...))
	return pts, nil
}

// AllPoints returns every user's total in a single read.
func (svc *Service) AllPoints(ctx context.Context) (map[string]int, error) {
	t, err := sheet.Load(ctx, svc.store, sheet.UserHealth)
	if err != nil {
		return nil, err
	}
	all := make(map[string]int, t.Len())
	for i := 0; i < t.Len(); i++ {
		uid := t.Value(i, colUserID...)
		if uid == "" {
			continue
		}
		all[uid], _ = strconv.Atoi(t.Value(i, colPoints...))
	}
	return all, nil
}

// Data returns the stored measures of a user, empty when unknown.
func (svc *Service) Data(ctx context.Context, userID string) (Data, error) {
	t, err := sheet.Load(ctx, svc.store, sheet.UserHealth)
	if err != nil {
		return Data{}, err
	}
	idx := t.Find(userID, colUserID...)
	if idx < 0 {
		return Data{}, nil
	}
	return Data{
		BMI:    Measure(t.Value(idx, hdrBMI)),
		Height: Measure(t.Value(idx, hdrHeight)),
		Weight: Measure(t.Value(idx, hdrWeight)),
	}, nil
}

// SaveData stores the user's measures. Height and BMI are required.
func (svc *Service) SaveData(ctx context.Context, userID, userName string, data Data) error {
	var fields []core.FieldError
	if data.Height == "" {
		fields = append(fields, core.FieldError{Field: "height", Error: "this field is required"})
	}
	if data.BMI == "" {
		fields = append(fields, core.FieldError{Field: "bmi", Error: "this field is required"})
	}
	if len(fields) > 0 {
		return core.NewValidationError(errors.New("height and BMI are required"), fields...)
	}

	return svc.upsert(ctx, userID, userName, func(sheet.Record) map[string]string {
		return map[string]string{
			hdrBMI:    string(data.BMI),
			hdrHeight: string(data.Height),
			hdrWeight: string(data.Weight),
		}
	})
}

// NutritionStats sums up what the user ate on the day of `now`, from their orders.
func (svc *Service) NutritionStats(ctx context.Context, userID string, orders []order.Order, now time.Time) (NutritionStats, error) {
	menuItems, err := svc.menuSvc.Stored(ctx)
	if err != nil {
		return NutritionStats{}, err
	}
	ns := computeNutrition(userID, orders, menuItems, now)
	if ns.NutritionPoints, err = svc.Points(ctx, userID); err != nil {
		return NutritionStats{}, err
	}
	return ns, nil
}

// upsert sets the values returned by `set` on the user's row and stamps LastUpdated.
func (svc *Service) upsert(ctx context.Context, userID, userName string, set func(current sheet.Record) map[string]string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "userId", Error: "this field is required"})
	}

	unlock := sheet.Lock(sheet.UserHealth)
	defer unlock()

	t, err := svc.load(ctx)
	if err != nil {
		return err
	}
	idx := t.Find(userID, colUserID...)

	current := sheet.Record{}
	if idx >= 0 {
		current = t.Record(idx)
	}
	values := set(current)
	values[hdrLastUpdated] = svc.now().Format(order.TimeLayout)

	if idx < 0 {
		if userName == "" {
			userName = "Student"
		}
		values[hdrUserID] = userID
		values[hdrUsername] = userName
		if _, ok := values[hdrPoints]; !ok {
			values[hdrPoints] = "0"
		}
		return errors.Wrap(svc.store.Append(ctx, sheet.UserHealth, t.Row(values)), "saving health record")
	}

	row := make([]string, len(t.Header))
	copy(row, t.Rows[idx])
	for name, val := range values {
		if col := t.Column(name); col >= 0 {
			row[col] = val
		}
	}
	return errors.Wrap(svc.store.UpdateRow(ctx, sheet.UserHealth, idx, row), "updating health record")
}

// load reads UserHealth, first adding the table or the columns it lacks.
func (svc *Service) load(ctx context.Context) (*sheet.Table, error) {
	t, err := sheet.Load(ctx, svc.store, sheet.UserHealth)
	if err != nil {
		return nil, err
	}
	for _, h := range sheet.Headers[sheet.UserHealth] {
		if t.Column(h) < 0 {
			if err = svc.store.Ensure(ctx, sheet.UserHealth, sheet.Headers[sheet.UserHealth]); err != nil {
				return nil, errors.Wrap(err, "ensuring health table")
			}
			return sheet.Load(ctx, svc.store, sheet.UserHealth)
		}
	}
	return t, nil
}
