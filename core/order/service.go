package order

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/slps/canteen/core"
	"github.com/slps/canteen/core/account"
	"github.com/slps/canteen/core/sheet"
)

// PointsRecorder credits a customer with the nutrition points an order is worth.
type PointsRecorder interface {
	Record(ctx context.Context, userID, userName string, items []Item) (int, error)
}

type Service struct {
	store    sheet.Store
	accounts *account.Service
	points   PointsRecorder
	mailSvc  core.EmailService
	logger   core.Logger
	now      func() time.Time
}

func NewService(
	store sheet.Store,
	accounts *account.Service,
	points PointsRecorder,
	mailSvc core.EmailService,
	logger core.Logger,
) *Service {
	return &Service{
		store:    store,
		accounts: accounts,
		points:   points,
		mailSvc:  mailSvc,
		logger:   logger,
		now:      time.Now,
	}
}

// Now is the clock orders are stamped with.
func (svc *Service) Now() time.Time { return svc.now() }

func cleanItems(items []Item) []Item {
	cleaned := make([]Item, 0, len(items))
	for _, it := range items {
		it.Name = sheet.DeepClean(it.Name)
		if it.Name == "" {
			continue
		}
		if it.Quantity <= 0 {
			it.Quantity = 1
		}
		cleaned = append(cleaned, it)
	}
	return cleaned
}

// Place records a Pending order for the logged-in student or teacher,
// credits their nutrition points and mails them a receipt.
func (svc *Service) Place(ctx context.Context, sess account.Session, no NewOrder) (Receipt, error) {
	items := cleanItems(no.Items)
	if len(items) == 0 {
		return Receipt{}, core.NewValidationError(errors.New("no items in order"))
	}
	if !sess.Is(account.RoleStudent, account.RoleTeacher) {
		return Receipt{}, ErrNotCustomer
	}

	var name, class, email string
	if sess.Role == account.RoleTeacher {
		tch, err := svc.accounts.GetTeacher(ctx, sess.UserID)
		if err != nil {
			return Receipt{}, err
		}
		name, class, email = tch.Name, account.TeacherClass, tch.Email
		if name == "" {
			name = "Teacher"
		}
	} else {
		std, err := svc.accounts.GetStudent(ctx, sess.UserID)
		if err != nil {
			return Receipt{}, err
		}
		name, class, email = std.Name, std.ClassName, std.Email
		if name == "" {
			name = "N/A"
		}
		if class == "" {
			class = "N/A"
		}
	}

	o := Order{
		Timestamp:  svc.now().Format(TimeLayout),
		UserID:     sess.UserID,
		UserName:   name,
		UserClass:  class,
		Items:      items,
		TotalPrice: no.TotalPrice,
		Status:     StatusPending,
	}
	if err := svc.append(ctx, &o); err != nil {
		return Receipt{}, err
	}

	rcpt := Receipt{OrderID: o.OrderID}
	if svc.points != nil {
		pts, err := svc.points.Record(ctx, o.UserID, o.UserName, o.Items)
		if err != nil {
			// the order is placed already
			svc.logger.Error(fmt.Sprintf("recording health points for order %s: %v", o.OrderID, err), err, sess.Person())
		} else {
			rcpt.HealthPoints = pts
		}
	}

	if email != "" && svc.mailSvc != nil {
		svc.sendReceipt(o, rcpt, mail.Address{Name: name, Address: email})
	}
	return rcpt, nil
}

func (svc *Service) append(ctx context.Context, o *Order) error {
	unlock := sheet.Lock(sheet.Orders)
	defer unlock()

	t, err := sheet.Load(ctx, svc.store, sheet.Orders)
	if err != nil {
		return err
	}
	if len(t.Header) == 0 {
		if err = svc.store.Ensure(ctx, sheet.Orders, sheet.Headers[sheet.Orders]); err != nil {
			return errors.Wrap(err, "creating orders table")
		}
		t.Header = sheet.Headers[sheet.Orders]
	}

	o.OrderID = sheet.NextID(t, colOrderID...)
	row := t.Row(map[string]string{
		t.HeaderFor(colOrderID...):   o.OrderID,
		t.HeaderFor(colTimestamp...): o.Timestamp,
		t.HeaderFor(colUserID...):    o.UserID,
		t.HeaderFor(colUserName...):  o.UserName,
		t.HeaderFor(colUserClass...): o.UserClass,
		t.HeaderFor(colItems...):     FormatItems(o.Items),
		t.HeaderFor(colTotal...):     strconv.FormatFloat(o.TotalPrice, 'f', -1, 64),
		t.HeaderFor(colStatus...):    capitalize(o.Status),
	})
	return errors.Wrap(svc.store.Append(ctx, sheet.Orders, row), "saving order")
}

type receiptData struct {
	OrderID      string
	Timestamp    string
	UserName     string
	Items        []Item
	TotalPrice   float64
	Status       string
	HealthPoints int
}

func (svc *Service) sendReceipt(o Order, rcpt Receipt, to mail.Address) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{to},
		Subject:      "Your order #" + o.OrderID,
		TemplateName: "order_receipt",
		TemplateData: receiptData{
			OrderID:      o.OrderID,
			Timestamp:    o.Timestamp,
			UserName:     o.UserName,
			Items:        o.Items,
			TotalPrice:   o.TotalPrice,
			Status:       capitalize(o.Status),
			HealthPoints: rcpt.HealthPoints,
		},
	})
}

// List returns every order in table order; statuses are lowercased.
func (svc *Service) List(ctx context.Context) ([]Order, error) {
	t, err := sheet.Load(ctx, svc.store, sheet.Orders)
	if err != nil {
		return nil, err
	}
	loc := svc.now().Location()
	orders := make([]Order, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		orders = append(orders, orderFromRow(t, i, loc))
	}
	return orders, nil
}

// ListByUser returns the orders of a user, most recent first. A limit <= 0 returns them all.
func (svc *Service) ListByUser(ctx context.Context, userID string, limit int) ([]Order, error) {
	all, err := svc.List(ctx)
	if err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	orders := make([]Order, 0)
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].UserID == userID && userID != "" {
			orders = append(orders, all[i])
		}
	}
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (svc *Service) Get(ctx context.Context, orderID string) (Order, error) {
	t, err := sheet.Load(ctx, svc.store, sheet.Orders)
	if err != nil {
		return Order{}, err
	}
	orderID = strings.TrimPrefix(strings.TrimSpace(orderID), "#")
	idx := t.Find(orderID, colOrderID...)
	if idx < 0 || orderID == "" {
		return Order{}, ErrNotFound
	}
	return orderFromRow(t, idx, svc.now().Location()), nil
}

// UpdateStatus writes the new status, capitalized, on the order row.
func (svc *Service) UpdateStatus(ctx context.Context, upd UpdateStatus) error {
	upd.OrderID = core.CleanString(upd.OrderID)
	upd.Status = core.CleanString(upd.Status, true /* lower */)
	if upd.OrderID == "" || upd.Status == "" {
		return core.NewValidationError(errors.New("missing orderId or status"))
	}
	switch upd.Status {
	case StatusPending, StatusDelivered, StatusCancelled, StatusUnable:
	default:
		return core.NewValidationError(nil, core.FieldError{Field: "status", Error: "unknown status " + upd.Status})
	}

	unlock := sheet.Lock(sheet.Orders)
	defer unlock()

	t, err := sheet.Load(ctx, svc.store, sheet.Orders)
	if err != nil {
		return err
	}
	idx := t.Find(upd.OrderID, colOrderID...)
	if idx < 0 {
		return ErrNotFound
	}
	col := t.Column(colStatus...)
	if col < 0 {
		// no status header: the last column holds it
		col = len(t.Header) - 1
	}
	return errors.Wrap(
		svc.store.UpdateCell(ctx, sheet.Orders, idx, col, capitalize(upd.Status)),
		"updating order status",
	)
}

// ClearData deletes every order and student, keeping the table headers.
func (svc *Service) ClearData(ctx context.Context) error {
	for _, name := range []string{sheet.Orders, sheet.Students} {
		unlock := sheet.Lock(name)
		err := svc.store.Clear(ctx, name)
		unlock()
		if err != nil && errors.Cause(err) != sheet.ErrTableNotFound {
			return errors.Wrapf(err, "clearing %s", name)
		}
	}
	return nil
}
