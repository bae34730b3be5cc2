package order_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slps/canteen/core/account"
	"github.com/slps/canteen/core/order"
	"github.com/slps/canteen/core/sheet"
	emailsvc "github.com/slps/canteen/services/email"
	testutil "github.com/slps/canteen/tests"
)

const pwd = "Lunch#Box2024"

func TestService_Place(t *testing.T) {
	s := testutil.NewServices(t)
	ctx := context.Background()
	testutil.SeedMenu(t, s.Menu)
	std := testutil.CreateStudent(t, s.Accounts, "Ravi", "ravi@slps.one", pwd, "18/20", "5A")
	// teacher rows from before emails were required
	require.NoError(t, s.Store.Append(ctx, sheet.Teachers, []string{"Mrs Iyer", "T-01", "x", ""}))
	tch := account.Teacher{Name: "Mrs Iyer", StaffID: "T-01"}

	_, err := s.Orders.Place(ctx, testutil.StudentSession(std), order.NewOrder{Items: []order.Item{{Name: "  "}}})
	assert.Error(t, err)

	staff := account.Session{LoggedIn: true, UserID: "kitchen@slps.one", Role: account.RoleStaff}
	_, err = s.Orders.Place(ctx, staff, order.NewOrder{Items: []order.Item{{Name: "Chai"}}})
	assert.Equal(t, order.ErrNotCustomer, err)

	rcpt, err := s.Orders.Place(ctx, testutil.StudentSession(std), order.NewOrder{
		Items:      []order.Item{{Name: "Fresh Fruit Salad", Quantity: 1}, {Name: "Coffee"}},
		TotalPrice: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, order.Receipt{OrderID: "1", HealthPoints: 12}, rcpt)
	require.Len(t, emailsvc.SentMessages, 1)
	assert.Equal(t, "Your order #1", emailsvc.SentMessages[0].Subject)

	// teachers without email get no receipt
	rcpt, err = s.Orders.Place(ctx, testutil.TeacherSession(tch), order.NewOrder{Items: []order.Item{{Name: "Chai", Quantity: 2}}, TotalPrice: 60})
	require.NoError(t, err)
	assert.Equal(t, "2", rcpt.OrderID)
	assert.Len(t, emailsvc.SentMessages, 1)

	o, err := s.Orders.Get(ctx, "#2")
	require.NoError(t, err)
	assert.Equal(t, "Mrs Iyer", o.UserName)
	assert.Equal(t, account.TeacherClass, o.UserClass)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, []order.Item{{Name: "Chai", Quantity: 2}}, o.Items)
	assert.False(t, o.CreatedAt.IsZero())

	tbl, err := s.Store.Get(ctx, sheet.Orders)
	require.NoError(t, err)
	assert.Equal(t, "Pending", tbl.Rows[0][len(tbl.Rows[0])-1])
	assert.Equal(t, "Fresh Fruit Salad x 1, Coffee x 1", tbl.Rows[0][5])
}

func TestService_ListByUser(t *testing.T) {
	s := testutil.NewServices(t)
	ctx := context.Background()
	s.Store.Seed(sheet.Orders, sheet.Headers[sheet.Orders],
		[]string{"1", "2024-03-01 09:00:00", "7", "Ravi", "5A", "Chai x 1", "30", "Delivered"},
		[]string{"2", "2024-03-02 09:00:00", "8", "Meera", "5B", "Coffee x 1", "40", "Pending"},
		[]string{"3", "2024-03-03 09:00:00", "7", "Ravi", "5A", "Coffee x 1", "40", ""},
		[]string{"4", "2024-02-28 09:00:00", "7", "Ravi", "5A", "Samosa x 2", "50", "Cancelled"},
	)

	orders, err := s.Orders.ListByUser(ctx, "7", 0)
	require.NoError(t, err)
	var got []string
	for _, o := range orders {
		got = append(got, o.OrderID)
	}
	assert.Equal(t, []string{"3", "1", "4"}, got)
	assert.Equal(t, order.StatusPending, orders[0].Status)

	orders, err = s.Orders.ListByUser(ctx, "7", 2)
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	orders, err = s.Orders.ListByUser(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = s.Orders.Get(ctx, "99")
	assert.Equal(t, order.ErrNotFound, err)
}

func TestService_UpdateStatus(t *testing.T) {
	s := testutil.NewServices(t)
	ctx := context.Background()
	// legacy table without a status header: the last column holds it
	s.Store.Seed(sheet.Orders, []string{"orderId", "timestamp", "userId", "items", "totalPrice", "state"},
		[]string{"1", "2024-03-01 09:00:00", "7", "Chai x 1", "30", "Pending"},
	)

	assert.Error(t, s.Orders.UpdateStatus(ctx, order.UpdateStatus{OrderID: "1"}))
	assert.Error(t, s.Orders.UpdateStatus(ctx, order.UpdateStatus{OrderID: "1", Status: "lost"}))
	assert.Equal(t, order.ErrNotFound, errors.Cause(s.Orders.UpdateStatus(ctx, order.UpdateStatus{OrderID: "2", Status: "delivered"})))

	require.NoError(t, s.Orders.UpdateStatus(ctx, order.UpdateStatus{OrderID: " 1 ", Status: "UNABLE"}))
	tbl, err := s.Store.Get(ctx, sheet.Orders)
	require.NoError(t, err)
	assert.Equal(t, "Unable", tbl.Rows[0][5])
}

func TestService_ClearData(t *testing.T) {
	s := testutil.NewServices(t)
	ctx := context.Background()
	testutil.CreateStudent(t, s.Accounts, "Ravi", "ravi@slps.one", pwd, "18/20", "5A")
	testutil.CreateStaff(t, s.Accounts, "kitchen", "Kitchen Crew", "", pwd)
	s.Store.Drop(sheet.Orders)

	require.NoError(t, s.Orders.ClearData(ctx))
	counts, err := s.Accounts.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, account.Counts{Staff: 1}, counts)
}
