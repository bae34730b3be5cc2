package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slps/canteen/core/order"
	emailsvc "github.com/slps/canteen/services/email"
	"github.com/slps/canteen/tests"
)

type ordersResp struct {
	Orders []order.Order `json:"orders"`
}

func decodeOrders(t *testing.T, body []byte) []order.Order {
	var resp ordersResp
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decodeOrders() failed: %v", err)
	}
	return resp.Orders
}

func Test_orderApi(t *testing.T) {
	a := setup(t)
	testutil.SeedMenu(t, a.Menu)
	std := testutil.CreateStudent(t, a.Accounts, "Asha Rao", "asha@slps.one", pwd, "17/20", "7B")
	tch := testutil.CreateTeacher(t, a.Accounts, "Meera Iyer", "T-042", "meera@slps.one", pwd)
	stf := testutil.CreateStaff(t, a.Accounts, "kitchen", "Kitchen Crew", "", pwd)

	stdCookie := a.studentCookie(t, std, pwd)
	tchCookie := a.teacherCookie(t, tch, pwd)
	stfCookie := a.staffCookie(t, stf, pwd)

	stdOrder := order.NewOrder{
		Items:      []order.Item{{Name: "Fresh Fruit Salad", Quantity: 2}, {Name: "Veggie Burger", Quantity: 1}},
		TotalPrice: 200,
	}

	placeTests := []httpTest{
		{
			name:     "place: not logged in",
			body:     marchallObj(t, stdOrder),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingCookie),
		},
		{
			name:     "place: staff cannot order",
			body:     marchallObj(t, stdOrder),
			cookie:   stfCookie,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errNotAuthed),
		},
		{
			name:     "place: no items",
			body:     []byte(`{"items": [{"name": "  ", "quantity": 1}], "totalPrice": 0}`),
			cookie:   stdCookie,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "no items in order"}),
		},
		{
			name:     "place: empty items list",
			body:     []byte(`{"items": [], "totalPrice": 0}`),
			cookie:   stdCookie,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "no items in order"}),
		},
		{
			name:     "place: items missing",
			body:     []byte(`{"totalPrice": 30}`),
			cookie:   tchCookie,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "no items in order"}),
		},
		{
			name:     "place: student",
			body:     marchallObj(t, stdOrder),
			cookie:   stdCookie,
			wantCode: http.StatusOK,
			wantData: []byte(`{"success": true, "orderId": "1", "healthPoints": 10}`),
		},
		{
			name:     "place: teacher",
			body:     []byte(`{"items": [{"name": "Chai"}], "totalPrice": 30}`),
			cookie:   tchCookie,
			wantCode: http.StatusOK,
			wantData: []byte(`{"success": true, "orderId": "2", "healthPoints": 5}`),
		},
	}
	for i := range placeTests {
		placeTests[i].method = http.MethodPost
		placeTests[i].path = "/api/orders/place"
	}
	runHTTPTests(t, a, placeTests)

	t.Run("receipts are mailed", func(t *testing.T) {
		if assert.Len(t, emailsvc.SentMessages, 2) {
			msg := emailsvc.SentMessages[0]
			assert.Equal(t, "asha@slps.one", msg.To[0].Address)
			assert.Equal(t, "Your order #1", msg.Subject)
			assert.Contains(t, msg.TextContent, "Fresh Fruit Salad")
		}
	})

	t.Run("list: students are not allowed", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/orders", stdCookie)
		a.serve(req, rec)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errNotAuthed)}, rec)
	})

	t.Run("list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/orders", stfCookie)
		a.serve(req, rec)
		if !assert.Equal(t, http.StatusOK, rec.Code) {
			return
		}
		orders := decodeOrders(t, rec.Body.Bytes())
		if assert.Len(t, orders, 2) {
			o := orders[0]
			assert.Equal(t, "1", o.OrderID)
			assert.Equal(t, std.UserID, o.UserID)
			assert.Equal(t, "Asha Rao", o.UserName)
			assert.Equal(t, "7B", o.UserClass)
			assert.Equal(t, stdOrder.Items, o.Items)
			assert.Equal(t, 200.0, o.TotalPrice)
			assert.Equal(t, order.StatusPending, o.Status)
			_, ok := order.ParseTime(o.Timestamp, a.Orders.Now().Location())
			assert.True(t, ok, "unreadable timestamp %q", o.Timestamp)

			assert.Equal(t, "Teacher", orders[1].UserClass)
			assert.Equal(t, []order.Item{{Name: "Chai", Quantity: 1}}, orders[1].Items)
		}
	})

	t.Run("mine", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/orders/mine?limit=5", stdCookie)
		a.serve(req, rec)
		if assert.Equal(t, http.StatusOK, rec.Code) {
			orders := decodeOrders(t, rec.Body.Bytes())
			if assert.Len(t, orders, 1) {
				assert.Equal(t, "1", orders[0].OrderID)
			}
		}

		req, rec = newAuthRequest(http.MethodGet, "/api/orders/mine?limit=-1", stdCookie)
		a.serve(req, rec)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"limit": "expected a positive number"}`),
		}, rec)
	})

	statusTests := []httpTest{
		{
			name:     "update status: students are not allowed",
			body:     []byte(`{"orderId": "1", "status": "Delivered"}`),
			cookie:   stdCookie,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errNotAuthed),
		},
		{
			name:     "update status: missing status",
			body:     []byte(`{"orderId": "1"}`),
			cookie:   stfCookie,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "missing orderId or status"}),
		},
		{
			name:     "update status: unknown status",
			body:     []byte(`{"orderId": "1", "status": "shipped"}`),
			cookie:   stfCookie,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"status": "unknown status shipped"}`),
		},
		{
			name:     "update status: unknown order",
			body:     []byte(`{"orderId": "42", "status": "delivered"}`),
			cookie:   stfCookie,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: order.ErrNotFound.Error()}),
		},
		{
			name:     "update status",
			body:     []byte(`{"orderId": "1", "status": "Delivered"}`),
			cookie:   tchCookie,
			wantCode: http.StatusOK,
			wantData: []byte(`{"success": true}`),
		},
	}
	for i := range statusTests {
		statusTests[i].method = http.MethodPost
		statusTests[i].path = "/api/orders/update_status"
	}
	runHTTPTests(t, a, statusTests)

	o, err := a.Orders.Get(context.Background(), "1")
	if assert.NoError(t, err) {
		assert.Equal(t, order.StatusDelivered, o.Status)
	}
	tbl, err := a.Store.Get(context.Background(), "Orders")
	if assert.NoError(t, err) {
		assert.Equal(t, "Delivered", tbl.Rows[0][len(tbl.Header)-1])
	}
}

func Test_orderApi_clearData(t *testing.T) {
	a := setup(t)
	std := testutil.CreateStudent(t, a.Accounts, "Asha Rao", "asha@slps.one", pwd, "17/20", "7B")
	stf := testutil.CreateStaff(t, a.Accounts, "kitchen", "Kitchen Crew", "", pwd)
	if _, err := a.Orders.Place(context.Background(), testutil.StudentSession(std), order.NewOrder{
		Items: []order.Item{{Name: "Chai", Quantity: 1}}, TotalPrice: 30,
	}); err != nil {
		t.Fatalf("Place() failed: %v", err)
	}
	stdCookie := a.studentCookie(t, std, pwd)
	stfCookie := a.staffCookie(t, stf, pwd)

	runHTTPTests(t, a, []httpTest{
		{
			name:     "students are not allowed",
			method:   http.MethodPost,
			path:     "/api/clear_data",
			cookie:   stdCookie,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errNotAuthed),
		},
		{
			name:     "staff clears",
			method:   http.MethodPost,
			path:     "/api/clear_data",
			cookie:   stfCookie,
			wantCode: http.StatusOK,
			wantData: []byte(`{"success": true, "message": "All data cleared successfully"}`),
		},
	})

	orders, err := a.Orders.List(context.Background())
	if assert.NoError(t, err) {
		assert.Empty(t, orders)
	}
	students, err := a.Accounts.ListStudents(context.Background())
	if assert.NoError(t, err) {
		assert.Empty(t, students)
	}
	staff, err := a.Accounts.ListStaff(context.Background())
	if assert.NoError(t, err) {
		assert.Len(t, staff, 1)
	}
}
