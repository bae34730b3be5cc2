package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slps/canteen/core/order"
	"github.com/slps/canteen/core/sheet"
	"github.com/slps/canteen/tests"
)

func Test_healthApi_storeHealth(t *testing.T) {
	a := setup(t)
	testutil.CreateStudent(t, a.Accounts, "Asha Rao", "asha@slps.one", pwd, "17/20", "7B")

	tables := func(missing string) []sheet.TableStatus {
		statuses := make([]sheet.TableStatus, 0, len(sheet.AllTables))
		for _, name := range sheet.AllTables {
			st := sheet.TableStatus{Name: name, Exists: name != missing}
			if name == sheet.Students {
				st.Rows = 1
			}
			statuses = append(statuses, st)
		}
		return statuses
	}

	t.Run("healthy", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/health")
		a.serve(req, rec)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{"status": "healthy", "tables": tables("")}),
		}, rec)
	})

	t.Run("missing optional table", func(t *testing.T) {
		a.Store.Drop(sheet.Feedback)
		req, rec := newRequest(http.MethodGet, "/api/health")
		a.serve(req, rec)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{"status": "healthy", "tables": tables(sheet.Feedback)}),
		}, rec)
	})

	t.Run("missing critical table", func(t *testing.T) {
		a.Store.Drop(sheet.Menu)
		req, rec := newRequest(http.MethodGet, "/api/health")
		a.serve(req, rec)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "unhealthy", unmarshalMap(t, rec)["status"])
	})
}

func Test_healthApi_data(t *testing.T) {
	a := setup(t)
	std := testutil.CreateStudent(t, a.Accounts, "Asha Rao", "asha@slps.one", pwd, "17/20", "7B")
	cookie := a.studentCookie(t, std, pwd)

	tests := []httpTest{
		{
			name:     "not logged in",
			method:   http.MethodGet,
			path:     "/api/health_data",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingCookie),
		},
		{
			name:     "no data yet",
			method:   http.MethodGet,
			path:     "/api/health_data",
			cookie:   cookie,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{
				"success": true,
				"userId":  std.UserID,
				"data":    map[string]string{"bmi": "", "height": "", "weight": ""},
			}),
		},
		{
			name:     "missing height & bmi",
			method:   http.MethodPost,
			path:     "/api/health_data",
			body:     []byte(`{"weight": 40}`),
			cookie:   cookie,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"height": "this field is required", "bmi": "this field is required"}`),
		},
		{
			name:     "save numbers & strings",
			method:   http.MethodPost,
			path:     "/api/health_data",
			body:     []byte(`{"bmi": 18.5, "height": "150", "weight": 41.6}`),
			cookie:   cookie,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{
				"success": true,
				"message": "Health data saved successfully",
				"userId":  std.UserID,
			}),
		},
		{
			name:     "saved data",
			method:   http.MethodGet,
			path:     "/api/health_data",
			cookie:   cookie,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{
				"success": true,
				"userId":  std.UserID,
				"data":    map[string]string{"bmi": "18.5", "height": "150", "weight": "41.6"},
			}),
		},
		{
			name:     "points start at zero",
			method:   http.MethodGet,
			path:     "/api/health_points",
			cookie:   cookie,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{"success": true, "userId": std.UserID, "nutritionPoints": 0}),
		},
	}
	runHTTPTests(t, a, tests)
}

func Test_healthApi_nutrition(t *testing.T) {
	a := setup(t)
	testutil.SeedMenu(t, a.Menu)
	std := testutil.CreateStudent(t, a.Accounts, "Asha Rao", "asha@slps.one", pwd, "17/20", "7B")
	cookie := a.studentCookie(t, std, pwd)

	for _, items := range [][]order.Item{
		{{Name: "Fresh Fruit Salad", Quantity: 1}, {Name: "Paneer Pizza Slice", Quantity: 1}},
		{{Name: "Coffee", Quantity: 2}, {Name: "Mystery Dish", Quantity: 1}},
	} {
		if _, err := a.Orders.Place(context.Background(), testutil.StudentSession(std), order.NewOrder{Items: items}); err != nil {
			t.Fatalf("Place() failed: %v", err)
		}
	}

	// fruit salad 10 + pizza (protein) 10, coffee 2 + unknown dish 2; only the pizza counts as a healthy choice
	runHTTPTests(t, a, []httpTest{
		{
			name:     "points",
			method:   http.MethodGet,
			path:     "/api/health_points",
			cookie:   cookie,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{"success": true, "userId": std.UserID, "nutritionPoints": 24}),
		},
		{
			name:     "stats",
			method:   http.MethodGet,
			path:     "/api/nutrition_stats",
			cookie:   cookie,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{
				"success":          true,
				"userId":           std.UserID,
				"date":             a.Orders.Now().Format("2006-01-02"),
				"totalCalories":    150 + 300 + 80,
				"itemsOrdered":     4,
				"healthyChoices":   1,
				"nutritionPercent": 27,
				"orderCount":       2,
				"nutritionPoints":  24,
			}),
		},
	})
}
