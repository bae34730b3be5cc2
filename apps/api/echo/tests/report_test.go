package tests

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/slps/canteen/core/order"
	"github.com/slps/canteen/tests"
)

func Test_reportApi(t *testing.T) {
	a := setup(t)
	testutil.SeedMenu(t, a.Menu)
	std := testutil.CreateStudent(t, a.Accounts, "Asha Rao", "asha@slps.one", pwd, "17/20", "7B")
	tch := testutil.CreateTeacher(t, a.Accounts, "Meera Iyer", "T-042", "meera@slps.one", pwd)
	if _, err := a.Orders.Place(context.Background(), testutil.StudentSession(std), order.NewOrder{
		Items: []order.Item{{Name: "Chai", Quantity: 2}}, TotalPrice: 60,
	}); err != nil {
		t.Fatalf("Place() failed: %v", err)
	}
	stdCookie := a.studentCookie(t, std, pwd)
	tchCookie := a.teacherCookie(t, tch, pwd)

	runHTTPTests(t, a, []httpTest{
		{
			name:     "pdf: students are not allowed",
			method:   http.MethodGet,
			path:     "/download_orders_pdf",
			cookie:   stdCookie,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errNotAuthed),
		},
		{
			name:     "xlsx: bad custom period",
			method:   http.MethodGet,
			path:     "/download_orders_xlsx?period=custom&start_date=yesterday",
			cookie:   tchCookie,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"start_date": "expected a YYYY-MM-DD date", "end_date": "expected a YYYY-MM-DD date"}`),
		},
		{
			name:     "pdf: reversed custom period",
			method:   http.MethodGet,
			path:     "/download_orders_pdf?period=custom&start_date=2024-05-02&end_date=2024-05-01",
			cookie:   tchCookie,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "end_date is before start_date"}),
		},
	})

	t.Run("pdf", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/download_orders_pdf?period=day", tchCookie)
		a.serve(req, rec)
		if !assert.Equal(t, http.StatusOK, rec.Code) {
			return
		}
		assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
		disposition := rec.Header().Get(echo.HeaderContentDisposition)
		assert.True(t, strings.HasPrefix(disposition, `attachment; filename="canteen_orders_day_`), disposition)
		assert.True(t, strings.HasSuffix(disposition, `.pdf"`), disposition)
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
	})

	t.Run("xlsx", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/download_orders_xlsx?period=all", tchCookie)
		a.serve(req, rec)
		if !assert.Equal(t, http.StatusOK, rec.Code) {
			return
		}
		assert.Equal(t,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			rec.Header().Get(echo.HeaderContentType),
		)
		assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), `.xlsx"`)

		// workbooks are zip archives
		_, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
		assert.NoError(t, err)
	})
}
