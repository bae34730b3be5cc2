package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/slps/canteen/apps/api/echo"
	"github.com/slps/canteen/core/account"
	"github.com/slps/canteen/core/chat"
	"github.com/slps/canteen/tests"
)

var (
	errMissingCookie = httpErr{Error: "missing or malformed jwt"}
	errNotAuthed     = httpErr{Error: "user not authenticated"}
	errBadLogin      = httpErr{Error: "invalid user id or password"}
)

// app bundles the server under test with the services behind it.
type app struct {
	*testutil.Services
	server *echoapi.Server
}

func setup(t *testing.T, llm ...chat.LLM) *app {
	svcs := testutil.NewServices(t, llm...)
	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:        svcs.Conf,
		Logger:      svcs.Logger,
		Validate:    svcs.Validate,
		Translator:  svcs.Translator,
		Store:       svcs.Store,
		AccountSvc:  svcs.Accounts,
		MenuSvc:     svcs.Menu,
		OrderSvc:    svcs.Orders,
		HealthSvc:   svcs.Health,
		FeedbackSvc: svcs.Feedback,
		ChatSvc:     svcs.Chat,
	})
	return &app{Services: svcs, server: server}
}

func (a *app) serve(req *http.Request, rec *httptest.ResponseRecorder) {
	a.server.ServeHTTP(rec, req)
}

// login posts credentials to `path` and returns the session cookie set by the server.
func (a *app) login(t *testing.T, path string, credentials interface{}) *http.Cookie {
	req, rec := newRequest(http.MethodPost, path, marchallObj(t, credentials))
	a.serve(req, rec)
	if rec.Code != http.StatusOK {
		t.Fatalf("login() failed: code = %d; body %s", rec.Code, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == a.Conf.Server.SessionCookieName {
			return c
		}
	}
	t.Fatalf("login() failed: no session cookie")
	return nil
}

func (a *app) studentCookie(t *testing.T, std account.Student, pwd string) *http.Cookie {
	return a.login(t, "/student_login", account.StudentLogin{UserID: std.UserID, Password: pwd})
}

func (a *app) teacherCookie(t *testing.T, tch account.Teacher, pwd string) *http.Cookie {
	return a.login(t, "/teacher_login", account.StaffLogin{StaffID: tch.StaffID, Password: pwd})
}

func (a *app) staffCookie(t *testing.T, stf account.Staff, pwd string) *http.Cookie {
	return a.login(t, "/staff_login", account.StaffLogin{StaffID: stf.StaffID, Password: pwd})
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	cookie   *http.Cookie
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path string, cookie *http.Cookie, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, nil, data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarshalMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var data map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &data); err != nil {
		t.Fatalf("unmarshalMap() failed: %v; body %s", err, rec.Body.String())
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	if _, ok := j1.([]interface{}); !ok {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, a *app, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.cookie, tt.body)
			a.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}
