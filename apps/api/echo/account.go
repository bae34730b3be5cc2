package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/slps/canteen/core/account"
	"github.com/slps/canteen/core/health"
)

type (
	studentUser struct {
		UserID      string       `json:"userId"`
		Type        account.Role `json:"type"`
		Name        string       `json:"name"`
		Email       string       `json:"email"`
		ClassName   string       `json:"className"`
		AdmissionID string       `json:"admissionId"`
	}

	staffUser struct {
		StaffID string       `json:"staffId"`
		Type    account.Role `json:"type"`
		Name    string       `json:"name,omitempty"`
		Email   string       `json:"email,omitempty"`
	}

	loginResponse struct {
		Success bool        `json:"success"`
		User    interface{} `json:"user"`
	}

	googleRegistration struct {
		Success     bool   `json:"success"`
		UserID      string `json:"userId"`
		Email       string `json:"email"`
		Name        string `json:"name"`
		AdmissionID string `json:"admissionId"`
	}

	studentWithPoints struct {
		account.Student
		NutritionPoints int `json:"nutritionPoints"`
	}
)

func newStudentUser(std account.Student) studentUser {
	return studentUser{
		UserID:      std.UserID,
		Type:        account.RoleStudent,
		Name:        std.Name,
		Email:       std.Email,
		ClassName:   std.ClassName,
		AdmissionID: std.AdmissionID,
	}
}

type accountApi struct {
	svc       *account.Service
	healthSvc *health.Service
	auth      *sessionAuth
}

func registerAccountAPI(e *echo.Echo, auth *sessionAuth, svc *account.Service, healthSvc *health.Service) {
	api := accountApi{
		svc:       svc,
		healthSvc: healthSvc,
		auth:      auth,
	}

	// un-authed endpoints
	e.POST("/register", api.registerStudent)
	e.POST("/student_register", api.registerStudent)
	e.POST("/google_student_register", api.registerGoogleStudent)
	e.POST("/student_login", api.studentLogin)
	e.POST("/teacher_register", api.registerTeacher)
	e.POST("/teacher_login", api.teacherLogin)
	e.POST("/staff_login", api.staffLogin)
	e.GET("/logout", api.logout, auth.optional)
	e.POST("/logout", api.logout, auth.optional)

	// authed endpoints
	ag := e.Group("/api", auth.required()...)
	ag.GET("/session", api.session)

	sg := ag.Group("/staff")
	sg.GET("/students", api.listStudents, roleMiddleware(account.RoleStaff, account.RoleTeacher))
	sg.GET("/staff", api.listStaff, roleMiddleware(account.RoleStaff, account.RoleTeacher))
	sg.GET("/teachers", api.listTeachers, roleMiddleware(account.RoleStaff, account.RoleTeacher))
	sg.GET("/dashboard", api.dashboard, roleMiddleware(account.RoleStaff))
}

// Handlers

func (api *accountApi) registerStudent(ctx echo.Context) error {
	var data account.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	std, err := api.svc.RegisterStudent(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	if _, err = api.auth.login(ctx, account.Session{
		UserID:    std.UserID,
		Role:      account.RoleStudent,
		Name:      std.Name,
		Email:     std.Email,
		ClassName: std.ClassName,
	}); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, loginResponse{Success: true, User: newStudentUser(std)})
}

func (api *accountApi) registerGoogleStudent(ctx echo.Context) error {
	var data account.GoogleStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GoogleStudent")
	}
	std, err := api.svc.RegisterGoogleStudent(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, googleRegistration{
		Success:     true,
		UserID:      std.UserID,
		Email:       std.Email,
		Name:        std.Name,
		AdmissionID: std.AdmissionID,
	})
}

func (api *accountApi) studentLogin(ctx echo.Context) error {
	var data account.StudentLogin
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentLogin")
	}
	std, err := api.svc.AuthenticateStudent(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	if _, err = api.auth.login(ctx, account.Session{
		UserID:    std.UserID,
		Role:      account.RoleStudent,
		Name:      std.Name,
		Email:     std.Email,
		ClassName: std.ClassName,
	}); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, loginResponse{Success: true, User: newStudentUser(std)})
}

func (api *accountApi) registerTeacher(ctx echo.Context) error {
	var data account.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	tch, err := api.svc.RegisterTeacher(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return api.teacherSession(ctx, tch)
}

func (api *accountApi) teacherLogin(ctx echo.Context) error {
	var data account.StaffLogin
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StaffLogin")
	}
	tch, err := api.svc.AuthenticateTeacher(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return api.teacherSession(ctx, tch)
}

func (api *accountApi) teacherSession(ctx echo.Context, tch account.Teacher) error {
	if _, err := api.auth.login(ctx, account.Session{
		UserID:    tch.StaffID,
		Role:      account.RoleTeacher,
		Name:      tch.Name,
		Email:     tch.Email,
		ClassName: account.TeacherClass,
	}); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, loginResponse{
		Success: true,
		User:    staffUser{StaffID: tch.StaffID, Type: account.RoleTeacher, Name: tch.Name, Email: tch.Email},
	})
}

func (api *accountApi) staffLogin(ctx echo.Context) error {
	var data account.StaffLogin
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StaffLogin")
	}
	stf, err := api.svc.AuthenticateStaff(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	if _, err = api.auth.login(ctx, account.Session{
		UserID: stf.StaffID,
		Role:   account.RoleStaff,
		Name:   stf.Name,
		Email:  stf.Email,
	}); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, loginResponse{
		Success: true,
		User:    staffUser{StaffID: stf.StaffID, Type: account.RoleStaff, Name: stf.Name},
	})
}

func (api *accountApi) logout(ctx echo.Context) error {
	if err := api.auth.logout(ctx); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true})
}

func (api *accountApi) session(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *accountApi) listStudents(ctx echo.Context) error {
	students, err := api.svc.ListStudents(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	points, err := api.healthSvc.AllPoints(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing nutrition points")
	}
	data := make([]studentWithPoints, 0, len(students))
	for _, std := range students {
		data = append(data, studentWithPoints{Student: std, NutritionPoints: points[std.UserID]})
	}
	return ctx.JSON(http.StatusOK, data)
}

func (api *accountApi) listStaff(ctx echo.Context) error {
	staff, err := api.svc.ListStaff(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing staff")
	}
	return ctx.JSON(http.StatusOK, staff)
}

func (api *accountApi) listTeachers(ctx echo.Context) error {
	teachers, err := api.svc.ListTeachers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing teachers")
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *accountApi) dashboard(ctx echo.Context) error {
	counts, err := api.svc.Count(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "counting accounts")
	}
	return ctx.JSON(http.StatusOK, counts)
}
