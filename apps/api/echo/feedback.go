package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/slps/canteen/core/account"
	"github.com/slps/canteen/core/feedback"
)

type feedbackApi struct {
	svc *feedback.Service
}

func registerFeedbackAPI(e *echo.Echo, auth *sessionAuth, svc *feedback.Service) {
	api := feedbackApi{svc: svc}

	e.POST("/feedback", api.submit)
	e.GET("/staff_feedback", api.list, auth.withRoles(account.RoleStaff)...)
}

// Handlers

func (api *feedbackApi) submit(ctx echo.Context) error {
	var data feedback.NewFeedback
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFeedback")
	}
	if _, err := api.svc.Submit(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "Thank you for your feedback!"})
}

func (api *feedbackApi) list(ctx echo.Context) error {
	list, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing feedback")
	}
	return ctx.JSON(http.StatusOK, list)
}
