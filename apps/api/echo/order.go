package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/slps/canteen/core/account"
	"github.com/slps/canteen/core/order"
)

type (
	ordersResponse struct {
		Orders []order.Order `json:"orders"`
	}

	placeResponse struct {
		Success bool `json:"success"`
		order.Receipt
	}
)

type orderApi struct {
	svc *order.Service
}

func registerOrderAPI(e *echo.Echo, auth *sessionAuth, svc *order.Service) {
	api := orderApi{svc: svc}

	managers := auth.withRoles(account.RoleStaff, account.RoleTeacher)

	e.GET("/api/orders", api.list, managers...)
	e.GET("/api/orders/mine", api.listMine, auth.required()...)
	e.POST("/api/orders/place", api.place, auth.withRoles(account.RoleStudent, account.RoleTeacher)...)
	e.POST("/api/orders/update_status", api.updateStatus, managers...)
	e.POST("/api/clear_data", api.clearData, managers...)
}

// Handlers

func (api *orderApi) list(ctx echo.Context) error {
	orders, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing orders")
	}
	return ctx.JSON(http.StatusOK, ordersResponse{Orders: orders})
}

func (api *orderApi) listMine(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var limit Limit
	if err = limit.Bind(ctx); err != nil {
		return err
	}
	orders, err := api.svc.ListByUser(ctx.Request().Context(), sess.UserID, limit.N)
	if err != nil {
		return errors.Wrap(err, "listing user orders")
	}
	return ctx.JSON(http.StatusOK, ordersResponse{Orders: orders})
}

func (api *orderApi) place(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var data order.NewOrder
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOrder")
	}
	rcpt, err := api.svc.Place(ctx.Request().Context(), sess, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, placeResponse{Success: true, Receipt: rcpt})
}

func (api *orderApi) updateStatus(ctx echo.Context) error {
	var data order.UpdateStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatus")
	}
	if err := api.svc.UpdateStatus(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true})
}

func (api *orderApi) clearData(ctx echo.Context) error {
	if err := api.svc.ClearData(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "clearing data")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "All data cleared successfully"})
}
