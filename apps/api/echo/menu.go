package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/slps/canteen/core/account"
	"github.com/slps/canteen/core/menu"
)

type menuApi struct {
	svc *menu.Service
}

func registerMenuAPI(e *echo.Echo, auth *sessionAuth, svc *menu.Service) {
	api := menuApi{svc: svc}

	e.GET("/api/menu", api.list)
	e.POST("/api/menu/update", api.updateSoldOut, auth.withRoles(account.RoleStaff, account.RoleTeacher)...)
}

// Handlers

func (api *menuApi) list(ctx echo.Context) error {
	items, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing menu")
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *menuApi) updateSoldOut(ctx echo.Context) error {
	var data menu.UpdateSoldOut
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSoldOut")
	}
	if err := api.svc.SetSoldOut(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "itemId": data.ItemID, "soldOut": *data.SoldOut})
}
