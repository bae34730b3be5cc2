package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/slps/canteen/core/health"
	"github.com/slps/canteen/core/order"
	"github.com/slps/canteen/core/sheet"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

type (
	pointsResponse struct {
		Success         bool   `json:"success"`
		UserID          string `json:"userId"`
		NutritionPoints int    `json:"nutritionPoints"`
	}

	healthDataResponse struct {
		Success bool        `json:"success"`
		UserID  string      `json:"userId"`
		Data    health.Data `json:"data"`
	}

	nutritionResponse struct {
		Success bool `json:"success"`
		health.NutritionStats
	}

	storeStatus struct {
		Status string              `json:"status"`
		Tables []sheet.TableStatus `json:"tables,omitempty"`
		Error  string              `json:"error,omitempty"`
	}
)

type healthApi struct {
	svc      *health.Service
	orderSvc *order.Service
	store    sheet.Store
}

func registerHealthAPI(e *echo.Echo, auth *sessionAuth, svc *health.Service, orderSvc *order.Service, store sheet.Store) {
	api := healthApi{
		svc:      svc,
		orderSvc: orderSvc,
		store:    store,
	}

	// un-authed endpoints
	e.GET("/api/health", api.storeHealth)

	// authed endpoints
	ag := e.Group("/api", auth.required()...)
	ag.GET("/health_points", api.points)
	ag.GET("/health_data", api.data)
	ag.POST("/health_data", api.saveData)
	ag.GET("/nutrition_stats", api.nutritionStats)
}

// Handlers

// storeHealth reports the row count of every table. A missing critical table makes it 503.
func (api *healthApi) storeHealth(ctx echo.Context) error {
	tables, healthy, err := sheet.Inspect(ctx.Request().Context(), api.store)
	if err != nil {
		return ctx.JSON(http.StatusServiceUnavailable, storeStatus{Status: statusUnhealthy, Error: err.Error()})
	}
	if !healthy {
		return ctx.JSON(http.StatusServiceUnavailable, storeStatus{Status: statusUnhealthy, Tables: tables})
	}
	return ctx.JSON(http.StatusOK, storeStatus{Status: statusHealthy, Tables: tables})
}

func (api *healthApi) points(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	pts, err := api.svc.Points(ctx.Request().Context(), sess.UserID)
	if err != nil {
		return errors.Wrap(err, "getting nutrition points")
	}
	return ctx.JSON(http.StatusOK, pointsResponse{Success: true, UserID: sess.UserID, NutritionPoints: pts})
}

func (api *healthApi) data(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	data, err := api.svc.Data(ctx.Request().Context(), sess.UserID)
	if err != nil {
		return errors.Wrap(err, "getting health data")
	}
	return ctx.JSON(http.StatusOK, healthDataResponse{Success: true, UserID: sess.UserID, Data: data})
}

func (api *healthApi) saveData(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var data health.Data
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to health.Data")
	}
	if err = api.svc.SaveData(ctx.Request().Context(), sess.UserID, sess.Name, data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Health data saved successfully",
		"userId":  sess.UserID,
	})
}

func (api *healthApi) nutritionStats(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	orders, err := api.orderSvc.ListByUser(ctx.Request().Context(), sess.UserID, 0)
	if err != nil {
		return errors.Wrap(err, "listing user orders")
	}
	stats, err := api.svc.NutritionStats(ctx.Request().Context(), sess.UserID, orders, api.orderSvc.Now())
	if err != nil {
		return errors.Wrap(err, "computing nutrition stats")
	}
	return ctx.JSON(http.StatusOK, nutritionResponse{Success: true, NutritionStats: stats})
}
