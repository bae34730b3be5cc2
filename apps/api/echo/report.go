package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/slps/canteen/core"
	"github.com/slps/canteen/core/account"
	"github.com/slps/canteen/core/order"
	"github.com/slps/canteen/core/report"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type reportApi struct {
	orderSvc   *order.Service
	accountSvc *account.Service
	logger     core.Logger
}

func registerReportAPI(e *echo.Echo, auth *sessionAuth, orderSvc *order.Service, accountSvc *account.Service, logger core.Logger) {
	api := reportApi{orderSvc: orderSvc, accountSvc: accountSvc, logger: logger}

	managers := auth.withRoles(account.RoleStaff, account.RoleTeacher)
	e.GET("/download_orders_pdf", api.downloadPDF, managers...)
	e.GET("/download_orders_xlsx", api.downloadXLSX, managers...)
}

func (api *reportApi) build(ctx echo.Context) (report.Report, error) {
	now := api.orderSvc.Now()
	var filter PeriodFilter
	if err := filter.Bind(ctx, now.Location()); err != nil {
		return report.Report{}, err
	}
	orders, err := api.orderSvc.List(ctx.Request().Context())
	if err != nil {
		return report.Report{}, errors.Wrap(err, "listing orders")
	}
	// stored names are kept when the students cannot be read
	if students, err := api.accountSvc.ListStudents(ctx.Request().Context()); err != nil {
		api.logger.Warn(fmt.Sprintf("report without student details: %v", err))
	} else {
		orders = report.FillStudents(orders, students)
	}
	return report.Build(orders, filter.Period, now), nil
}

// Handlers

func (api *reportApi) downloadPDF(ctx echo.Context) error {
	rep, err := api.build(ctx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err = report.WritePDF(&buf, rep); err != nil {
		return errors.Wrap(err, "writing pdf report")
	}
	return attachment(ctx, rep.Filename()+".pdf", "application/pdf", buf.Bytes())
}

func (api *reportApi) downloadXLSX(ctx echo.Context) error {
	rep, err := api.build(ctx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err = report.WriteXLSX(&buf, rep); err != nil {
		return errors.Wrap(err, "writing xlsx report")
	}
	return attachment(ctx, rep.Filename()+".xlsx", mimeXLSX, buf.Bytes())
}

func attachment(ctx echo.Context, name, contentType string, data []byte) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return ctx.Blob(http.StatusOK, contentType, data)
}
