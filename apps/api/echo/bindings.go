package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/slps/canteen/core"
	"github.com/slps/canteen/core/order"
)

var (
	periodParam    = "period"
	startDateParam = "start_date"
	endDateParam   = "end_date"
	limitParam     = "limit"
)

// PeriodFilter reads ?period=day|week|month|year|all|custom&start_date=&end_date=
type PeriodFilter struct {
	Period order.Period
}

func (pf *PeriodFilter) Bind(ctx echo.Context, loc *time.Location) error {
	p, err := order.ParsePeriod(
		ctx.QueryParam(periodParam),
		ctx.QueryParam(startDateParam),
		ctx.QueryParam(endDateParam),
		loc,
	)
	if err != nil {
		return err
	}
	pf.Period = p
	return nil
}

// Limit reads ?limit=N; zero means no limit.
type Limit struct {
	N int
}

func (l *Limit) Bind(ctx echo.Context) error {
	val := ctx.QueryParam(limitParam)
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return core.NewValidationError(nil, core.FieldError{Field: limitParam, Error: "expected a positive number"})
	}
	l.N = n
	return nil
}
