package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/slps/canteen/core"
	"github.com/slps/canteen/core/account"
	"github.com/slps/canteen/core/menu"
	"github.com/slps/canteen/core/order"
)

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errInvalidCredentials = echo.NewHTTPError(http.StatusUnauthorized, "invalid user id or password")
)

// domainHTTPError maps the sentinel errors of the core packages to HTTP errors.
func domainHTTPError(err error) *echo.HTTPError {
	switch cause := errors.Cause(err); cause {
	case account.ErrInvalidCredentials:
		return errInvalidCredentials
	case account.ErrSessionNotFound:
		return errUnauthorized
	case order.ErrNotCustomer:
		return echo.NewHTTPError(http.StatusUnauthorized, cause.Error())
	case account.ErrBadSchoolEmail:
		return echo.NewHTTPError(http.StatusBadRequest, cause.Error())
	case account.ErrStudentNotFound, account.ErrTeacherNotFound, account.ErrStaffNotFound,
		menu.ErrNotFound, order.ErrNotFound:
		return echo.NewHTTPError(http.StatusNotFound, cause.Error())
	}
	return nil
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		var origErr interface{} = errors.Cause(err)
		if herr := domainHTTPError(err); herr != nil {
			origErr = herr
		}

		switch origErr := origErr.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var person core.Person
			if sess, sErr := getContextSession(ctx); sErr == nil {
				person = sess.Person()
			}
			logger.Error(msg, errors.Wrap(err, msg), person)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
