package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/slps/canteen/core/chat"
)

type chatApi struct {
	svc *chat.Service
}

func registerChatAPI(e *echo.Echo, auth *sessionAuth, svc *chat.Service) {
	api := chatApi{svc: svc}

	// visitors may chat too; a session only unlocks personal answers
	e.POST("/api/ai_chat", api.reply, auth.optional)
}

func (api *chatApi) reply(ctx echo.Context) error {
	var data chat.Request
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to chat.Request")
	}
	resp, err := api.svc.Reply(ctx.Request().Context(), data, contextSession(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, resp)
}
