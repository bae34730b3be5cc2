package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/slps/canteen/core"
	"github.com/slps/canteen/core/account"
	"github.com/slps/canteen/core/chat"
	"github.com/slps/canteen/core/feedback"
	"github.com/slps/canteen/core/health"
	"github.com/slps/canteen/core/menu"
	"github.com/slps/canteen/core/order"
	"github.com/slps/canteen/core/sheet"
)

type (
	ServerDeps struct {
		Conf        *core.Config
		Logger      core.Logger
		Validate    *validator.Validate
		Translator  ut.Translator
		Store       sheet.Store
		AccountSvc  *account.Service
		MenuSvc     *menu.Service
		OrderSvc    *order.Service
		HealthSvc   *health.Service
		FeedbackSvc *feedback.Service
		ChatSvc     *chat.Service
	}

	Server struct {
		conf     *core.Config
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		conf:     deps.Conf,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup(deps)
	return s
}

func (s *Server) setup(deps ServerDeps) {
	debug := s.conf.Debug

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(deps.Logger, deps.Translator, s.signalShutdown)
	s.app.Debug = debug

	s.app.GET("/", s.home)

	auth := newSessionAuth(s.conf, deps.AccountSvc)

	registerAccountAPI(s.app, auth, deps.AccountSvc, deps.HealthSvc)
	registerMenuAPI(s.app, auth, deps.MenuSvc)
	registerOrderAPI(s.app, auth, deps.OrderSvc)
	registerHealthAPI(s.app, auth, deps.HealthSvc, deps.OrderSvc, deps.Store)
	registerFeedbackAPI(s.app, auth, deps.FeedbackSvc)
	registerReportAPI(s.app, auth, deps.OrderSvc, deps.AccountSvc, deps.Logger)
	registerChatAPI(s.app, auth, deps.ChatSvc)
}

func (s *Server) Start() {
	addr := fmt.Sprintf("%s:%d", s.conf.Server.Host, s.conf.Server.Port)
	if err := s.app.Start(addr); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

// Shutdown stops the server gracefully, waiting for in-flight requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, fmt.Sprintf("Welcome to %s API!", s.conf.AppName))
}
