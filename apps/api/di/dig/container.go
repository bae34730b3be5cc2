package dig_container

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/slps/canteen/apps/api/echo"
	"github.com/slps/canteen/core"
	"github.com/slps/canteen/core/account"
	"github.com/slps/canteen/core/chat"
	"github.com/slps/canteen/core/feedback"
	"github.com/slps/canteen/core/health"
	"github.com/slps/canteen/core/menu"
	"github.com/slps/canteen/core/order"
	"github.com/slps/canteen/core/sheet"
	appfs "github.com/slps/canteen/fs"
	emailsvc "github.com/slps/canteen/services/email"
	llmsvc "github.com/slps/canteen/services/llm"
	logsvc "github.com/slps/canteen/services/logger"
	"github.com/slps/canteen/storage/database"
	sqlxstore "github.com/slps/canteen/storage/database/sqlx"
	memsession "github.com/slps/canteen/storage/session/memory"
	redissession "github.com/slps/canteen/storage/session/redis"
	"github.com/slps/canteen/storage/sheets/gsheets"
	memsheet "github.com/slps/canteen/storage/sheets/memory"
	xlsxsheet "github.com/slps/canteen/storage/sheets/xlsx"
)

type StoreLoggerParam struct {
	dig.In
	Logger core.Logger `name:"storeLogger"`
}

// Closers are released by main on shutdown.
type Closers struct {
	dig.In
	Store    io.Closer `name:"store"`
	Sessions io.Closer `name:"sessions"`
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

var noopCloser = closerFunc(func() error { return nil })

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStoreLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "STORE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

type storeResult struct {
	dig.Out
	Store  sheet.Store
	Closer io.Closer `name:"store"`
}

// openStore opens the backend selected by conf.Store.Backend.
func openStore(ctx context.Context, conf *core.Config, logger core.Logger) (sheet.Store, io.Closer, error) {
	switch conf.Store.Backend {
	case core.StoreMemory:
		return memsheet.NewStore(), noopCloser, nil
	case core.StoreXLSX:
		s, err := xlsxsheet.Open(conf.Store.XLSXPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case core.StoreGSheets:
		s, err := gsheets.Open(ctx, conf.Store, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, noopCloser, nil
	case core.StorePostgres:
		db, err := setUpDB(conf)
		if err != nil {
			return nil, nil, err
		}
		return sqlxstore.NewStore(db), db, nil
	}
	return nil, nil, errors.Errorf("unknown store backend %q", conf.Store.Backend)
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func newStore(conf *core.Config, loggerParam StoreLoggerParam) storeResult {
	ctx := context.Background()
	logger := loggerParam.Logger

	store, closer, err := openStore(ctx, conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening %s store: %v", conf.Store.Backend, err), err)
	}
	if err = sheet.Bootstrap(ctx, store); err != nil {
		logger.Fatal(fmt.Sprintf("bootstrapping store: %v", err), err)
	}
	return storeResult{Store: store, Closer: closer}
}

type sessionsResult struct {
	dig.Out
	Sessions account.SessionStore
	Closer   io.Closer `name:"sessions"`
}

func newSessionStore(conf *core.Config, logger core.Logger) sessionsResult {
	if !conf.Redis.Enabled {
		return sessionsResult{Sessions: memsession.NewStore(), Closer: noopCloser}
	}
	s, err := redissession.Open(context.Background(), conf.Redis)
	if err != nil {
		logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
	}
	return sessionsResult{Sessions: s, Closer: s}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newPointsRecorder(svc *health.Service) order.PointsRecorder {
	return svc
}

func newLLM(conf *core.Config, logger core.Logger) chat.LLM {
	llm, err := llmsvc.NewGeminiService(context.Background(), conf)
	if err != nil {
		logger.Error(fmt.Sprintf("language model disabled: %v", err), err)
		return nil
	}
	return llm
}

func newKnowledgeBase() (*chat.KnowledgeBase, error) {
	return chat.LoadKnowledgeBase(appfs.FS, chat.KnowledgeFile)
}

type serverParams struct {
	dig.In
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

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:        p.Conf,
		Logger:      p.Logger,
		Validate:    p.Validate,
		Translator:  p.Translator,
		Store:       p.Store,
		AccountSvc:  p.AccountSvc,
		MenuSvc:     p.MenuSvc,
		OrderSvc:    p.OrderSvc,
		HealthSvc:   p.HealthSvc,
		FeedbackSvc: p.FeedbackSvc,
		ChatSvc:     p.ChatSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newStoreLogger, dig.Name("storeLogger")))
	must(c.Provide(newStore))
	must(c.Provide(newSessionStore))
	must(c.Provide(newEmailService))
	must(c.Provide(newTranslator))
	must(c.Provide(validator.New))
	must(c.Provide(account.NewService))
	must(c.Provide(menu.NewService))
	must(c.Provide(health.NewService))
	must(c.Provide(newPointsRecorder))
	must(c.Provide(order.NewService))
	must(c.Provide(feedback.NewService))
	must(c.Provide(newLLM))
	must(c.Provide(newKnowledgeBase))
	must(c.Provide(chat.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
