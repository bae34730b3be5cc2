package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/slps/canteen/core"
	"github.com/slps/canteen/core/account"
	"github.com/slps/canteen/core/health"
	"github.com/slps/canteen/core/menu"
	"github.com/slps/canteen/core/order"
	"github.com/slps/canteen/core/sheet"
	emailsvc "github.com/slps/canteen/services/email"
	logsvc "github.com/slps/canteen/services/logger"
	"github.com/slps/canteen/storage/database"
	sqlxstore "github.com/slps/canteen/storage/database/sqlx"
	memsession "github.com/slps/canteen/storage/session/memory"
	"github.com/slps/canteen/storage/sheets/gsheets"
	xlsxsheet "github.com/slps/canteen/storage/sheets/xlsx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(!conf.Debug)

	store, db, closeStore, err := openStore(conf, appLogger)
	errAndDie(err)

	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)

	// start CLI
	accounts := account.NewService(conf, store, memsession.NewStore(), validate)
	menuSvc := menu.NewService(store)
	cli := commandLine{
		store:    store,
		db:       db,
		accounts: accounts,
		menuSvc:  menuSvc,
		orderSvc: order.NewService(store, accounts, health.NewService(store, menuSvc), emailsvc.NewConsoleService(conf, appLogger), appLogger),
	}
	err = cli.run(os.Args)
	if cErr := closeStore(); cErr != nil {
		logger.Printf("closing store: %v", cErr)
	}
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

// openStore opens the configured backend. The postgres database is opened but not migrated.
func openStore(conf *core.Config, appLogger core.Logger) (sheet.Store, *sql.DB, func() error, error) {
	noop := func() error { return nil }

	switch conf.Store.Backend {
	case core.StoreXLSX:
		s, err := xlsxsheet.Open(conf.Store.XLSXPath)
		if err != nil {
			return nil, nil, nil, err
		}
		return s, nil, s.Close, nil
	case core.StoreGSheets:
		s, err := gsheets.Open(context.Background(), conf.Store, appLogger)
		if err != nil {
			return nil, nil, nil, err
		}
		return s, nil, noop, nil
	case core.StorePostgres:
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, nil, nil, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, nil, nil, err
		}
		return sqlxstore.NewStore(db), db, db.Close, nil
	}
	return nil, nil, nil, errors.Errorf("store backend %q cannot be administered", conf.Store.Backend)
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
