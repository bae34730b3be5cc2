package main

import (
	"errors"

	"github.com/slps/canteen/storage/database"
)

var (
	gooseRunFunc = database.RunMigration // mockable

	errNoDatabase = errors.New("migrate needs the postgres store backend")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(cli.db, args[0], arguments...)
}
