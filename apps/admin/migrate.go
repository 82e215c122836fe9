package main

import (
	"errors"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/storage/database"
)

var (
	gooseRunFunc = database.RunMigrations // mockable

	errNoSQLDatabase = errors.New("migrations only apply to the postgres engine")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoSQLDatabase
	}
	return gooseRunFunc(cli.db, args[0], args[1:]...)
}
