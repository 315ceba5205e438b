package main

import (
	"github.com/pkg/errors"

	"github.com/trezcool/sala/storage/database"
)

var gooseRunFunc = database.RunMigrations // mockable

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errors.New("migrations need a postgres database")
	}
	return gooseRunFunc(args[0], cli.db, args[1:]...)
}
