package main

import (
	"fmt"
	"os"

	"github.com/trezcool/sala/core"
	"github.com/trezcool/sala/core/user"
	logsvc "github.com/trezcool/sala/services/logger"
	"github.com/trezcool/sala/storage/database"
	sqlxrepos "github.com/trezcool/sala/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger("admin", conf)
	logger.Enable(!conf.Debug)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// start CLI
	usrRepo := sqlxrepos.NewUserRepository(db)
	cli := commandLine{
		db:      db.DB,
		usrSvc:  user.NewService(usrRepo),
		usrRepo: usrRepo,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	_ = logger.Sync()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
