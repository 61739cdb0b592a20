package main

import (
	"context"
	"fmt"
	"os"

	"github.com/trezcool/nyumba/core"
	logsvc "github.com/trezcool/nyumba/services/logger"
	"github.com/trezcool/nyumba/storage/database"
	sqlxrepos "github.com/trezcool/nyumba/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("admin"), conf)

	// set up DB
	db, err := database.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer db.Close()

	// start CLI
	cli := commandLine{
		db:        db,
		adminRepo: sqlxrepos.NewAdminRepository(db),
		out:       os.Stdout,
	}
	if err := cli.run(os.Args[1:]); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		db.Close()
		os.Exit(1)
	}
}
