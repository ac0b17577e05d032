package main

import (
	"context"
	"flag"
	"os"

	"gitlab.com/dirk.krummacker/contacts-globe/internal/config"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/store"
	"go.uber.org/zap"
)

// Creates the tables of the service. Without -file, the schema built into the service for the
// configured driver is applied; with -file, the statements of that file are executed instead.
//
// Usage example on the command line:
// > DBHOST=localhost DBUSER=dirk DBPWD=bullo92 go run main.go
// > DB_DRIVER=sqlite DB_PATH=contacts.db go run main.go -file=../../scripts/testdata.sql
func main() {
	filePtr := flag.String("file", "", "the sql file to execute instead of the built-in schema")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Env); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Get()

	db, err := store.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	if *filePtr == "" {
		if err := db.Migrate(ctx); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
		log.Info("Schema applied", zap.String("driver", cfg.DBDriver))
		return
	}

	readFile, err := os.Open(*filePtr)
	if err != nil {
		log.Fatal("Failed to open sql file", zap.Error(err))
	}
	defer readFile.Close()

	if err := db.ExecScript(ctx, readFile); err != nil {
		log.Fatal("Failed to execute sql file", zap.String("file", *filePtr), zap.Error(err))
	}
	log.Info("SQL file executed", zap.String("file", *filePtr))
}
