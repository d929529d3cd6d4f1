package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/schooldocs/core"
	"github.com/trezcool/schooldocs/core/archive"
	"github.com/trezcool/schooldocs/core/document"
	logsvc "github.com/trezcool/schooldocs/services/logger"
	cloudinarystore "github.com/trezcool/schooldocs/services/storage/cloudinary"
	"github.com/trezcool/schooldocs/storage/database"
	sqlxrepos "github.com/trezcool/schooldocs/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)

	// set up DB
	if err := database.CreateIfNotExist(context.Background(), conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	if err = db.Ping(); err != nil {
		logger.Fatal(fmt.Sprintf("pinging database: %v", err), err)
	}

	// set up services
	var store document.FileStore
	if conf.Cloudinary.IsConfigured() {
		if store, err = cloudinarystore.NewStore(conf.Cloudinary); err != nil {
			logger.Fatal(fmt.Sprintf("setting up file store: %v", err), err)
		}
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	fetcher := archive.NewHTTPFetcher(archive.FetcherConfig{
		Timeout:   conf.Export.FetchTimeout,
		UserAgent: conf.Export.UserAgent,
	})

	// start CLI
	cli := commandLine{
		db:       db,
		docSvc:   document.NewService(sqlxrepos.NewDocumentRepository(db), store, validate, translator),
		exporter: archive.NewExporter(fetcher, archive.WithConcurrency(conf.Export.Concurrency)),
		out:      os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %s", err), err)
		}
		os.Exit(1)
	}
}
