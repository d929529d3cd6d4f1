package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/schooldocs/apps/api/echo"
	"github.com/trezcool/schooldocs/core"
	"github.com/trezcool/schooldocs/core/archive"
	"github.com/trezcool/schooldocs/core/document"
	logsvc "github.com/trezcool/schooldocs/services/logger"
	metricsvc "github.com/trezcool/schooldocs/services/metrics"
	cloudinarystore "github.com/trezcool/schooldocs/services/storage/cloudinary"
	"github.com/trezcool/schooldocs/storage/database"
	sqlxrepos "github.com/trezcool/schooldocs/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type ServerParam struct {
	dig.In
	Conf        *core.Config
	Logger      core.Logger
	DocumentSvc *document.Service
	Exporter    *archive.Exporter
	Fetcher     archive.Fetcher
	Metrics     *metricsvc.ExportMetrics
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DBExecutor) {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(context.Background(), conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db
}

// newFileStore returns nil when Cloudinary is not configured: the API only downloads.
func newFileStore(conf *core.Config, logger core.Logger) document.FileStore {
	if !conf.Cloudinary.IsConfigured() {
		logger.Info("file store not configured: uploads disabled")
		return nil
	}
	store, err := cloudinarystore.NewStore(conf.Cloudinary)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file store: %v", err), err)
	}
	return store
}

func newFetcher(conf *core.Config) archive.Fetcher {
	return archive.NewHTTPFetcher(archive.FetcherConfig{
		Timeout:   conf.Export.FetchTimeout,
		UserAgent: conf.Export.UserAgent,
	})
}

func newExporter(conf *core.Config, fetcher archive.Fetcher) *archive.Exporter {
	return archive.NewExporter(fetcher, archive.WithConcurrency(conf.Export.Concurrency))
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newExportMetrics(reg *prometheus.Registry) (*metricsvc.ExportMetrics, error) {
	return metricsvc.NewExportMetrics(reg)
}

func newServer(p ServerParam) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:        p.Conf,
		Logger:      p.Logger,
		DocumentSvc: p.DocumentSvc,
		Exporter:    p.Exporter,
		Fetcher:     p.Fetcher,
		Metrics:     p.Metrics,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(sqlxrepos.NewDocumentRepository))
	must(c.Provide(newFileStore))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(document.NewService))
	must(c.Provide(newFetcher))
	must(c.Provide(newExporter))
	must(c.Provide(newRegistry))
	must(c.Provide(newExportMetrics))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
