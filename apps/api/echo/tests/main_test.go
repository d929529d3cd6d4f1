package tests

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	. "github.com/trezcool/schooldocs/apps/api/echo"
	"github.com/trezcool/schooldocs/core"
	"github.com/trezcool/schooldocs/core/archive"
	"github.com/trezcool/schooldocs/core/document"
	logsvc "github.com/trezcool/schooldocs/services/logger"
	metricsvc "github.com/trezcool/schooldocs/services/metrics"
	"github.com/trezcool/schooldocs/storage/database/inmem"
)

var (
	app     *Server
	docRepo document.Repository
	metrics *metricsvc.ExportMetrics
	remote  *httptest.Server // file store
)

func TestMain(m *testing.M) {
	conf := &core.Config{Env: "TEST", TestMode: true, Build: "test"}

	// remote file store: /files/<name> serves "content of <name>", /broken/* fails
	remote = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/broken/") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("content of " + strings.TrimPrefix(r.URL.Path, "/files/")))
	}))

	// set up DB & repos
	db, err := inmemdb.Open()
	if err != nil {
		fmt.Printf("inmemdb.Open(): %v", err)
		os.Exit(1)
	}
	docRepo = inmemdb.NewDocumentRepository(db)

	// set up services
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "API : ", 0), conf)
	logger.Enable(false)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	docSvc := document.NewService(docRepo, nil, validate, translator)
	fetcher := archive.NewHTTPFetcher(archive.FetcherConfig{Timeout: 2 * time.Second})

	if metrics, err = metricsvc.NewExportMetrics(prometheus.NewRegistry()); err != nil {
		fmt.Printf("metricsvc.NewExportMetrics(): %v", err)
		os.Exit(1)
	}

	// set up server
	app = NewServer(ServerDeps{
		Conf:        conf,
		Logger:      logger,
		DocumentSvc: docSvc,
		Exporter:    archive.NewExporter(fetcher),
		Fetcher:     fetcher,
		Metrics:     metrics,
	})

	// run tests
	code := m.Run()

	// clean up
	remote.Close()

	os.Exit(code)
}
