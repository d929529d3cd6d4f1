package metricsvc

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/schooldocs/core/archive"
)

// export statuses
const (
	StatusOK         = "ok"
	StatusDegraded   = "degraded" // archive holds only the README
	StatusNoDocs     = "no_documents"
	StatusCancelled  = "cancelled"
	StatusBuildError = "build_error"
	StatusError      = "error"
)

// ExportMetrics records folder archive exports.
type ExportMetrics struct {
	exports      *prometheus.CounterVec
	documents    *prometheus.CounterVec
	duration     prometheus.Histogram
	archiveBytes prometheus.Histogram
}

// NewExportMetrics registers the export collectors on `reg`.
func NewExportMetrics(reg prometheus.Registerer) (*ExportMetrics, error) {
	m := &ExportMetrics{
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schooldocs",
			Name:      "exports_total",
			Help:      "Folder archive exports, by status.",
		}, []string{"status"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schooldocs",
			Name:      "export_documents_total",
			Help:      "Documents processed by folder archive exports, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "schooldocs",
			Name:      "export_duration_seconds",
			Help:      "Duration of folder archive exports.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		archiveBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "schooldocs",
			Name:      "export_archive_bytes",
			Help:      "Size of the produced archives.",
			Buckets:   prometheus.ExponentialBuckets(1<<10, 4, 10), // 1KiB .. 256MiB
		}),
	}

	for _, c := range []prometheus.Collector{m.exports, m.documents, m.duration, m.archiveBytes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveExport records the result of one archive.Exporter.Export call.
func (m *ExportMetrics) ObserveExport(res *archive.Result, err error, elapsed time.Duration) {
	m.duration.Observe(elapsed.Seconds())
	m.exports.WithLabelValues(exportStatus(res, err)).Inc()
	if res == nil {
		return
	}

	m.archiveBytes.Observe(float64(len(res.Archive)))
	for _, out := range res.Outcomes {
		m.documents.WithLabelValues(string(out.Status)).Inc()
	}
}

func exportStatus(res *archive.Result, err error) string {
	var bErr *archive.BuildError
	switch {
	case err == nil && res != nil && res.Succeeded == 0:
		return StatusDegraded
	case err == nil:
		return StatusOK
	case errors.Is(err, archive.ErrNoDocuments):
		return StatusNoDocs
	case errors.As(err, &bErr):
		return StatusBuildError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCancelled
	default:
		return StatusError
	}
}
