package metricsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schooldocs/core/archive"
)

func TestExportMetrics_ObserveExport(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewExportMetrics(reg)
	require.NoError(t, err)

	m.ObserveExport(&archive.Result{
		Archive:   make([]byte, 2048),
		Succeeded: 2,
		Outcomes: []archive.Outcome{
			{Status: archive.StatusIncluded},
			{Status: archive.StatusIncluded},
			{Status: archive.StatusNoRemoteLocation},
		},
	}, nil, time.Second)
	m.ObserveExport(&archive.Result{
		Archive:  make([]byte, 100),
		Outcomes: []archive.Outcome{{Status: archive.StatusFetchFailed}},
	}, nil, time.Second)
	m.ObserveExport(nil, archive.ErrNoDocuments, time.Millisecond)
	m.ObserveExport(nil, context.Canceled, time.Millisecond)
	m.ObserveExport(nil, &archive.BuildError{Err: errors.New("disk full")}, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.exports.WithLabelValues(StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exports.WithLabelValues(StatusDegraded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exports.WithLabelValues(StatusNoDocs)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exports.WithLabelValues(StatusCancelled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exports.WithLabelValues(StatusBuildError)))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.documents.WithLabelValues(string(archive.StatusIncluded))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.documents.WithLabelValues(string(archive.StatusNoRemoteLocation))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.documents.WithLabelValues(string(archive.StatusFetchFailed))))

	count, err := testutil.GatherAndCount(reg,
		"schooldocs_exports_total",
		"schooldocs_export_documents_total",
		"schooldocs_export_duration_seconds",
		"schooldocs_export_archive_bytes",
	)
	require.NoError(t, err)
	assert.Equal(t, 5+3+1+1, count)
}

func TestNewExportMetrics_duplicate(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewExportMetrics(reg)
	require.NoError(t, err)
	_, err = NewExportMetrics(reg)
	assert.Error(t, err)
}
