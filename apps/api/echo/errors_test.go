package echoapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/schooldocs/core"
	"github.com/trezcool/schooldocs/core/archive"
	"github.com/trezcool/schooldocs/core/document"
)

type recordingLogger struct {
	errors []string
}

func (l *recordingLogger) Debug(string, ...interface{}) {}
func (l *recordingLogger) Info(string, ...interface{})  {}
func (l *recordingLogger) Warn(string, ...interface{})  {}
func (l *recordingLogger) Fatal(string, ...interface{}) {}
func (l *recordingLogger) Error(msg string, _ ...interface{}) {
	l.errors = append(l.errors, msg)
}

func Test_newAppHTTPErrorHandler(t *testing.T) {
	buildErr := &archive.BuildError{Entry: "Report.pdf", Err: errors.New("disk full")}

	tests := []struct {
		name         string
		err          error
		wantCode     int
		wantBody     string
		wantLogged   []string
		wantShutdown bool
	}{
		{
			name:       "archive build error",
			err:        pkgerrors.Wrap(buildErr, "exporting folder"),
			wantCode:   http.StatusInternalServerError,
			wantBody:   `{"error":"could not build archive"}`,
			wantLogged: []string{"could not build archive"},
		},
		{
			name:       "unwrapped archive build error",
			err:        buildErr,
			wantCode:   http.StatusInternalServerError,
			wantBody:   `{"error":"could not build archive"}`,
			wantLogged: []string{"could not build archive"},
		},
		{name: "category not found", err: document.ErrNotFound, wantCode: http.StatusNotFound, wantBody: `{"error":"category not found"}`},
		{
			name:     "no documents",
			err:      pkgerrors.Wrap(archive.ErrNoDocuments, "exporting folder"),
			wantCode: http.StatusNotFound,
			wantBody: `{"error":"no documents found in this category"}`,
		},
		{
			name:     "cancelled",
			err:      pkgerrors.Wrap(context.Canceled, "exporting folder"),
			wantCode: http.StatusServiceUnavailable,
			wantBody: `{"error":"request cancelled"}`,
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantCode:   http.StatusInternalServerError,
			wantBody:   `{"error":"Internal Server Error"}`,
			wantLogged: []string{"Internal Server Error"},
		},
		{
			name:         "shutdown error",
			err:          core.NewShutdownError("db gone"),
			wantCode:     http.StatusInternalServerError,
			wantBody:     `{"error":"Internal Server Error"}`,
			wantLogged:   []string{"Internal Server Error"},
			wantShutdown: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := new(recordingLogger)
			shutdown := false
			handler := newAppHTTPErrorHandler(logger, func() { shutdown = true })

			e := echo.New()
			rec := httptest.NewRecorder()
			ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/categories/x/download", nil), rec)

			handler(tt.err, ctx)

			if rec.Code != tt.wantCode {
				t.Errorf("handler() code = %v, wantCode %v", rec.Code, tt.wantCode)
			}
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.Equal(t, tt.wantLogged, logger.errors)
			assert.Equal(t, tt.wantShutdown, shutdown)
		})
	}
}
