package archive

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		if r.UserAgent() != "schooldocs-test" {
			http.Error(w, "bad user agent", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("content"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	fetcher := NewHTTPFetcher(FetcherConfig{Timeout: 200 * time.Millisecond, UserAgent: "schooldocs-test"})

	tests := []struct {
		name       string
		url        string
		want       string
		wantKind   FetchErrorKind
		wantStatus int
		wantErr    bool
	}{
		{name: "success", url: srv.URL + "/ok", want: "content"},
		{name: "rejected", url: srv.URL + "/missing", wantErr: true, wantKind: FetchRejected, wantStatus: http.StatusNotFound},
		{name: "timeout", url: srv.URL + "/slow", wantErr: true, wantKind: FetchTimeout},
		{name: "connection refused", url: closedURL + "/ok", wantErr: true, wantKind: FetchTransportError},
		{name: "invalid url", url: "://nope", wantErr: true, wantKind: FetchTransportError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := fetcher.Fetch(context.Background(), tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Fetch() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				assert.Equal(t, tt.want, string(data))
				return
			}
			var fErr *FetchError
			require.True(t, errors.As(err, &fErr), "Fetch() error = %v, want *FetchError", err)
			assert.Equal(t, tt.wantKind, fErr.Kind)
			assert.Equal(t, tt.wantStatus, fErr.StatusCode)
			assert.Equal(t, tt.url, fErr.URL)
		})
	}
}

func TestHTTPFetcher_Fetch_cancelled(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	fetcher := NewHTTPFetcher(FetcherConfig{Timeout: 5 * time.Second})
	data, err := fetcher.Fetch(ctx, srv.URL)
	assert.Nil(t, data)
	assert.ErrorIs(t, err, context.Canceled)

	var fErr *FetchError
	assert.False(t, errors.As(err, &fErr), "cancellation must not be reported as a fetch error")
}

func TestNewHTTPFetcher_defaults(t *testing.T) {
	f := NewHTTPFetcher(FetcherConfig{})
	assert.Equal(t, DefaultFetchTimeout, f.timeout)
	assert.NotNil(t, f.client)
}
