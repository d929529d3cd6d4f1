package archive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// DefaultFetchTimeout bounds a single fetch when FetcherConfig.Timeout is not set.
const DefaultFetchTimeout = 30 * time.Second

// FetchErrorKind tells why a fetch failed.
type FetchErrorKind int

const (
	FetchTransportError FetchErrorKind = iota
	FetchTimeout
	FetchRejected
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchTimeout:
		return "timeout"
	case FetchRejected:
		return "rejected"
	default:
		return "transport error"
	}
}

// FetchError is returned by Fetcher implementations for a failed fetch of one document.
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int // FetchRejected only
	URL        string
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchRejected:
		return fmt.Sprintf("fetch %s: rejected with status %d", e.URL, e.StatusCode)
	case FetchTimeout:
		return fmt.Sprintf("fetch %s: timeout", e.URL)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher retrieves the full content of a remote file.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type FetcherConfig struct {
	Timeout   time.Duration
	UserAgent string
	Client    *http.Client // defaults to a new client without global timeout
}

// HTTPFetcher fetches files over HTTP(S) with a single attempt bounded by a per-call timeout.
type HTTPFetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

var _ Fetcher = (*HTTPFetcher)(nil) // interface compliance check

func NewHTTPFetcher(conf FetcherConfig) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    conf.Client,
		timeout:   conf.Timeout,
		userAgent: conf.UserAgent,
	}
	if f.client == nil {
		f.client = &http.Client{}
	}
	if f.timeout <= 0 {
		f.timeout = DefaultFetchTimeout
	}
	return f
}

// Fetch downloads `url`. Failures are returned as *FetchError, except the cancellation of `ctx`
// which is returned as ctx.Err().
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel() // aborts the in-flight request and releases its connection

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Kind: FetchTransportError, URL: url, Err: errors.Wrap(err, "creating request")}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, f.fetchError(ctx, fetchCtx, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &FetchError{Kind: FetchRejected, StatusCode: resp.StatusCode, URL: url}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, f.fetchError(ctx, fetchCtx, url, errors.Wrap(err, "reading body"))
	}
	return data, nil
}

func (f *HTTPFetcher) fetchError(parent, fetchCtx context.Context, url string, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
		return &FetchError{Kind: FetchTimeout, URL: url, Err: err}
	}
	return &FetchError{Kind: FetchTransportError, URL: url, Err: err}
}
