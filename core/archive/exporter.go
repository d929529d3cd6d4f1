package archive

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/schooldocs/core"
	"github.com/trezcool/schooldocs/core/document"
)

const (
	DefaultConcurrency = 4
	MinConcurrency     = 1
	MaxConcurrency     = 8

	defaultArchiveName = "documents"
)

// ErrNoDocuments is returned when exporting an empty document list.
var ErrNoDocuments = errors.New("no documents found in this category")

// Status of a document in an export.
type Status string

const (
	StatusIncluded         Status = "included"
	StatusNoRemoteLocation Status = "no_remote_location"
	StatusFetchFailed      Status = "fetch_failed"
)

// Outcome records what happened to one input document.
type Outcome struct {
	Index      int // position in the input list
	DocumentID string
	Title      string
	EntryName  string // StatusIncluded only
	Status     Status
	Err        error // StatusFetchFailed only; usually a *FetchError
}

type Result struct {
	Archive       []byte
	SuggestedName string // without extension
	Succeeded     int
	SkippedNoURL  int
	FailedFetch   int
	Outcomes      []Outcome // in input order
}

// Exporter builds a ZIP archive out of the remote files of a list of documents.
// It is safe for concurrent use; each Export call owns its own archive.
type Exporter struct {
	fetcher     Fetcher
	concurrency int
	now         func() time.Time
}

type Option func(*Exporter)

// WithConcurrency sets the max number of in-flight fetches of one export, clamped to [MinConcurrency, MaxConcurrency].
func WithConcurrency(n int) Option {
	return func(e *Exporter) {
		switch {
		case n < MinConcurrency:
			n = MinConcurrency
		case n > MaxConcurrency:
			n = MaxConcurrency
		}
		e.concurrency = n
	}
}

// WithClock sets the clock used to timestamp archive entries.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

func NewExporter(fetcher Fetcher, opts ...Option) *Exporter {
	e := &Exporter{
		fetcher:     fetcher,
		concurrency: DefaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export fetches the documents' files and archives them under unique names, in input order.
// Documents without remote location or whose fetch fails are skipped and reported in Result.Outcomes.
// When no file could be archived, the archive holds a README.txt describing every document instead.
//
// Only ErrNoDocuments, *BuildError and the error of a cancelled `ctx` are returned.
// Cancellation at any point, assembly included, yields no Result.
// `docs` is not modified.
func (e *Exporter) Export(ctx context.Context, name string, docs []document.Document) (*Result, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outcomes, contents, err := e.fetchAll(ctx, docs)
	if err != nil {
		return nil, err
	}

	res := &Result{
		SuggestedName: sanitize(core.CleanString(name), defaultArchiveName),
		Outcomes:      outcomes,
	}
	builder := NewBuilder(e.now())
	names := newNameRegistry()

	for i := range docs {
		out := &res.Outcomes[i]
		switch out.Status {
		case StatusNoRemoteLocation:
			res.SkippedNoURL++
			continue
		case StatusFetchFailed:
			res.FailedFetch++
			continue
		}

		out.EntryName = names.claim(entryName(docs[i]))
		if err := builder.Append(out.EntryName, contents[i]); err != nil {
			return nil, err
		}
		contents[i] = nil
		res.Succeeded++
	}

	if res.Succeeded == 0 {
		if err := builder.AppendText(readmeName, readme(res.Outcomes, docs)); err != nil {
			return nil, err
		}
	}

	// a cancelled caller gets no archive
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if res.Archive, err = builder.Finalize(); err != nil {
		return nil, err
	}
	return res, nil
}

// fetchAll fetches every document with a remote location, at most e.concurrency at a time.
// Results are indexed like `docs`.
func (e *Exporter) fetchAll(ctx context.Context, docs []document.Document) ([]Outcome, [][]byte, error) {
	outcomes := make([]Outcome, len(docs))
	contents := make([][]byte, len(docs))

	var g errgroup.Group
	g.SetLimit(e.concurrency)

	for i := range docs {
		doc := docs[i]
		outcomes[i] = Outcome{Index: i, DocumentID: doc.ID, Title: doc.DisplayTitle()}
		if !doc.HasRemoteLocation() {
			outcomes[i].Status = StatusNoRemoteLocation
			continue
		}
		if ctx.Err() != nil {
			break
		}

		i := i
		g.Go(func() error {
			data, err := e.fetcher.Fetch(ctx, strings.TrimSpace(doc.RemoteURL.String))
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				outcomes[i].Status = StatusFetchFailed
				outcomes[i].Err = err
				return nil
			}
			outcomes[i].Status = StatusIncluded
			contents[i] = data
			return nil
		})
	}

	// waiting even on cancellation so no fetch outlives the export
	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, nil, ctxErr
	}
	if err != nil {
		return nil, nil, err
	}
	return outcomes, contents, nil
}

func readme(outcomes []Outcome, docs []document.Document) string {
	var sb strings.Builder
	sb.WriteString("لم يتم العثور على ملفات صالحة للتحميل في هذا التصنيف.\n")
	sb.WriteString("No downloadable files were found in this category.\n\n")
	sb.WriteString("الملفات الموجودة / Documents:\n")
	for i, out := range outcomes {
		remote := "no"
		if docs[i].HasRemoteLocation() {
			remote = "yes"
		}
		sb.WriteString("- " + out.Title + " (remote location: " + remote + ")")
		switch out.Status {
		case StatusNoRemoteLocation:
			sb.WriteString(": no remote location")
		case StatusFetchFailed:
			sb.WriteString(": " + fetchReason(out.Err))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func fetchReason(err error) string {
	var fErr *FetchError
	if errors.As(err, &fErr) {
		return fErr.Error()
	}
	if err != nil {
		return "fetch failed: " + err.Error()
	}
	return "fetch failed"
}
