package archive

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"io"
	"time"

	"github.com/pkg/errors"
)

// ErrFinalized is returned when appending to, or finalizing, an already finalized Builder.
var ErrFinalized = errors.New("archive already finalized")

// BuildError reports a failure of the archive stream itself. The archive is unusable.
type BuildError struct {
	Entry string
	Err   error
}

func (e *BuildError) Error() string {
	if e.Entry == "" {
		return "building archive: " + e.Err.Error()
	}
	return "building archive entry " + e.Entry + ": " + e.Err.Error()
}

func (e *BuildError) Unwrap() error { return e.Err }

// Builder writes named entries into an in-memory ZIP archive, deflated at best compression.
// A Builder is owned by a single export and is not safe for concurrent use.
type Builder struct {
	buf       *bytes.Buffer
	zw        *zip.Writer
	modified  time.Time
	finalized bool
}

// NewBuilder returns a Builder whose entries are all stamped with `modified`.
func NewBuilder(modified time.Time) *Builder {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})
	if modified.IsZero() {
		modified = time.Now()
	}
	return &Builder{buf: buf, zw: zw, modified: modified.UTC()}
}

// Append adds one file to the archive. Entry names are UTF-8.
func (b *Builder) Append(name string, data []byte) error {
	if b.finalized {
		return ErrFinalized
	}
	w, err := b.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: b.modified,
	})
	if err != nil {
		return &BuildError{Entry: name, Err: err}
	}
	if _, err := w.Write(data); err != nil {
		return &BuildError{Entry: name, Err: err}
	}
	return nil
}

func (b *Builder) AppendText(name, text string) error {
	return b.Append(name, []byte(text))
}

// Finalize closes the archive and returns its bytes. The Builder cannot be used afterwards.
func (b *Builder) Finalize() ([]byte, error) {
	if b.finalized {
		return nil, ErrFinalized
	}
	b.finalized = true
	if err := b.zw.Close(); err != nil {
		return nil, &BuildError{Err: err}
	}
	return b.buf.Bytes(), nil
}
