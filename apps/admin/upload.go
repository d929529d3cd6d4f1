package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/schooldocs/core/document"
)

// upload sends the file at `path` to the file store and saves it as a document.
func (cli *commandLine) upload(path string, nd document.NewDocument) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening file")
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "reading file info")
	}
	mimeType, err := detectMimeType(f)
	if err != nil {
		return err
	}

	nd.OriginalName = filepath.Base(path)
	nd.FileSize = info.Size()
	nd.MimeType = mimeType

	doc, err := cli.docSvc.Upload(context.Background(), nd, f)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "%s %s\n", doc.ID, doc.RemoteURL.String)
	return nil
}

// detectMimeType guesses the mime type from the file extension, else from its first bytes.
// The file offset is reset to the start.
func detectMimeType(f *os.File) (string, error) {
	if mt := mime.TypeByExtension(filepath.Ext(f.Name())); mt != "" {
		return mt, nil
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", errors.Wrap(err, "reading file")
	}
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return "", errors.Wrap(err, "rewinding file")
	}
	return http.DetectContentType(head[:n]), nil
}
