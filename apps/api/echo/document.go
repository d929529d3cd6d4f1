package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schooldocs/core"
	"github.com/trezcool/schooldocs/core/archive"
	"github.com/trezcool/schooldocs/core/document"
)

type documentApi struct {
	svc     *document.Service
	fetcher archive.Fetcher
	logger  core.Logger
}

func registerDocumentAPI(g *echo.Group, svc *document.Service, fetcher archive.Fetcher, logger core.Logger) {
	api := documentApi{
		svc:     svc,
		fetcher: fetcher,
		logger:  logger,
	}

	dg := g.Group("/documents")
	dg.GET("/:id/download", api.download)
}

func (api documentApi) download(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	doc, err := api.svc.GetDocument(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}
	if !doc.HasRemoteLocation() {
		return errFileNotAvailable
	}

	data, err := api.fetcher.Fetch(reqCtx, core.CleanString(doc.RemoteURL.String))
	if err != nil {
		var fErr *archive.FetchError
		if errors.As(err, &fErr) {
			api.logger.Warn("document fetch failed", fErr, core.Fields{"document": doc.ID})
			return errFileFetchFailed
		}
		return errors.Wrap(err, "fetching document")
	}

	mimeType := doc.MimeType
	if mimeType == "" {
		mimeType = echo.MIMEOctetStream
	}
	return sendAttachment(ctx, doc.DisplayFileName(), mimeType, data)
}
