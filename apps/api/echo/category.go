package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schooldocs/core"
	"github.com/trezcool/schooldocs/core/archive"
	"github.com/trezcool/schooldocs/core/document"
)

type categoryApi struct {
	svc      *document.Service
	exporter *archive.Exporter
	metrics  ExportObserver
	logger   core.Logger
}

func registerCategoryAPI(
	g *echo.Group,
	svc *document.Service,
	exporter *archive.Exporter,
	metrics ExportObserver,
	logger core.Logger,
) {
	api := categoryApi{
		svc:      svc,
		exporter: exporter,
		metrics:  metrics,
		logger:   logger,
	}

	cg := g.Group("/categories")
	cg.GET("", api.query)
	cg.GET("/:id/download", api.download)
}

func (api categoryApi) query(ctx echo.Context) error {
	cats, err := api.svc.QueryCategories(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying categories")
	}
	return ctx.JSON(http.StatusOK, cats)
}

// download sends a ZIP archive of the files of a main category (with its subcategories) or of a subcategory.
func (api categoryApi) download(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	folder, err := api.svc.ResolveFolder(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := api.exporter.Export(reqCtx, folder.Name, folder.Documents)
	api.metrics.ObserveExport(res, err, time.Since(start))
	if err != nil {
		return errors.Wrap(err, "exporting folder")
	}
	api.logExport(folder, res)

	return sendAttachment(ctx, res.SuggestedName+".zip", "application/zip", res.Archive)
}

func (api categoryApi) logExport(folder document.Folder, res *archive.Result) {
	fields := core.Fields{
		"folder":    folder.ID,
		"kind":      folder.Kind,
		"succeeded": res.Succeeded,
		"skipped":   res.SkippedNoURL,
		"failed":    res.FailedFetch,
		"bytes":     len(res.Archive),
	}
	for _, out := range res.Outcomes {
		if out.Status == archive.StatusFetchFailed {
			api.logger.Warn("document fetch failed", out.Err, core.Fields{"folder": folder.ID, "document": out.DocumentID})
		}
	}
	if res.Succeeded == 0 {
		api.logger.Warn("folder exported without files", fields)
		return
	}
	api.logger.Info("folder exported", fields)
}
