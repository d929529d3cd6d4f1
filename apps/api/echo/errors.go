package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schooldocs/core"
	"github.com/trezcool/schooldocs/core/archive"
	"github.com/trezcool/schooldocs/core/document"
)

var (
	errCategoryNotFound  = echo.NewHTTPError(http.StatusNotFound, "category not found")
	errNoDocuments       = echo.NewHTTPError(http.StatusNotFound, "no documents found in this category")
	errDocumentNotFound  = echo.NewHTTPError(http.StatusNotFound, "document not found")
	errFileNotAvailable  = echo.NewHTTPError(http.StatusNotFound, "file not available")
	errFileFetchFailed   = echo.NewHTTPError(http.StatusBadGateway, "could not retrieve file")
	errRequestCancelled  = echo.NewHTTPError(http.StatusServiceUnavailable, "request cancelled")
	errArchiveBuildError = "could not build archive"
)

// domainHTTPError maps domain errors that have a fixed HTTP response.
func domainHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, document.ErrNotFound):
		return errCategoryNotFound
	case errors.Is(err, document.ErrDocumentNotFound):
		return errDocumentNotFound
	case errors.Is(err, archive.ErrNoDocuments):
		return errNoDocuments
	case errors.Is(err, context.Canceled):
		return errRequestCancelled
	}
	return nil
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		if herr := domainHTTPError(err); herr != nil {
			err = herr
		}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *archive.BuildError:
			code = http.StatusInternalServerError
			message = errArchiveBuildError
			logger.Error(errArchiveBuildError, err, requestFields(ctx))
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			logger.Error(msg, errors.Wrap(err, msg), requestFields(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

func requestFields(ctx echo.Context) core.Fields {
	req := ctx.Request()
	return core.Fields{"method": req.Method, "path": req.URL.Path}
}
