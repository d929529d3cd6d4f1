package echoapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/schooldocs/core"
)

func sendAttachment(ctx echo.Context, fileName, contentType string, data []byte) error {
	header := ctx.Response().Header()
	header.Set(echo.HeaderContentDisposition, contentDisposition(fileName))
	header.Set(echo.HeaderContentLength, strconv.Itoa(len(data)))
	return ctx.Blob(http.StatusOK, contentType, data)
}

// contentDisposition returns an attachment disposition with an ASCII `filename` for old clients
// and the UTF-8 `filename*` of RFC 6266.
func contentDisposition(fileName string) string {
	return `attachment; filename="` + core.ASCIIFallback(fileName) + `"; filename*=UTF-8''` + escapeRFC5987(fileName)
}

const hexDigits = "0123456789ABCDEF"

func escapeRFC5987(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAttrChar(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(hexDigits[c>>4])
		sb.WriteByte(hexDigits[c&0x0F])
	}
	return sb.String()
}

func isAttrChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", c) >= 0
}
