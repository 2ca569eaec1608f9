package handlers

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"cdrcgi/internal/interfaces/http/htmlpage"
)

// FallbackHandler is where the web server lands requests that died
// with a gateway error. Most of them are stale bookmarks for scripts
// that no longer exist, which deserve a 404 rather than a 502.
type FallbackHandler struct {
	documentRoot string
}

func NewFallbackHandler(documentRoot string) *FallbackHandler {
	return &FallbackHandler{documentRoot: documentRoot}
}

func (h *FallbackHandler) Handle(c *gin.Context) {
	// The raw query string carries the path of the failed request,
	// percent-encoded by the web server.
	failedPath := c.Request.URL.RawQuery
	if i := strings.IndexByte(failedPath, '&'); i >= 0 {
		failedPath = failedPath[:i]
	}
	if decoded, err := url.QueryUnescape(failedPath); err == nil {
		failedPath = decoded
	}

	if h.scriptExists(failedPath) {
		page := htmlpage.New("CDR Administration", "502 - Server Error")
		page.AddAlert("The CDR server failed to process the request.", htmlpage.SeverityError)
		c.Data(http.StatusBadGateway, "text/html; charset=utf-8", []byte(page.Render()))
		return
	}

	page := htmlpage.New("CDR Administration", "404 - Not Found")
	page.AddAlert("script not found", htmlpage.SeverityError)
	c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte(page.Render()))
}

func (h *FallbackHandler) scriptExists(failedPath string) bool {
	if failedPath == "" {
		return false
	}
	cleaned := filepath.Clean("/" + strings.TrimPrefix(failedPath, "/"))
	full := filepath.Join(h.documentRoot, cleaned)
	if !strings.HasPrefix(full, filepath.Clean(h.documentRoot)) {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && !info.IsDir()
}
