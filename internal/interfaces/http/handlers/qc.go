package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cdrcgi/internal/application/search"
	"cdrcgi/internal/application/sessions"
	"cdrcgi/internal/interfaces/http/htmlpage"
	"cdrcgi/internal/shared/cdrid"
	"cdrcgi/internal/shared/logger"
	"cdrcgi/internal/shared/services/markdown"
)

// QCHandler renders one document through its doctype's display filter.
// Search result rows link here.
type QCHandler struct {
	sessions    *sessions.Service
	search      *search.Service
	definitions map[string]search.Definition
	sanitizer   markdown.MarkdownService
}

func NewQCHandler(sessionService *sessions.Service, searchService *search.Service,
	definitions map[string]search.Definition, sanitizer markdown.MarkdownService) *QCHandler {
	return &QCHandler{
		sessions:    sessionService,
		search:      searchService,
		definitions: definitions,
		sanitizer:   sanitizer,
	}
}

func (h *QCHandler) Handle(c *gin.Context) {
	ctx := c.Request.Context()

	def, ok := h.definitions[c.Param("doctype")]
	if !ok {
		c.String(http.StatusNotFound, "no display filter for doctype %q", c.Param("doctype"))
		return
	}

	id, err := cdrid.Parse(c.Query("DocId"))
	if err != nil {
		failHTML(c, err)
		return
	}

	session, err := h.sessions.Resolve(ctx, sessionParam(c))
	if err != nil {
		failHTML(c, err)
		return
	}

	result, err := h.search.Display(ctx, session, def, uint(id))
	if err != nil {
		failHTML(c, err)
		return
	}

	page := htmlpage.New("CDR Administration", def.Doctype+" QC Report")
	for _, warning := range result.Warnings {
		page.AddAlert(warning, htmlpage.SeverityWarning)
	}
	// Filter output originates outside this process; it passes the
	// sanitizer before it may enter the page unescaped.
	page.TrustedHTML(h.sanitizer.Sanitize(result.Text))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page.Render()))

	logger.Debug("QC report rendered", "doctype", def.Doctype, "doc_id", id)
}
