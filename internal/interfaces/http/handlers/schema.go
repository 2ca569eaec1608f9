package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cdrcgi/internal/application/docs"
	"cdrcgi/internal/interfaces/http/htmlpage"
	"cdrcgi/internal/shared/cdrid"
	"cdrcgi/internal/shared/errors"
)

// SchemaHandler lists the stored schema documents and shows any one of
// them as escaped XML.
type SchemaHandler struct {
	schemas *docs.SchemaService
}

func NewSchemaHandler(schemaService *docs.SchemaService) *SchemaHandler {
	return &SchemaHandler{schemas: schemaService}
}

func (h *SchemaHandler) Handle(c *gin.Context) {
	ctx := c.Request.Context()

	rawID := c.Query("id")
	if rawID == "" {
		titles, err := h.schemas.List(ctx)
		if err != nil {
			failHTML(c, err)
			return
		}
		page := htmlpage.New("CDR Administration", "Schemas")
		for _, title := range titles {
			page.MenuLink(c.Request.URL.Path, title.Title,
				map[string]string{"id": cdrid.Format(int(title.ID))})
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page.Render()))
		return
	}

	id, err := cdrid.Parse(rawID)
	if err != nil {
		failHTML(c, err)
		return
	}

	doc, err := h.schemas.Get(ctx, uint(id))
	if err != nil {
		failHTML(c, err)
		return
	}

	page := htmlpage.New("CDR Administration", doc.Title)
	page.Pre(doc.XML)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page.Render()))
}

// failHTML renders a typed failure as a minimal HTML page; internal
// detail stays in the logs.
func failHTML(c *gin.Context, err error) {
	message := "An internal failure occurred; the problem has been logged."
	if errors.IsInputError(err) || errors.IsUpstreamError(err) {
		message = errors.GetAppError(err).Message
	}
	page := htmlpage.New("CDR Administration", "Error")
	page.AddAlert(message, htmlpage.SeverityError)
	c.Data(errors.StatusCode(err), "text/html; charset=utf-8", []byte(page.Render()))
}
