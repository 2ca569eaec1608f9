package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"cdrcgi/internal/application/search"
	"cdrcgi/internal/interfaces/http/controller"
	"cdrcgi/internal/interfaces/http/htmlpage"
	"cdrcgi/internal/shared/cdrid"
)

// SearchHandler serves the per-doctype advanced-search forms and their
// result reports.
type SearchHandler struct {
	dispatcher  *controller.Dispatcher
	search      *search.Service
	definitions map[string]search.Definition
}

func NewSearchHandler(dispatcher *controller.Dispatcher, searchService *search.Service,
	definitions map[string]search.Definition) *SearchHandler {
	return &SearchHandler{
		dispatcher:  dispatcher,
		search:      searchService,
		definitions: definitions,
	}
}

func (h *SearchHandler) Handle(c *gin.Context) {
	doctype := c.Param("doctype")
	def, ok := h.definitions[doctype]
	if !ok {
		c.String(http.StatusNotFound, "no search form for doctype %q", doctype)
		return
	}

	endpoint := &searchEndpoint{svc: h.search, def: def}
	h.dispatcher.Run(c, controller.Options{
		Subtitle: def.Doctype + " Advanced Search",
		Logname:  "AdvancedSearch",
		Submit:   "Search",
	}, endpoint)
}

type searchEndpoint struct {
	svc *search.Service
	def search.Definition
}

func (e *searchEndpoint) PopulateForm(ctx context.Context, page *htmlpage.Page) error {
	fs := page.Fieldset("Search Fields")
	for _, field := range e.def.Fields {
		if field.Kind == search.Picklist {
			values, err := e.svc.Values(ctx, field)
			if err != nil {
				return err
			}
			fs.Select(field.Name, field.Label, values, "")
			continue
		}
		fs.TextField(field.Name, field.Label, "")
	}
	fs.Done()
	return nil
}

func (e *searchEndpoint) ShowReport(ctrl *controller.Controller) error {
	submitted := map[string]string{}
	for _, field := range e.def.Fields {
		submitted[field.Name] = ctrl.FormValue(field.Name)
	}

	result, err := e.svc.Search(ctrl.Context(), e.def, submitted)
	if err != nil {
		return err
	}
	if result.Truncated {
		ctrl.AddAlert("Too many matches; only the first rows are shown.", htmlpage.SeverityWarning)
	}

	page := ctrl.NewPage()
	table := &htmlpage.Table{
		Caption: fmt.Sprintf("%d document(s) found", len(result.Rows)),
		Columns: []string{"CDR ID", "Title"},
	}
	for _, row := range result.Rows {
		table.Rows = append(table.Rows, []string{cdrid.Format(int(row.ID)), row.Title})
	}
	page.AddTable(table)
	ctrl.SendPage(page.Render(), "text/html")
	return nil
}
