package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/gin-gonic/gin"

	"cdrcgi/internal/application/search"
	"cdrcgi/internal/interfaces/http/htmlpage"
	"cdrcgi/internal/shared/logger"
	"cdrcgi/internal/shared/services/markdown"
)

// MenuHandler is the home page: operator announcements followed by the
// navigation menu.
type MenuHandler struct {
	definitions       map[string]search.Definition
	announcementsPath string
	markdown          markdown.MarkdownService
}

func NewMenuHandler(definitions map[string]search.Definition, announcementsPath string,
	markdownService markdown.MarkdownService) *MenuHandler {
	return &MenuHandler{
		definitions:       definitions,
		announcementsPath: announcementsPath,
		markdown:          markdownService,
	}
}

func (h *MenuHandler) Handle(c *gin.Context) {
	page := htmlpage.New("CDR Administration", "Main Menu")

	if announcement := h.renderAnnouncements(); announcement != "" {
		page.TrustedHTML(announcement)
	}

	session := sessionParam(c)
	doctypes := make([]string, 0, len(h.definitions))
	for doctype := range h.definitions {
		doctypes = append(doctypes, doctype)
	}
	sort.Strings(doctypes)
	for _, doctype := range doctypes {
		page.MenuLink("search/"+doctype, doctype+" Advanced Search",
			map[string]string{"Session": session})
	}
	page.MenuLink("schemas", "Schemas", map[string]string{"Session": session})
	page.MenuLink("logout", "Log Out", map[string]string{"Session": session})

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page.Render()))
}

// renderAnnouncements converts the operator-maintained markdown file;
// a missing file simply means no announcements.
func (h *MenuHandler) renderAnnouncements() string {
	if h.announcementsPath == "" {
		return ""
	}
	raw, err := os.ReadFile(filepath.Clean(h.announcementsPath))
	if err != nil {
		return ""
	}
	html, err := h.markdown.ToHTMLSanitized(string(raw))
	if err != nil {
		logger.Warn("failed to render announcements", "error", err)
		return ""
	}
	return html
}
