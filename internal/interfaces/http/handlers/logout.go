package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"cdrcgi/internal/application/sessions"
	domainSession "cdrcgi/internal/domain/session"
	"cdrcgi/internal/interfaces/http/htmlpage"
	"cdrcgi/internal/shared/logger"
)

// LogoutHandler ends a session and lands the browser back on the home
// page as guest.
type LogoutHandler struct {
	sessions *sessions.Service
}

func NewLogoutHandler(sessionService *sessions.Service) *LogoutHandler {
	return &LogoutHandler{sessions: sessionService}
}

func (h *LogoutHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	session, err := h.sessions.Resolve(ctx, sessionParam(c))
	if err != nil {
		logger.Error("session resolution failed", "error", err)
		session = domainSession.Guest()
	}

	page := htmlpage.New("CDR Administration", "Log Out")
	if session.IsGuest() {
		// Benign guest logout: a warning, never an error, and no
		// upstream call.
		page.AddAlert("You are not currently logged in.", htmlpage.SeverityWarning)
	} else if err := h.sessions.Logout(ctx, session); err != nil {
		logger.Error("logout failed", "user", session.UserName, "error", err)
		page.AddAlert("Logout failed; the problem has been logged.", htmlpage.SeverityError)
	} else {
		page.AddAlert(fmt.Sprintf("Session for %s ended.", session.UserName), htmlpage.SeverityInfo)
	}

	page.MenuLink("admin.py", "Admin Menu", map[string]string{"Session": domainSession.GuestName})
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page.Render()))
}

func sessionParam(c *gin.Context) string {
	if v, ok := c.GetPostForm("Session"); ok {
		return v
	}
	return c.Query("Session")
}
