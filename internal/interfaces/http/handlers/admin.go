// Package handlers holds the HTTP entry points: the interactive admin
// surfaces and the small JSON API over the same data.
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cdrcgi/internal/application/sessions"
	"cdrcgi/internal/infrastructure/ratelimit"
	"cdrcgi/internal/shared/logger"
)

// AuthUserHeader carries the account name the fronting web server
// verified before proxying to us. It may include a domain qualifier
// ("NIH\\jdoe").
const AuthUserHeader = "Auth-User"

// AdminHandler bridges single sign-on into a repository session and
// hands the browser to the admin menu.
type AdminHandler struct {
	sessions *sessions.Service
	limiter  ratelimit.RateLimiter
	limits   ratelimit.Limits
	baseURL  string
}

func NewAdminHandler(sessionService *sessions.Service, limiter ratelimit.RateLimiter,
	limits ratelimit.Limits, baseURL string) *AdminHandler {
	return &AdminHandler{
		sessions: sessionService,
		limiter:  limiter,
		limits:   limits,
		baseURL:  baseURL,
	}
}

// Login exchanges the verified account name for a session token and
// redirects into the admin menu.
func (h *AdminHandler) Login(c *gin.Context) {
	authUser := c.GetHeader(AuthUserHeader)
	if authUser == "" {
		c.String(http.StatusUnauthorized, "Unauthorized")
		return
	}

	// Strip the domain qualifier; the repository knows bare names.
	name := authUser
	if i := strings.LastIndex(authUser, `\`); i >= 0 {
		name = authUser[i+1:]
	}

	if h.limiter != nil {
		allowed, err := h.limiter.Allow(name, h.limits)
		if err != nil {
			logger.Warn("login rate limiter unavailable", "error", err)
		} else if !allowed {
			c.String(http.StatusTooManyRequests, "Too many login attempts")
			return
		}
	}

	token, err := h.sessions.Login(c.Request.Context(), name)
	if err != nil {
		logger.Warn("login rejected", "user", name, "error", err)
		c.String(http.StatusUnauthorized, "Unauthorized")
		return
	}

	location := fmt.Sprintf("%s/cgi-bin/cdr/admin.py?Session=%s", h.baseURL, token)
	c.Redirect(http.StatusFound, location)
}
