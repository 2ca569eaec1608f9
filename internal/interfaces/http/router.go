// Package http assembles the gin engine from handlers and middleware.
package http

import (
	"github.com/gin-gonic/gin"

	"cdrcgi/internal/infrastructure/config"
	"cdrcgi/internal/interfaces/http/handlers"
	"cdrcgi/internal/interfaces/http/middleware"
	sharedConfig "cdrcgi/internal/shared/config"
)

// RouterDeps collects everything the route table needs.
type RouterDeps struct {
	Menu     *handlers.MenuHandler
	Admin    *handlers.AdminHandler
	Logout   *handlers.LogoutHandler
	Search   *handlers.SearchHandler
	QC       *handlers.QCHandler
	Schema   *handlers.SchemaHandler
	Image    *handlers.ImageHandler
	Fallback *handlers.FallbackHandler
	API      *handlers.APIHandler
	Auth     *middleware.AuthMiddleware
	Notifier middleware.Notifier
}

func NewRouter(cfg *config.Config, deps RouterDeps) *gin.Engine {
	if cfg.Tier == sharedConfig.TierProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery(deps.Notifier))
	router.Use(middleware.Logging())

	router.GET("/", deps.Menu.Handle)
	router.GET("/admin", deps.Admin.Login)
	router.GET("/logout", deps.Logout.Logout)
	router.POST("/logout", deps.Logout.Logout)
	router.GET("/search/:doctype", deps.Search.Handle)
	router.POST("/search/:doctype", deps.Search.Handle)
	router.GET("/qc/:doctype", deps.QC.Handle)
	router.GET("/schemas", deps.Schema.Handle)
	router.GET("/GetCdrImage", deps.Image.Handle)
	router.GET("/fallback", deps.Fallback.Handle)

	api := router.Group("/api")
	{
		api.POST("/token", deps.API.Token)
		api.GET("/doc/:id", deps.Auth.RequireAuth(), deps.API.Doc)
	}

	return router
}
