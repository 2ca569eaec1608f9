// Package server starts the HTTP service.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"cdrcgi/internal/application/docs"
	"cdrcgi/internal/application/filters"
	"cdrcgi/internal/application/search"
	"cdrcgi/internal/application/sessions"
	"cdrcgi/internal/infrastructure/auth"
	"cdrcgi/internal/infrastructure/config"
	"cdrcgi/internal/infrastructure/database"
	"cdrcgi/internal/infrastructure/email"
	"cdrcgi/internal/infrastructure/permission"
	"cdrcgi/internal/infrastructure/ratelimit"
	"cdrcgi/internal/infrastructure/repository"
	"cdrcgi/internal/infrastructure/upstream"
	httpRouter "cdrcgi/internal/interfaces/http"
	"cdrcgi/internal/interfaces/http/controller"
	"cdrcgi/internal/interfaces/http/handlers"
	"cdrcgi/internal/interfaces/http/middleware"
	"cdrcgi/internal/shared/logger"
	"cdrcgi/internal/shared/services/markdown"
	"cdrcgi/internal/shared/utils"
)

var tier string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the CDR administrative HTTP service with the specified configuration tier.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&tier, "tier", "t", "development", "Deployment tier (development, staging, production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envTier := os.Getenv("CDR_TIER"); envTier != "" {
		tier = envTier
	}

	cfg, err := config.Load(tier)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("starting server", "tier", cfg.Tier)

	if err := utils.RegisterValidators(); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}

	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {
	}

	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("failed to initialize database", "error", err)
	}
	defer database.Close()

	db, err := database.Connect(database.RoleCDR, 0)
	if err != nil {
		logger.Fatal("failed to open privileged connection", "error", err)
	}

	// Wiring, inside out: repositories, upstream client, application
	// services, handlers.
	sessionRepo := repository.NewSessionRepository(db, logger.WithComponent("repository.session"))
	userRepo := repository.NewUserRepository(db, logger.WithComponent("repository.user"))
	actionRepo := repository.NewActionRepository(db, logger.WithComponent("repository.action"))
	documentRepo := repository.NewDocumentRepository(db, logger.WithComponent("repository.document"))
	filterAudit := repository.NewFilterRequestRepository(db, logger.WithComponent("repository.filterrequest"))

	enforcer, err := permission.NewEnforcer(db, logger.WithComponent("permission"))
	if err != nil {
		logger.Fatal("failed to initialize authorization oracle", "error", err)
	}

	upstreamClient := upstream.NewHTTPClient(&cfg.Upstream, logger.WithComponent("upstream"))

	sessionService := sessions.NewService(sessionRepo, userRepo, actionRepo,
		upstreamClient, enforcer,
		time.Duration(cfg.Auth.SessionExpHours)*time.Hour,
		logger.WithComponent("sessions"))

	filterAdapter := filters.NewAdapter(upstreamClient, filterAudit, logger.WithComponent("filters"))
	searchService := search.NewService(db, filterAdapter, cfg.Search.MaxRows)
	definitions := search.Definitions()

	schemaService := docs.NewSchemaService(documentRepo)
	imageService := docs.NewImageService(documentRepo)

	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.AccessExpMinutes)
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	markdownService := markdown.NewMarkdownService()

	var limiter ratelimit.RateLimiter
	if cfg.Redis.Host != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		limiter = ratelimit.NewRedisRateLimiter(redisClient)
	}

	var notifier middleware.Notifier
	if cfg.Email.OpsAddress != "" {
		notifier = email.NewSMTPNotifier(email.SMTPConfig{
			Host:        cfg.Email.SMTPHost,
			Port:        cfg.Email.SMTPPort,
			Username:    cfg.Email.SMTPUser,
			Password:    cfg.Email.SMTPPassword,
			FromAddress: cfg.Email.FromAddress,
			OpsAddress:  cfg.Email.OpsAddress,
		})
	}

	dispatcher := controller.NewDispatcher(sessionService, cfg.Server.BaseURL)

	router := httpRouter.NewRouter(cfg, httpRouter.RouterDeps{
		Menu: handlers.NewMenuHandler(definitions,
			cfg.Paths.BaseDir+"/announcements.md", markdownService),
		Admin: handlers.NewAdminHandler(sessionService, limiter,
			ratelimit.Limits{AttemptsPerMinute: 10, AttemptsPerHour: 100},
			cfg.Server.BaseURL),
		Logout:   handlers.NewLogoutHandler(sessionService),
		Search:   handlers.NewSearchHandler(dispatcher, searchService, definitions),
		QC:       handlers.NewQCHandler(sessionService, searchService, definitions, markdownService),
		Schema:   handlers.NewSchemaHandler(schemaService),
		Image:    handlers.NewImageHandler(imageService),
		Fallback: handlers.NewFallbackHandler(cfg.Paths.DocumentRoot),
		API:      handlers.NewAPIHandler(userRepo, documentRepo, hasher, jwtService),
		Auth:     middleware.NewAuthMiddleware(jwtService),
		Notifier: notifier,
	})

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "address", cfg.Server.GetAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return err
	}

	logger.Info("server exited gracefully")
	return nil
}
