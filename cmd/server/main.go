package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"nextgenschool/internal/cache"
	"nextgenschool/internal/catalog"
	"nextgenschool/internal/config"
	"nextgenschool/internal/database"
	"nextgenschool/internal/handlers"
	"nextgenschool/internal/logger"
	"nextgenschool/internal/metrics"
	"nextgenschool/internal/repository"
	"nextgenschool/internal/security"
	"nextgenschool/internal/service"
	"nextgenschool/internal/session"
	"nextgenschool/internal/syncer"
)

const (
	sessionSweepInterval = 5 * time.Minute
	limiterCleanup       = 10 * time.Minute
)

func main() {
	log := logger.Fallback()

	// Load configuration
	cfg := config.Load()

	appLog, err := logger.New(cfg.LogMode, cfg.LogFile)
	if err != nil {
		log.Fatal("failed to build logger", "error", err)
	}
	log = appLog
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	status := handlers.NewStartupStatus()

	// Initialize database with config (supports sqlite, postgres, mysql)
	status.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal("failed to initialize database", "error", err)
	}
	defer db.Close()
	status.CompleteStep(handlers.StepDatabase)
	log.Info("database connection established", "type", cfg.DatabaseType)

	// Run migrations
	status.SetCurrentStep(handlers.StepMigrations)
	applied, err := db.RunMigrations(ctx, log)
	if err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}
	status.CompleteStep(handlers.StepMigrations)
	log.Info("migrations completed", "applied", applied)

	// Local progress cache: Redis when configured, otherwise in-process
	status.SetCurrentStep(handlers.StepCache)
	var local cache.Cache
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.CachePrefix, cfg.CacheTTL)
		if err != nil {
			log.Fatal("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		}
		defer rc.Close()
		local = rc
		log.Info("local progress cache", "backend", "redis", "addr", cfg.RedisAddr)
	} else {
		local = cache.NewMemory(cfg.CachePrefix)
		log.Info("local progress cache", "backend", "memory")
	}
	status.CompleteStep(handlers.StepCache)

	// Initialize repositories and services
	status.SetCurrentStep(handlers.StepServices)
	m := metrics.New()
	cat := catalog.Default()
	store := repository.NewStore(db)

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, log)
	if err != nil {
		log.Fatal("failed to initialize email service", "error", err)
	}
	authService := service.NewAuthService(store.Parents)
	learnerService := service.NewLearnerService(store.Learners)
	backupService := service.NewBackupService(db)
	notifier := service.NewNotificationService(emailService, store.Parents, store.Learners, cat)

	sessions := session.NewManager(session.Deps{
		Catalog:  cat,
		Policy:   syncer.NewPolicy(store, local, cat, log, m),
		Parents:  authService,
		PINs:     store,
		Notifier: notifier,
		Log:      log,
		Metrics:  m,
	})
	go sessions.RunSweeper(ctx, sessionSweepInterval, cfg.SessionDuration)

	pinLimiter := security.NewRateLimiter(cfg.PINRateLimit, cfg.PINRateWindow)
	go pinLimiter.Cleanup(ctx, limiterCleanup)

	tokens := security.NewTokenIssuer(cfg.JWTSecret, cfg.SessionDuration)

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
	}

	router := &handlers.Router{
		Middleware: handlers.NewMiddleware(sessions, tokens, pinLimiter, log, m),
		Auth: handlers.NewAuthHandler(sessions, tokens, authService, emailService, handlers.AuthConfig{
			OAuthProviders:       oauthProviders,
			OAuthState:           security.NewStateSigner(cfg.JWTSecret),
			OAuthRedirectBaseURL: cfg.OAuthRedirectBaseURL,
			AppBaseURL:           cfg.AppBaseURL,
		}, log),
		Progress: handlers.NewProgressHandler(log),
		Parent:   handlers.NewParentHandler(learnerService, backupService, log),
		Health:   handlers.NewHealthHandler(status, db),
		Metrics:  m.Handler(),
	}
	status.CompleteStep(handlers.StepServices)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "error", err)
		}
	}()
	status.MarkReady()

	// Wait for interrupt signal
	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
