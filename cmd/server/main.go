package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/medflow/auth-starter/internal/config"
	"github.com/medflow/auth-starter/internal/database"
	"github.com/medflow/auth-starter/internal/handler"
	"github.com/medflow/auth-starter/internal/httputil"
	"github.com/medflow/auth-starter/internal/jobs"
	"github.com/medflow/auth-starter/internal/middleware"
	"github.com/medflow/auth-starter/internal/redis"
	"github.com/medflow/auth-starter/internal/repository"
	"github.com/medflow/auth-starter/internal/schema"
	"github.com/medflow/auth-starter/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setLogLevel(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL, cfg.Environment)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database pool")
	}
	defer db.Close()

	// Warm-up is advisory: the pool connects lazily, so a failed probe only
	// costs the early readiness signal.
	if err := db.WarmUp(context.Background()); err != nil {
		log.Error().Err(err).Msg("database warm-up failed, continuing with lazy connect")
	} else {
		log.Info().Msg("database connected")
	}

	if cfg.RunMigrations {
		if err := schema.Migrate(context.Background(), db); err != nil {
			log.Fatal().Err(err).Msg("failed to apply schema")
		}
		log.Info().Msg("schema up to date")
	}

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	userRepo := repository.NewUserRepository(db.DB)
	oauthRepo := repository.NewOAuthAccountRepository(db.DB)
	tokenRepo := repository.NewRefreshTokenRepository(db.DB)

	authService := service.NewAuthService(
		db, userRepo, tokenRepo,
		cfg.JWTSecret, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL(),
	)
	oauthService := service.NewOAuthService(userRepo, oauthRepo)
	rateLimiter := service.NewRateLimiter(redisClient.Client)

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.JWTSecret)
	loginLimiter := middleware.NewIPRateLimitMiddleware(
		rateLimiter, config.LoginRateLimit, config.LoginRateWindow, "login",
	)

	authHandler := handler.NewAuthHandler(authService, loginLimiter)
	oauthHandler := handler.NewOAuthHandler(oauthService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes())

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Handler)
			r.Get("/me", authHandler.Me)
			r.Mount("/me/oauth-accounts", oauthHandler.Routes())
		})
	})

	cleanupJob := jobs.NewCleanupJob(tokenRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("env", cfg.Environment).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
