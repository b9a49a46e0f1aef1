package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/porton/gate-relay/internal/clock"
	"github.com/porton/gate-relay/internal/config"
	"github.com/porton/gate-relay/internal/database"
	"github.com/porton/gate-relay/internal/handler"
	"github.com/porton/gate-relay/internal/jobs"
	"github.com/porton/gate-relay/internal/metrics"
	"github.com/porton/gate-relay/internal/middleware"
	"github.com/porton/gate-relay/internal/redis"
	"github.com/porton/gate-relay/internal/repository"
	"github.com/porton/gate-relay/internal/service"
	"github.com/porton/gate-relay/internal/sse"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	loc, err := clock.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load timezone")
	}
	clk := clock.New(loc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	codeRepo, logRepo, closeStore := openStore(ctx, cfg)
	defer closeStore()

	var redisClient *redis.Client
	var rateLimiter *service.RateLimiter
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		rateLimiter = service.NewRateLimiter(redisClient.Client)
		log.Info().Msg("redis connected")
	} else {
		log.Info().Msg("REDIS_URL not set: using in-memory rate limiting and event broadcast")
	}

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	actuator := service.NewWebhookActuator(cfg.WebhookURL, cfg.WebhookMethod, cfg.WebhookTimeout(), m)
	accessService := service.NewAccessService(codeRepo, logRepo, actuator, clk, broker, m, cfg.LogUnknownPINs)
	codeService := service.NewCodeService(codeRepo)
	logService := service.NewLogService(logRepo, loc)

	router := handler.NewRouter(handler.RouterDeps{
		Codes:  handler.NewCodeHandler(codeService),
		Logs:   handler.NewLogHandler(logService, cfg.LogListLimit),
		Open:   handler.NewOpenHandler(accessService),
		Events: handler.NewEventsHandler(broker),
		Health: handler.NewHealthHandler(clk, loc.String()),

		Metrics:         m,
		CORS:            middleware.NewCORSMiddleware(cfg.CORSAllowOrigin, cfg.CORSAllowMethods, cfg.CORSAllowHeaders),
		Admin:           middleware.NewAdminMiddleware(cfg.AdminCode, cfg.AdminCodeHash),
		OpenRateLimit:   middleware.NewIPRateLimitMiddleware(rateLimiter, cfg.OpenRateLimitPerMin, config.OpenRateLimitWindow, "open"),
		BodyLimit:       middleware.NewBodyLimitMiddleware(0),
		SecurityHeaders: middleware.NewSecurityHeadersMiddleware(cfg.HSTSEnabled),
		StaticDir:       cfg.StaticDir,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	retentionJob := jobs.NewRetentionJob(logService, clk, cfg.LogRetention(), config.CleanupJobInterval)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().
			Str("addr", cfg.Addr()).
			Str("backend", cfg.StoreBackend).
			Str("timezone", loc.String()).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return retentionJob.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
		defer cancel()

		// Streams never finish on their own.
		broker.Close()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server forced to shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server error")
	}

	log.Info().Msg("server stopped")
}

// openStore builds the code and log repositories for the configured backend
// and returns a function releasing them.
func openStore(ctx context.Context, cfg *config.Config) (repository.CodeRepository, repository.AccessLogRepository, func()) {
	if cfg.StoreBackend == config.BackendFile {
		store, err := repository.NewFileStore(cfg.DataDir, cfg.SeedDefaultCode)
		if err != nil {
			log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("failed to open file store")
		}
		log.Info().Str("dir", cfg.DataDir).Msg("file store ready")
		return store.Codes(), store.Logs(), func() {}
	}

	db, err := database.Connect(cfg.StoreBackend, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	pingCtx, cancel := context.WithTimeout(ctx, config.DBPingTimeout)
	defer cancel()
	if err := db.Ping(pingCtx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}
	log.Info().Str("driver", cfg.StoreBackend).Msg("database connected")

	return repository.NewCodeRepository(db.DB), repository.NewAccessLogRepository(db.DB), func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close database")
		}
	}
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
