package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/adminhub/chat-notify-go/internal/bridge"
	"github.com/adminhub/chat-notify-go/internal/config"
	"github.com/adminhub/chat-notify-go/internal/database"
	"github.com/adminhub/chat-notify-go/internal/gate"
	"github.com/adminhub/chat-notify-go/internal/handler"
	"github.com/adminhub/chat-notify-go/internal/jobs"
	"github.com/adminhub/chat-notify-go/internal/middleware"
	"github.com/adminhub/chat-notify-go/internal/notify"
	"github.com/adminhub/chat-notify-go/internal/redis"
	"github.com/adminhub/chat-notify-go/internal/repository"
	"github.com/adminhub/chat-notify-go/internal/sse"
	"github.com/adminhub/chat-notify-go/internal/store"
	"github.com/adminhub/chat-notify-go/internal/token"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")
	} else {
		log.Info().Msg("no REDIS_URL: notification fan-out stays in-process")
	}

	var notificationRepo repository.NotificationRepository
	var db *database.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		pingCtx, pingCancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
		if err := db.Ping(pingCtx); err != nil {
			log.Fatal().Err(err).Msg("failed to ping database")
		}
		pingCancel()
		log.Info().Msg("database connected")

		notificationRepo = repository.NewNotificationRepository(db.DB)
	} else {
		log.Info().Msg("no DATABASE_URL: notification audit trail disabled")
	}

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	dispatcher := notify.NewBrokerDispatcher(broker, cfg.Identity, notificationRepo)
	sessions := store.New()

	var tokens token.Provider
	if cfg.ChatTokenFile != "" {
		tokens = &token.FileProvider{Path: cfg.ChatTokenFile}
	} else {
		tokens = token.Static(cfg.ChatToken)
	}

	manager := bridge.NewManager(bridge.Config{
		ServerURL: cfg.ChatServerURL,
	}, nil, tokens, sessions, dispatcher)

	var capStore gate.CapabilityStore = gate.NewStaticStore(cfg.Grants())
	if redisClient != nil {
		capStore = gate.NewRedisStore(redisClient, capStore)
	}
	notifyGate := gate.New(capStore, cfg.LiveChatRoute)

	startCtx, startCancel := context.WithTimeout(context.Background(), config.DialTimeout)
	if notifyGate.Allow(startCtx, cfg.Identity, "/") {
		manager.Start(startCtx)
	} else {
		log.Info().
			Str("identity", cfg.Identity).
			Msg("identity lacks the notification capability, bridge not started")
	}
	startCancel()
	defer manager.Stop()

	authMiddleware := middleware.NewAuthMiddleware(cfg.ServiceToken, cfg.Identity)

	statusHandler := handler.NewStatusHandler(manager, sessions)
	eventsHandler := handler.NewEventsHandler(broker, manager)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMiddleware.Handler)

		// the SSE stream must outlive any request timeout
		r.Get("/events", eventsHandler.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
			r.Mount("/", statusHandler.Routes())
			if notificationRepo != nil {
				r.Mount("/notifications", handler.NewNotificationsHandler(notificationRepo).Routes())
			}
		})
	})

	if notificationRepo != nil {
		retention := time.Duration(cfg.AuditRetentionDays) * 24 * time.Hour
		cleanupJob := jobs.NewCleanupJob(notificationRepo, retention, config.CleanupJobInterval)
		cleanupJob.Start()
		defer cleanupJob.Stop()
	}

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     r,
		ReadTimeout: config.ServerReadTimeout,
		// SSE streams stay open indefinitely
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
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
