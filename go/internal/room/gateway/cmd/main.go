package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/mcdev12/focusroom/go/internal/activity"
	"github.com/mcdev12/focusroom/go/internal/auth"
	"github.com/mcdev12/focusroom/go/internal/config"
	"github.com/mcdev12/focusroom/go/internal/directory"
	"github.com/mcdev12/focusroom/go/internal/room/gateway"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(getEnv("GATEWAY_CONFIG", "gateway.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	if cfg.TokenSecret == "" {
		log.Error().Msg("SOCKET_TOKEN_SECRET is not set; every connection will be rejected")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := gateway.NewMetrics(registry)

	var hubOpts []gateway.HubOption

	// Room activity publishing
	if cfg.NATS.URL != "" {
		natsCfg := activity.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.SubjectPrefix = cfg.NATS.SubjectPrefix

		notifier, err := activity.Connect(natsCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		go notifier.Run(ctx)
		hubOpts = append(hubOpts, gateway.WithNotifier(notifier))
	} else {
		log.Info().Msg("NATS_URL not set, room activity publishing disabled")
	}

	// Room directory
	var (
		pool     *pgxpool.Pool
		dirApp   *directory.App
		dirRepo  *directory.Repository
		admins   *directory.AdminCache
		listener *directory.Listener
	)
	if cfg.Directory.Enabled {
		dbCfg := cfg.Directory.Database
		pool, err = pgxpool.New(ctx, dbCfg.DSN())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create database pool")
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ping database")
		}
		if err := directory.EnsureSchema(ctx, pool, cfg.Directory.NotifyChannel); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare room directory schema")
		}

		dirRepo = directory.NewRepository(pool)
		dirApp = directory.NewApp(dirRepo)
		admins = directory.NewAdminCache()
		hubOpts = append(hubOpts, gateway.WithAdminResolver(admins))

		log.Info().
			Str("database", dbCfg.Redacted()).
			Msg("room directory enabled")
	}

	// Gateway service
	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.HubConfig.IdleTTL = cfg.Rooms.IdleTTL
	gatewayConfig.HubConfig.SweepInterval = cfg.Rooms.SweepInterval
	gatewayConfig.HubConfig.SeedRooms = cfg.Rooms.Seed

	authenticator := auth.NewAuthenticator(cfg.TokenSecret, nil)
	gatewayService := gateway.NewService(gatewayConfig, authenticator, metrics, hubOpts...)

	if cfg.Directory.Enabled {
		listenerCfg := directory.DefaultListenerConfig()
		listenerCfg.DatabaseURL = cfg.Directory.Database.DSN()
		listenerCfg.NotifyChannel = cfg.Directory.NotifyChannel

		listener, err = directory.NewListener(dirRepo, admins, gatewayService.Hub(), listenerCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start room directory listener")
		}
	}

	// Setup HTTP server
	mux := http.NewServeMux()
	gatewayService.RegisterRoutes(mux)
	if dirApp != nil {
		directory.NewHandler(dirApp).RegisterRoutes(mux)
	}
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	setupHealthCheck(mux)

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(c.Handler(mux), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start gateway service
	hubDone := make(chan struct{})
	go func() {
		gatewayService.Start(ctx)
		close(hubDone)
	}()

	if listener != nil {
		go func() {
			if err := listener.Start(ctx); err != nil {
				log.Error().Err(err).Msg("room directory listener stopped with error")
			}
		}()
	}

	// Start HTTP server
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Bool("directory", cfg.Directory.Enabled).
			Bool("nats", cfg.NATS.URL != "").
			Msg("room gateway starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	// Stopping the hub closes every live connection
	cancel()
	select {
	case <-hubDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("timed out waiting for room hub to stop")
	}

	log.Info().Msg("room gateway shutdown complete")
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
