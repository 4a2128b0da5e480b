// ingester polls the Bitcoin network and price sources, stores every
// observation in PostgreSQL and pushes it to WebSocket subscribers.
// Usage: go run ./cmd/ingester --config configs/ingester.local.yaml
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/bitcoin-explorer/internal/api"
	"github.com/rickgao/bitcoin-explorer/internal/config"
	"github.com/rickgao/bitcoin-explorer/internal/database"
	"github.com/rickgao/bitcoin-explorer/internal/hub"
	"github.com/rickgao/bitcoin-explorer/internal/ingest"
	"github.com/rickgao/bitcoin-explorer/internal/relay"
	"github.com/rickgao/bitcoin-explorer/internal/server"
	"github.com/rickgao/bitcoin-explorer/internal/store"
	"github.com/rickgao/bitcoin-explorer/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run wires and runs the service, returning the process exit code. Every
// early return still runs the deferred cleanups.
func run(args []string) int {
	fs := flag.NewFlagSet("ingester", flag.ContinueOnError)
	configPath := fs.String("config", "configs/ingester.local.yaml", "path to config file")
	envPath := fs.String("env", ".env", "optional dotenv file loaded before the config")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting ingester", append(version.Attrs(), "config", *configPath)...)

	if err := config.LoadEnvFile(*envPath); err != nil {
		logger.Error("failed to load env file", "path", *envPath, "error", err)
		return 1
	}

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}

	logger.Info("configuration loaded",
		"listen_addr", cfg.Server.ListenAddr,
		"network_url", cfg.Sources.NetworkURL,
		"price_url", cfg.Sources.PriceURL,
		"interval", cfg.Ingest.Interval,
		"redis", cfg.Redis.Enabled(),
	)

	// Cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database; blocks until reachable
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := database.ConnectWithRetry(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return 1
	}
	defer pool.Close()

	logger.Info("database connected")

	observations := store.New(store.Config{QueryTimeout: cfg.Database.QueryTimeout}, pool, logger)
	if err := observations.EnsureSchema(ctx); err != nil {
		logger.Error("failed to create schema", "error", err)
		return 1
	}

	broadcast := hub.New(hub.Config{QueueSize: cfg.Hub.QueueSize}, logger)

	publisher := ingest.Fanout{broadcast}
	var redisRelay *relay.Relay
	if cfg.Redis.Enabled() {
		redisRelay = relay.New(relay.Config{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			Channel:   cfg.Redis.Channel,
			LatestKey: cfg.Redis.LatestKey,
			LatestTTL: cfg.Redis.LatestTTL,
		}, logger)
		if err := redisRelay.Ping(ctx); err != nil {
			// Relay errors are reported per publish; startup continues
			logger.Warn("redis relay unreachable", "addr", cfg.Redis.Addr, "error", err)
		}
		publisher = append(publisher, ingest.Mirror{Name: "redis", Publisher: redisRelay, Logger: logger})
		logger.Info("redis relay enabled", "addr", cfg.Redis.Addr, "channel", cfg.Redis.Channel)
	}

	// Create source client
	opts := []api.ClientOption{
		api.WithLogger(logger),
		api.WithTimeout(cfg.Sources.Timeout),
		api.WithPricePair(cfg.Sources.PriceCoin, cfg.Sources.PriceCurrency),
	}
	if cfg.Sources.InsecureSkipVerify {
		logger.Warn("TLS verification disabled for data sources")
		opts = append(opts, api.WithInsecureSkipVerify())
	}
	sources := api.NewClient(cfg.Sources.NetworkURL, cfg.Sources.PriceURL, opts...)

	loop := ingest.New(ingest.Config{
		Interval:     cfg.Ingest.Interval,
		FetchTimeout: cfg.Sources.Timeout,
		StoreTimeout: cfg.Database.QueryTimeout,
	}, sources, observations, publisher, logger)

	deps := server.Deps{
		Hub:     broadcast,
		History: observations,
		DB:      pool,
		Ingest:  loop,
	}
	if redisRelay != nil {
		deps.Relay = redisRelay
	}

	srv := server.New(server.Config{
		Addr:           cfg.Server.ListenAddr,
		WSPath:         cfg.Server.WSPath,
		HistoryPath:    cfg.Server.HistoryPath,
		HealthPath:     cfg.Server.HealthPath,
		HistoryLimit:   cfg.Ingest.HistoryLimit,
		WriteTimeout:   cfg.Server.WriteTimeout,
		PingInterval:   cfg.Server.PingInterval,
		HealthTimeout:  cfg.Database.QueryTimeout,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: cfg.CORS.AllowedMethods,
		AllowedHeaders: cfg.CORS.AllowedHeaders,
	}, deps, logger)

	if err := loop.Start(ctx); err != nil {
		logger.Error("failed to start ingestion loop", "error", err)
		return 1
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.ListenAndServe)

	g.Go(func() error {
		<-gctx.Done()

		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Loop first so no cycle publishes into a closed hub
		if err := loop.Stop(shutdownCtx); err != nil {
			logger.Warn("ingestion loop did not stop in time", "error", err)
		}
		broadcast.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http server shutdown", "error", err)
		}
		if redisRelay != nil {
			if err := redisRelay.Close(); err != nil {
				logger.Warn("redis relay close", "error", err)
			}
		}
		return nil
	})

	logger.Info("ingester running",
		"ws", cfg.Server.ListenAddr+cfg.Server.WSPath,
		"history", cfg.Server.ListenAddr+cfg.Server.HistoryPath,
	)

	if err := g.Wait(); err != nil {
		logger.Error("ingester failed", "error", err)
		return 1
	}

	logger.Info("ingester stopped")
	return 0
}
