// streamtest connects to the ingester's live feed and prints every observation.
// Usage: go run ./cmd/streamtest --url ws://localhost:3030/ws
//
// With --config the URL is derived from server.listen_addr and server.ws_path.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rickgao/bitcoin-explorer/internal/config"
	"github.com/rickgao/bitcoin-explorer/internal/connection"
)

func main() {
	url := flag.String("url", "", "live feed WebSocket URL")
	configPath := flag.String("config", "", "ingester config file to derive the URL from")
	verbose := flag.Bool("verbose", false, "print full message JSON")
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	feedURL := *url
	if feedURL == "" {
		path := *configPath
		if path == "" {
			path = "configs/ingester.local.yaml"
		}
		cfg, err := config.LoadWithDefaults(path)
		if err != nil {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		feedURL = feedURLFromConfig(cfg.Server)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	followerCfg := connection.DefaultFollowerConfig()
	followerCfg.Client.URL = feedURL
	follower := connection.NewFollower(followerCfg, logger)

	if err := follower.Start(ctx); err != nil {
		logger.Error("failed to start follower", "error", err)
		os.Exit(1)
	}

	// Stats printer
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := follower.Stats()
				logger.Info("stats",
					"connected", stats.Connected,
					"received", stats.Received,
					"malformed", stats.Malformed,
					"reconnects", stats.Reconnects,
				)
			}
		}
	}()

	logger.Info("streaming started - press Ctrl+C to stop", "url", feedURL)

	for u := range follower.Updates() {
		if *verbose {
			data, _ := json.MarshalIndent(u.Message, "", "  ")
			fmt.Printf("[%s] %s\n", u.ReceivedAt.Format(time.RFC3339), data)
			continue
		}
		fmt.Printf("[OBSERVATION] peers=%d fee_per_kb=%.2f price=%.2f received=%s\n",
			u.Message.PeerCount, u.Message.MediumFeePerKb, u.Message.Price, u.ReceivedAt.Format(time.RFC3339))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	follower.Stop(shutdownCtx)

	logger.Info("shutdown complete")
}

// feedURLFromConfig builds a local ws:// URL for the configured listener.
func feedURLFromConfig(cfg config.ServerConfig) string {
	addr := cfg.ListenAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "ws://" + addr + cfg.WSPath
}
