package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/rickgao/bitcoin-explorer/internal/hub"
	"github.com/rickgao/bitcoin-explorer/internal/ingest"
	"github.com/rickgao/bitcoin-explorer/internal/model"
)

// Broadcaster hands out live-feed subscriptions.
type Broadcaster interface {
	Subscribe() (*hub.Subscription, error)
	Stats() hub.Stats
}

// HistoryReader returns the most recent observations, newest first.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]model.Observation, error)
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IngestStats reports ingestion loop statistics.
type IngestStats interface {
	Stats() ingest.Stats
}

// RelayStatus reports on the optional Redis mirror.
type RelayStatus interface {
	Ping(ctx context.Context) error
	Latest(ctx context.Context) ([]byte, error)
}

// Deps are the components the HTTP surface reads from. DB, Ingest and Relay
// may be nil, in which case health omits them.
type Deps struct {
	Hub     Broadcaster
	History HistoryReader
	DB      Pinger
	Ingest  IngestStats
	Relay   RelayStatus
}

// Config holds server configuration.
type Config struct {
	Addr          string
	WSPath        string
	HistoryPath   string
	HealthPath    string
	HistoryLimit  int           // Rows returned by the history route (default: 10)
	WriteTimeout  time.Duration // Deadline for each WebSocket frame (default: 5s)
	PingInterval  time.Duration // WebSocket keepalive period (default: 30s)
	HealthTimeout time.Duration // Store ping timeout for health (default: 5s)

	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:           ":3030",
		WSPath:         "/ws",
		HistoryPath:    "/latest_blocks",
		HealthPath:     "/health",
		HistoryLimit:   10,
		WriteTimeout:   5 * time.Second,
		PingInterval:   30 * time.Second,
		HealthTimeout:  5 * time.Second,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	}
}

// Server serves the live feed, history and health routes.
type Server struct {
	cfg      Config
	deps     Deps
	logger   *slog.Logger
	upgrader websocket.Upgrader
	http     *http.Server
}

// New creates a new Server. Zero-valued config fields take their defaults.
func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = withDefaults(cfg)

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in the cross-origin policy.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.WSPath, s.handleLive)
	mux.HandleFunc(s.cfg.HistoryPath, s.handleHistory)
	mux.HandleFunc(s.cfg.HealthPath, s.handleHealth)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: s.cfg.AllowedMethods,
		AllowedHeaders: s.cfg.AllowedHeaders,
	})
	return c.Handler(mux)
}

// ListenAndServe serves until Shutdown. A clean shutdown returns nil.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening",
		"addr", s.cfg.Addr,
		"ws_path", s.cfg.WSPath,
		"history_path", s.cfg.HistoryPath,
	)
	if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
// WebSocket sessions are hijacked and end when the hub closes.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	s.logger.Info("http server stopped")
	return err
}

// checkOrigin mirrors the cross-origin policy for WebSocket upgrades.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(s.cfg.AllowedOrigins, "*") || slices.Contains(s.cfg.AllowedOrigins, origin)
}

func withDefaults(cfg Config) Config {
	d := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = d.Addr
	}
	if cfg.WSPath == "" {
		cfg.WSPath = d.WSPath
	}
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = d.HistoryPath
	}
	if cfg.HealthPath == "" {
		cfg.HealthPath = d.HealthPath
	}
	if cfg.HistoryLimit < 1 {
		cfg.HistoryLimit = d.HistoryLimit
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = d.WriteTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = d.PingInterval
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = d.HealthTimeout
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = d.AllowedOrigins
	}
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = d.AllowedMethods
	}
	if len(cfg.AllowedHeaders) == 0 {
		cfg.AllowedHeaders = d.AllowedHeaders
	}
	return cfg
}
