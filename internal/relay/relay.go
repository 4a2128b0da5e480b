package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds relay configuration.
type Config struct {
	Addr      string
	Password  string
	DB        int
	Channel   string        // Pub/sub channel for live messages
	LatestKey string        // Key holding the most recent message; empty disables it
	LatestTTL time.Duration // Expiry of the latest key (0 = no expiry)
	Timeout   time.Duration // Per-publish timeout (default: 2s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:      "localhost:6379",
		Channel:   "observations",
		LatestKey: "observations:latest",
		LatestTTL: 5 * time.Minute,
		Timeout:   2 * time.Second,
	}
}

// Relay publishes serialized observations to Redis.
type Relay struct {
	cfg    Config
	client *redis.Client
	logger *slog.Logger
}

// New creates a Relay with its own Redis client.
func New(cfg Config, logger *slog.Logger) *Relay {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewWithClient(cfg, client, logger)
}

// NewWithClient creates a Relay around an existing client.
func NewWithClient(cfg Config, client *redis.Client, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Relay{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
}

// Ping checks that Redis is reachable.
func (r *Relay) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", r.cfg.Addr, err)
	}
	return nil
}

// Publish sends msg on the channel and refreshes the latest key in one
// round trip. It returns the number of Redis subscribers that received it.
func (r *Relay) Publish(msg []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.Timeout)
	defer cancel()

	var pub *redis.IntCmd
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pub = pipe.Publish(ctx, r.cfg.Channel, msg)
		if r.cfg.LatestKey != "" {
			pipe.Set(ctx, r.cfg.LatestKey, msg, r.cfg.LatestTTL)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis relay: %w", err)
	}

	n := int(pub.Val())
	r.logger.Debug("relayed observation", "channel", r.cfg.Channel, "subscribers", n)
	return n, nil
}

// Latest returns the most recently relayed message, or nil if the key is
// missing or expired.
func (r *Relay) Latest(ctx context.Context) ([]byte, error) {
	if r.cfg.LatestKey == "" {
		return nil, nil
	}
	b, err := r.client.Get(ctx, r.cfg.LatestKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.cfg.LatestKey, err)
	}
	return b, nil
}

// Close releases the Redis client.
func (r *Relay) Close() error {
	return r.client.Close()
}
