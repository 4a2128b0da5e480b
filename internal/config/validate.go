package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *IngesterConfig) Validate() error {
	if c.Server.ListenAddr == "" {
		return errors.New("server.listen_addr is required")
	}
	routes := []struct{ name, path string }{
		{"server.ws_path", c.Server.WSPath},
		{"server.history_path", c.Server.HistoryPath},
		{"server.health_path", c.Server.HealthPath},
	}
	for _, r := range routes {
		if !strings.HasPrefix(r.path, "/") {
			return fmt.Errorf("%s must start with /, got %q", r.name, r.path)
		}
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Sources.NetworkURL == "" {
		return errors.New("sources.network_url is required")
	}
	if c.Sources.PriceURL == "" {
		return errors.New("sources.price_url is required")
	}
	if c.Sources.Timeout <= 0 {
		return errors.New("sources.timeout must be > 0")
	}

	if c.Ingest.Interval <= 0 {
		return errors.New("ingest.interval must be > 0")
	}
	if c.Ingest.HistoryLimit < 1 {
		return errors.New("ingest.history_limit must be >= 1")
	}

	if c.Hub.QueueSize < 1 {
		return errors.New("hub.queue_size must be >= 1")
	}

	if c.Redis.Enabled() && c.Redis.Channel == "" {
		return errors.New("redis.channel is required when redis.addr is set")
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	if db.ConnectRetryDelay <= 0 {
		return fmt.Errorf("%s.connect_retry_delay must be > 0", prefix)
	}
	return nil
}
