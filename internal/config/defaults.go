package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultListenAddr        = ":3030"
	DefaultWSPath            = "/ws"
	DefaultHistoryPath       = "/latest_blocks"
	DefaultHealthPath        = "/health"
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultWriteTimeout      = 5 * time.Second
	DefaultPingInterval      = 30 * time.Second
	DefaultNetworkURL        = "https://api.blockcypher.com/v1/btc/main"
	DefaultPriceURL          = "https://api.coingecko.com/api/v3/simple/price"
	DefaultPriceCoin         = "bitcoin"
	DefaultPriceCurrency     = "usd"
	DefaultSourceTimeout     = 10 * time.Second
	DefaultDBPort            = 5432
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 4
	DefaultMinConns          = 1
	DefaultConnectRetryDelay = 5 * time.Second
	DefaultQueryTimeout      = 5 * time.Second
	DefaultIngestInterval    = 60 * time.Second
	DefaultHistoryLimit      = 10
	DefaultQueueSize         = 100
	DefaultRedisChannel      = "observations"
	DefaultRedisLatestKey    = "observations:latest"
	DefaultRedisLatestTTL    = 5 * time.Minute
)

// Defaults for list-valued fields.
var (
	DefaultAllowedOrigins = []string{"*"}
	DefaultAllowedMethods = []string{"GET", "POST", "DELETE"}
	DefaultAllowedHeaders = []string{"Content-Type"}
)

func (c *IngesterConfig) applyDefaults() {
	// Server defaults
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Server.WSPath == "" {
		c.Server.WSPath = DefaultWSPath
	}
	if c.Server.HistoryPath == "" {
		c.Server.HistoryPath = DefaultHistoryPath
	}
	if c.Server.HealthPath == "" {
		c.Server.HealthPath = DefaultHealthPath
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.PingInterval == 0 {
		c.Server.PingInterval = DefaultPingInterval
	}

	// CORS defaults
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = DefaultAllowedOrigins
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = DefaultAllowedMethods
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = DefaultAllowedHeaders
	}

	// Source defaults
	if c.Sources.NetworkURL == "" {
		c.Sources.NetworkURL = DefaultNetworkURL
	}
	if c.Sources.PriceURL == "" {
		c.Sources.PriceURL = DefaultPriceURL
	}
	if c.Sources.PriceCoin == "" {
		c.Sources.PriceCoin = DefaultPriceCoin
	}
	if c.Sources.PriceCurrency == "" {
		c.Sources.PriceCurrency = DefaultPriceCurrency
	}
	if c.Sources.Timeout == 0 {
		c.Sources.Timeout = DefaultSourceTimeout
	}

	// Database defaults
	applyDBDefaults(&c.Database)

	// Ingest defaults
	if c.Ingest.Interval == 0 {
		c.Ingest.Interval = DefaultIngestInterval
	}
	if c.Ingest.HistoryLimit == 0 {
		c.Ingest.HistoryLimit = DefaultHistoryLimit
	}

	if c.Hub.QueueSize == 0 {
		c.Hub.QueueSize = DefaultQueueSize
	}

	// Redis defaults only matter when the relay is enabled
	if c.Redis.Channel == "" {
		c.Redis.Channel = DefaultRedisChannel
	}
	if c.Redis.LatestKey == "" {
		c.Redis.LatestKey = DefaultRedisLatestKey
	}
	if c.Redis.LatestTTL == 0 {
		c.Redis.LatestTTL = DefaultRedisLatestTTL
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
	if db.ConnectRetryDelay == 0 {
		db.ConnectRetryDelay = DefaultConnectRetryDelay
	}
	if db.QueryTimeout == 0 {
		db.QueryTimeout = DefaultQueryTimeout
	}
}
