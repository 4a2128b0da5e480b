package config

import "time"

// IngesterConfig is the root configuration for the ingester service.
type IngesterConfig struct {
	Server   ServerConfig  `yaml:"server"`
	CORS     CORSConfig    `yaml:"cors"`
	Sources  SourcesConfig `yaml:"sources"`
	Database DBConfig      `yaml:"database"`
	Ingest   IngestConfig  `yaml:"ingest"`
	Hub      HubConfig     `yaml:"hub"`
	Redis    RedisConfig   `yaml:"redis"`
}

// ServerConfig holds the HTTP listener and live-update settings.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	WSPath          string        `yaml:"ws_path"`
	HistoryPath     string        `yaml:"history_path"`
	HealthPath      string        `yaml:"health_path"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"` // Per-frame WebSocket write deadline
	PingInterval    time.Duration `yaml:"ping_interval"`
}

// CORSConfig holds the cross-origin policy.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// SourcesConfig holds the external data source endpoints.
type SourcesConfig struct {
	NetworkURL         string        `yaml:"network_url"` // Blockcypher chain endpoint
	PriceURL           string        `yaml:"price_url"`   // Coingecko simple/price endpoint
	PriceCoin          string        `yaml:"price_coin"`
	PriceCurrency      string        `yaml:"price_currency"`
	Timeout            time.Duration `yaml:"timeout"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
}

// DBConfig holds the PostgreSQL connection.
type DBConfig struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	Name              string        `yaml:"name"`
	User              string        `yaml:"user"`
	Password          string        `yaml:"password"`
	SSLMode           string        `yaml:"ssl_mode"`
	MaxConns          int           `yaml:"max_conns"`
	MinConns          int           `yaml:"min_conns"`
	ConnectRetryDelay time.Duration `yaml:"connect_retry_delay"`
	QueryTimeout      time.Duration `yaml:"query_timeout"`
}

// IngestConfig holds ingestion loop settings.
type IngestConfig struct {
	Interval     time.Duration `yaml:"interval"`
	HistoryLimit int           `yaml:"history_limit"`
}

// HubConfig holds broadcast hub settings.
type HubConfig struct {
	QueueSize int `yaml:"queue_size"` // Per-subscriber queue bound
}

// RedisConfig holds the optional Redis relay. An empty Addr disables it.
type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	Channel   string        `yaml:"channel"`
	LatestKey string        `yaml:"latest_key"`
	LatestTTL time.Duration `yaml:"latest_ttl"`
}

// Enabled reports whether the relay should be started.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}
