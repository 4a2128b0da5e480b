package api

import (
	"crypto/tls"
	"log/slog"
	"net/http"
	"time"
)

// Client fetches network statistics and spot price from the configured sources.
type Client struct {
	networkURL string
	priceURL   string
	coin       string // Coingecko coin id (e.g., "bitcoin")
	currency   string // Quote currency (e.g., "usd")
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new source client.
func NewClient(networkURL, priceURL string, opts ...ClientOption) *Client {
	c := &Client{
		networkURL: networkURL,
		priceURL:   priceURL,
		coin:       "bitcoin",
		currency:   "usd",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithPricePair sets the coin id and quote currency used for price lookups.
func WithPricePair(coin, currency string) ClientOption {
	return func(c *Client) {
		c.coin = coin
		c.currency = currency
	}
}

// WithInsecureSkipVerify disables TLS certificate verification for both sources.
func WithInsecureSkipVerify() ClientOption {
	return func(c *Client) {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via config
		c.httpClient.Transport = transport
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}
