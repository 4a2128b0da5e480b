package connection

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rickgao/bitcoin-explorer/internal/model"
)

// Errors
var (
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// Decode parses the frame as a live observation message.
func (m TimestampedMessage) Decode() (model.LiveMessage, error) {
	var msg model.LiveMessage
	if err := json.Unmarshal(m.Data, &msg); err != nil {
		return model.LiveMessage{}, fmt.Errorf("decode live message: %w", err)
	}
	return msg, nil
}

// Update is a decoded live message from Follower.
type Update struct {
	Message    model.LiveMessage
	ReceivedAt time.Time
	Conn       int // Connection generation that delivered it (1 = first connect)
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL              string        // WebSocket URL (e.g., ws://localhost:3030/ws)
	PingTimeout      time.Duration // Max time without ping/pong before considering connection stale
	PingInterval     time.Duration // How often the client pings the server
	WriteTimeout     time.Duration // Write deadline for control frames
	HandshakeTimeout time.Duration // Dial handshake timeout
	BufferSize       int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingTimeout:      90 * time.Second,
		PingInterval:     30 * time.Second,
		WriteTimeout:     5 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		BufferSize:       100,
	}
}

// FollowerConfig configures a Follower.
type FollowerConfig struct {
	Client            ClientConfig
	ReconnectBaseWait time.Duration // Base wait time for reconnection
	ReconnectMaxWait  time.Duration // Max wait time for reconnection
	BufferSize        int           // Buffer size for the Updates channel
}

// DefaultFollowerConfig returns sensible defaults.
func DefaultFollowerConfig() FollowerConfig {
	return FollowerConfig{
		Client:            DefaultClientConfig(),
		ReconnectBaseWait: 1 * time.Second,
		ReconnectMaxWait:  60 * time.Second,
		BufferSize:        100,
	}
}

// FollowerStats provides statistics about a Follower.
type FollowerStats struct {
	Connected  bool // Live client reports an open connection
	Reconnects int64
	Received   int64
	Malformed  int64
	Dropped    int64
}
