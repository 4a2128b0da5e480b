package hub

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ErrClosed is returned by Subscribe and Publish after Close.
var ErrClosed = errors.New("hub closed")

// Config holds hub configuration.
type Config struct {
	QueueSize int // Per-subscriber queue bound (default: 100)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		QueueSize: 100,
	}
}

// Stats contains hub statistics.
type Stats struct {
	Subscribers int
	Published   int64 // Messages accepted by Publish
	Delivered   int64 // Per-subscriber enqueues
	Dropped     int64 // Per-subscriber drops (queue full)
	QueueSize   int   // Per-subscriber queue bound
	MaxPending  int   // Largest undelivered backlog across subscribers
}

// Hub fans published messages out to all current subscriptions.
type Hub struct {
	cfg    Config
	logger *slog.Logger

	// publishMu serializes Publish so every subscriber sees one global order.
	publishMu sync.Mutex

	mu     sync.RWMutex
	subs   map[uuid.UUID]*Subscription
	closed bool

	published atomic.Int64
	delivered atomic.Int64
	dropped   atomic.Int64
}

// New creates a new Hub.
func New(cfg Config, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	return &Hub{
		cfg:    cfg,
		logger: logger,
		subs:   make(map[uuid.UUID]*Subscription),
	}
}

// Subscribe registers a new subscription. It receives every message
// published after this call returns.
func (h *Hub) Subscribe() (*Subscription, error) {
	sub := &Subscription{
		id:    uuid.New(),
		hub:   h,
		queue: NewQueue[[]byte](h.cfg.QueueSize),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	h.subs[sub.id] = sub
	count := len(h.subs)
	h.mu.Unlock()

	h.logger.Debug("subscriber added", "subscriber", sub.id, "subscribers", count)
	return sub, nil
}

// Publish delivers msg to every registered subscription without blocking.
// It returns the number of subscribers that accepted the message.
func (h *Hub) Publish(msg []byte) (int, error) {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return 0, ErrClosed
	}

	h.published.Add(1)

	delivered := 0
	for id, sub := range h.subs {
		if sub.queue.Send(msg) {
			delivered++
			continue
		}
		h.dropped.Add(1)
		h.logger.Warn("subscriber queue full, dropping message", "subscriber", id)
	}
	h.delivered.Add(int64(delivered))

	return delivered, nil
}

// Close tears down every subscription and rejects further use. Blocked
// Receive calls return false.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := h.subs
	h.subs = make(map[uuid.UUID]*Subscription)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.queue.Close()
	}

	h.logger.Info("broadcast hub closed", "subscribers", len(subs))
}

// Len returns the number of registered subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Stats returns current statistics.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	subscribers := len(h.subs)
	maxPending := 0
	for _, sub := range h.subs {
		maxPending = max(maxPending, sub.Pending())
	}
	h.mu.RUnlock()

	return Stats{
		Subscribers: subscribers,
		Published:   h.published.Load(),
		Delivered:   h.delivered.Load(),
		Dropped:     h.dropped.Load(),
		QueueSize:   h.cfg.QueueSize,
		MaxPending:  maxPending,
	}
}

func (h *Hub) remove(id uuid.UUID) {
	h.mu.Lock()
	delete(h.subs, id)
	count := len(h.subs)
	h.mu.Unlock()

	h.logger.Debug("subscriber removed", "subscriber", id, "subscribers", count)
}

// Subscription is one subscriber's registration with the hub.
type Subscription struct {
	id    uuid.UUID
	hub   *Hub
	queue *Queue[[]byte]
	once  sync.Once
}

// ID returns the subscription's unique ID.
func (s *Subscription) ID() uuid.UUID {
	return s.id
}

// Receive blocks until the next message is available. It returns false once
// the subscription or the hub has been closed.
func (s *Subscription) Receive() ([]byte, bool) {
	return s.queue.Receive()
}

// Pending returns the number of queued, undelivered messages.
func (s *Subscription) Pending() int {
	return s.queue.Len()
}

// Close deregisters the subscription and unblocks Receive. Safe to call
// more than once and concurrently with Publish.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s.id)
		s.queue.Close()
	})
}
