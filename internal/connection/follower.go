package connection

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Follower keeps a live-feed connection open across drops and decodes
// every frame into an Update.
type Follower struct {
	cfg    FollowerConfig
	logger *slog.Logger

	updates chan Update

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	stats   FollowerStats
	current Client // live connection, nil between attempts
}

// NewFollower creates a new Follower.
func NewFollower(cfg FollowerConfig, logger *slog.Logger) *Follower {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultFollowerConfig()
	if cfg.ReconnectBaseWait <= 0 {
		cfg.ReconnectBaseWait = defaults.ReconnectBaseWait
	}
	if cfg.ReconnectMaxWait < cfg.ReconnectBaseWait {
		cfg.ReconnectMaxWait = cfg.ReconnectBaseWait
	}

	return &Follower{
		cfg:     cfg,
		logger:  logger,
		updates: make(chan Update, cfg.BufferSize),
	}
}

// Start begins following the feed. Connection failures are retried in the
// background; Start itself does not dial.
func (f *Follower) Start(ctx context.Context) error {
	f.ctx, f.cancel = context.WithCancel(ctx)

	f.wg.Add(1)
	go f.run()

	f.logger.Info("follower started", "url", f.cfg.Client.URL)
	return nil
}

// Stop closes the connection and waits for the follower to exit. The
// Updates channel is closed once it has.
func (f *Follower) Stop(ctx context.Context) error {
	if f.cancel != nil {
		f.cancel()
	}

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		f.logger.Info("follower stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Updates returns the decoded message channel.
func (f *Follower) Updates() <-chan Update {
	return f.updates
}

// Stats returns current statistics. Connected reflects the live client's
// own state, so a dropped connection shows before the reconnect loop notices.
func (f *Follower) Stats() FollowerStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := f.stats
	stats.Connected = f.current != nil && f.current.IsConnected()
	return stats
}

func (f *Follower) run() {
	defer f.wg.Done()
	defer close(f.updates)

	wait := f.cfg.ReconnectBaseWait
	gen := 0

	for {
		client := NewClient(f.cfg.Client, f.logger.With("conn", gen+1))
		if err := client.Connect(f.ctx); err != nil {
			if f.ctx.Err() != nil {
				return
			}
			f.logger.Warn("connection failed", "url", f.cfg.Client.URL, "error", err, "retry_in", wait)
			if !f.sleep(wait) {
				return
			}
			wait = min(wait*2, f.cfg.ReconnectMaxWait)
			continue
		}

		gen++
		if gen > 1 {
			f.logger.Info("reconnected", "conn", gen)
			f.update(func(s *FollowerStats) { s.Reconnects++ })
		}
		f.setCurrent(client)
		wait = f.cfg.ReconnectBaseWait

		err := f.consume(client, gen)
		client.Close()
		f.setCurrent(nil)

		if f.ctx.Err() != nil {
			return
		}
		f.logger.Warn("connection lost", "conn", gen, "error", err, "retry_in", wait)
		if !f.sleep(wait) {
			return
		}
	}
}

// consume forwards decoded frames until the client fails or the follower
// is stopped.
func (f *Follower) consume(client Client, gen int) error {
	for {
		select {
		case <-f.ctx.Done():
			return f.ctx.Err()

		case err := <-client.Errors():
			// Frames read before the failure are still delivered
			for {
				select {
				case msg := <-client.Messages():
					f.forward(msg, gen)
				default:
					return err
				}
			}

		case msg := <-client.Messages():
			f.forward(msg, gen)
		}
	}
}

func (f *Follower) forward(msg TimestampedMessage, gen int) {
	decoded, err := msg.Decode()
	if err != nil {
		f.update(func(s *FollowerStats) { s.Malformed++ })
		f.logger.Warn("malformed live message", "conn", gen, "error", err)
		return
	}
	f.update(func(s *FollowerStats) { s.Received++ })

	u := Update{Message: decoded, ReceivedAt: msg.ReceivedAt, Conn: gen}
	select {
	case f.updates <- u:
	case <-f.ctx.Done():
	default:
		f.update(func(s *FollowerStats) { s.Dropped++ })
		f.logger.Warn("update buffer full, dropping", "conn", gen)
	}
}

func (f *Follower) sleep(d time.Duration) bool {
	select {
	case <-f.ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (f *Follower) setCurrent(c Client) {
	f.mu.Lock()
	f.current = c
	f.mu.Unlock()
}

func (f *Follower) update(fn func(*FollowerStats)) {
	f.mu.Lock()
	fn(&f.stats)
	f.mu.Unlock()
}
