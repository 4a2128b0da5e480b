package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/bitcoin-explorer/internal/model"
)

// Fetcher retrieves the two halves of an observation.
type Fetcher interface {
	FetchNetworkStats(ctx context.Context) (model.NetworkStats, error)
	FetchPrice(ctx context.Context) (float64, error)
}

// Appender persists observations.
type Appender interface {
	Append(ctx context.Context, obs model.Observation) (model.Observation, error)
}

// Publisher distributes a serialized observation. It returns how many
// receivers accepted the message.
type Publisher interface {
	Publish(msg []byte) (int, error)
}

// Fanout publishes to several publishers in order. The first publisher's
// receiver count is returned; errors from all publishers are joined.
type Fanout []Publisher

// Publish implements Publisher.
func (f Fanout) Publish(msg []byte) (int, error) {
	var errs []error
	first := 0
	for i, p := range f {
		n, err := p.Publish(msg)
		if err != nil {
			errs = append(errs, err)
		}
		if i == 0 {
			first = n
		}
	}
	return first, errors.Join(errs...)
}

// Mirror wraps a best-effort publisher. Its failures are logged and never
// reported to the caller.
type Mirror struct {
	Name      string
	Publisher Publisher
	Logger    *slog.Logger
}

// Publish implements Publisher.
func (m Mirror) Publish(msg []byte) (int, error) {
	n, err := m.Publisher.Publish(msg)
	if err != nil {
		logger := m.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("mirror publish failed", "mirror", m.Name, "err", err)
		return 0, nil
	}
	return n, nil
}

// Config holds loop configuration.
type Config struct {
	Interval     time.Duration    // Delay between the end of one cycle and the next (default: 60s)
	FetchTimeout time.Duration    // Per-fetch timeout (default: 10s)
	StoreTimeout time.Duration    // Append timeout (default: 10s)
	Now          func() time.Time // Clock for observation timestamps (default: time.Now)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:     60 * time.Second,
		FetchTimeout: 10 * time.Second,
		StoreTimeout: 10 * time.Second,
		Now:          time.Now,
	}
}

// Stats contains loop statistics.
type Stats struct {
	Cycles          int64
	Appended        int64
	Published       int64
	FetchFailures   int64
	StoreFailures   int64
	PublishFailures int64
	LastSuccess     time.Time
}

// Loop periodically fetches, persists and publishes observations.
type Loop struct {
	cfg       Config
	fetcher   Fetcher
	store     Appender
	publisher Publisher
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	stats Stats
}

// New creates a new Loop.
func New(cfg Config, fetcher Fetcher, store Appender, publisher Publisher, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaults.StoreTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Loop{
		cfg:       cfg,
		fetcher:   fetcher,
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// Start begins the ingestion loop. The first cycle runs immediately.
func (l *Loop) Start(ctx context.Context) error {
	l.ctx, l.cancel = context.WithCancel(ctx)

	l.wg.Add(1)
	go l.run()

	l.logger.Info("ingestion loop started",
		"interval", l.cfg.Interval,
		"fetch_timeout", l.cfg.FetchTimeout,
	)

	return nil
}

// Stop cancels the loop and waits for the current cycle to finish.
// An append already in flight is allowed to complete.
func (l *Loop) Stop(ctx context.Context) error {
	if l.cancel != nil {
		l.cancel()
	}

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		l.logger.Info("ingestion loop stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns current statistics.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// run is the main loop.
func (l *Loop) run() {
	defer l.wg.Done()

	// Fire immediately; re-armed after each cycle completes.
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-l.ctx.Done():
			return
		case <-timer.C:
			l.runCycle()
			timer.Reset(l.cfg.Interval)
		}
	}
}

// runCycle performs one fetch/append/publish cycle. The returned error is
// informational; it has already been logged and counted.
func (l *Loop) runCycle() error {
	start := time.Now()
	l.count(func(s *Stats) { s.Cycles++ })

	fetchCtx, cancel := l.fetchContext()
	stats, err := l.fetcher.FetchNetworkStats(fetchCtx)
	cancel()
	if err != nil {
		l.count(func(s *Stats) { s.FetchFailures++ })
		l.logger.Warn("failed to fetch network stats, skipping cycle", "err", err)
		return err
	}

	fetchCtx, cancel = l.fetchContext()
	price, err := l.fetcher.FetchPrice(fetchCtx)
	cancel()
	if err != nil {
		l.count(func(s *Stats) { s.FetchFailures++ })
		l.logger.Warn("failed to fetch price, skipping cycle", "err", err)
		return err
	}

	obs := model.NewObservation(stats, price, l.cfg.Now())

	// Shutdown must not cut an insert short, so the append only honors its own timeout.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(l.ctx), l.cfg.StoreTimeout)
	obs, err = l.store.Append(storeCtx, obs)
	cancel()
	if err != nil {
		l.count(func(s *Stats) { s.StoreFailures++ })
		l.logger.Warn("failed to append observation, skipping publish", "err", err)
		return err
	}
	l.count(func(s *Stats) { s.Appended++ })

	msg, err := obs.Encode()
	if err != nil {
		l.count(func(s *Stats) { s.PublishFailures++ })
		l.logger.Error("failed to encode observation", "id", obs.ID, "err", err)
		return fmt.Errorf("encode observation: %w", err)
	}

	receivers, err := l.publisher.Publish(msg)
	if err != nil {
		l.count(func(s *Stats) { s.PublishFailures++ })
		l.logger.Warn("failed to broadcast observation", "id", obs.ID, "err", err)
		return fmt.Errorf("publish observation: %w", err)
	}

	l.count(func(s *Stats) {
		s.Published++
		s.LastSuccess = obs.ObservedAt
	})

	l.logger.Info("ingestion cycle complete",
		"id", obs.ID,
		"peer_count", obs.PeerCount,
		"medium_fee_per_kb", obs.MediumFeePerKb,
		"price", obs.Price,
		"receivers", receivers,
		"duration", time.Since(start),
	)
	return nil
}

func (l *Loop) fetchContext() (context.Context, context.CancelFunc) {
	if l.cfg.FetchTimeout <= 0 {
		return context.WithCancel(l.ctx)
	}
	return context.WithTimeout(l.ctx, l.cfg.FetchTimeout)
}

func (l *Loop) count(update func(*Stats)) {
	l.mu.Lock()
	update(&l.stats)
	l.mu.Unlock()
}
