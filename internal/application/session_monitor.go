package application

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultExpiryInterval is how often the monitor checks for inactivity expiry.
	DefaultExpiryInterval = time.Minute
	// DefaultWarningInterval is how often the warning countdown is recomputed.
	DefaultWarningInterval = time.Second
)

// Ticker abstracts time.Ticker so tests can drive the monitor manually.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

// TickerFactory creates a ticker firing every interval.
type TickerFactory func(interval time.Duration) Ticker

type realTicker struct{ *time.Ticker }

func (t realTicker) Chan() <-chan time.Time { return t.C }

// NewRealTicker wraps time.NewTicker.
func NewRealTicker(interval time.Duration) Ticker {
	return realTicker{time.NewTicker(interval)}
}

// SessionMonitorConfig controls the periodic checks performed by a SessionMonitor.
type SessionMonitorConfig struct {
	ExpiryInterval  time.Duration
	WarningInterval time.Duration
	// Heartbeat refreshes the current session's activity on every expiry tick,
	// keeping it alive while the process runs.
	Heartbeat bool
	NewTicker TickerFactory
	Logger    *slog.Logger
}

// SessionMonitor periodically expires inactive sessions and publishes the
// expiry warning to subscribers.
type SessionMonitor struct {
	tracker *SessionTracker
	cfg     SessionMonitorConfig
	logger  *slog.Logger

	mu          sync.Mutex
	nextID      int
	subscribers map[int]chan SessionWarning
}

// NewSessionMonitor constructs a monitor for tracker.
func NewSessionMonitor(tracker *SessionTracker, cfg SessionMonitorConfig) *SessionMonitor {
	if cfg.ExpiryInterval <= 0 {
		cfg.ExpiryInterval = DefaultExpiryInterval
	}
	if cfg.WarningInterval <= 0 {
		cfg.WarningInterval = DefaultWarningInterval
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = NewRealTicker
	}
	return &SessionMonitor{
		tracker:     tracker,
		cfg:         cfg,
		logger:      defaultLogger(cfg.Logger),
		subscribers: make(map[int]chan SessionWarning),
	}
}

// Run blocks until ctx is cancelled.
func (m *SessionMonitor) Run(ctx context.Context) error {
	expiry := m.cfg.NewTicker(m.cfg.ExpiryInterval)
	defer expiry.Stop()
	warning := m.cfg.NewTicker(m.cfg.WarningInterval)
	defer warning.Stop()

	logger := serviceLogger(ctx, m.logger, "SessionMonitor", "Run")
	logger.InfoContext(ctx, "session monitor started",
		"expiry_interval", m.cfg.ExpiryInterval,
		"warning_interval", m.cfg.WarningInterval,
		"heartbeat", m.cfg.Heartbeat,
	)

	for {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "session monitor stopped")
			return ctx.Err()
		case <-expiry.Chan():
			m.expiryTick(ctx, logger)
		case <-warning.Chan():
			m.broadcast(m.tracker.Warning())
		}
	}
}

func (m *SessionMonitor) expiryTick(ctx context.Context, logger *slog.Logger) {
	if m.cfg.Heartbeat {
		if err := m.tracker.UpdateLastActivity(ctx); err != nil {
			logger.WarnContext(ctx, "heartbeat failed", "error", err)
		}
	}
	expired, err := m.tracker.CheckExpiry(ctx)
	if err != nil {
		logger.WarnContext(ctx, "expiry check failed", "error", err)
	}
	if expired {
		m.broadcast(m.tracker.Warning())
	}
}

// SubscribeWarnings returns a channel receiving every computed warning and a
// function that unsubscribes and closes it. Slow subscribers miss updates
// rather than blocking the monitor.
func (m *SessionMonitor) SubscribeWarnings(buffer int) (<-chan SessionWarning, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan SessionWarning, buffer)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subscribers[id] = ch
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subscribers, id)
			m.mu.Unlock()
			close(ch)
		})
	}
}

func (m *SessionMonitor) broadcast(w SessionWarning) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subscribers {
		select {
		case ch <- w:
		default:
		}
	}
}
