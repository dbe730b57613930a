package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *manualTicker) Chan() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *manualTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type tickerSet struct {
	mu      sync.Mutex
	tickers map[time.Duration]*manualTicker
}

func newTickerSet() *tickerSet {
	return &tickerSet{tickers: make(map[time.Duration]*manualTicker)}
}

func (s *tickerSet) factory(interval time.Duration) Ticker {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticker := &manualTicker{ch: make(chan time.Time)}
	s.tickers[interval] = ticker
	return ticker
}

func (s *tickerSet) get(t *testing.T, interval time.Duration) *manualTicker {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		s.mu.Lock()
		ticker, ok := s.tickers[interval]
		s.mu.Unlock()
		if ok {
			return ticker
		}
		select {
		case <-deadline:
			t.Fatalf("ticker for %v was never created", interval)
		case <-time.After(time.Millisecond):
		}
	}
}

func startMonitor(t *testing.T, h trackerHarness, heartbeat bool) (*SessionMonitor, *tickerSet, func()) {
	t.Helper()
	tickers := newTickerSet()
	monitor := NewSessionMonitor(h.tracker, SessionMonitorConfig{
		ExpiryInterval:  time.Minute,
		WarningInterval: time.Second,
		Heartbeat:       heartbeat,
		NewTicker:       tickers.factory,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- monitor.Run(ctx) }()

	stop := func() {
		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(time.Second):
			t.Error("monitor did not stop")
		}
	}
	return monitor, tickers, stop
}

func TestSessionMonitor_ExpiresInactiveSession(t *testing.T) {
	h := newTrackerHarness(t)
	_, _ = h.tracker.InitializeSession(context.Background(), nurse())

	_, tickers, stop := startMonitor(t, h, false)
	expiry := tickers.get(t, time.Minute)

	h.clock.Advance(31 * time.Minute)
	expiry.ch <- h.clock.Now()
	// A second tick only returns once the first has been handled.
	expiry.ch <- h.clock.Now()
	stop()

	current, _ := h.tracker.CurrentSession()
	if current.Status != SessionStatusTerminated {
		t.Fatalf("expected terminated session, got %q", current.Status)
	}
	if !expiry.isStopped() || !tickers.get(t, time.Second).isStopped() {
		t.Fatal("expected tickers to be stopped")
	}
}

func TestSessionMonitor_HeartbeatKeepsSessionAlive(t *testing.T) {
	h := newTrackerHarness(t)
	_, _ = h.tracker.InitializeSession(context.Background(), nurse())

	_, tickers, stop := startMonitor(t, h, true)
	expiry := tickers.get(t, time.Minute)

	h.clock.Advance(31 * time.Minute)
	expiry.ch <- h.clock.Now()
	expiry.ch <- h.clock.Now()
	stop()

	current, _ := h.tracker.CurrentSession()
	if current.Status != SessionStatusActive {
		t.Fatalf("heartbeat must keep the session active, got %q", current.Status)
	}
	if !current.LastActivity.Equal(h.clock.Now()) {
		t.Fatalf("expected heartbeat to refresh last activity, got %v", current.LastActivity)
	}
}

func TestSessionMonitor_PublishesWarnings(t *testing.T) {
	h := newTrackerHarness(t)
	session, _ := h.tracker.InitializeSession(context.Background(), nurse())

	monitor, tickers, stop := startMonitor(t, h, false)
	defer stop()
	warnings, unsubscribe := monitor.SubscribeWarnings(4)
	defer unsubscribe()

	warning := tickers.get(t, time.Second)
	h.clock.Advance(28 * time.Minute)
	warning.ch <- h.clock.Now()

	select {
	case w := <-warnings:
		if !w.Visible || w.SessionID != session.ID || w.SecondsRemaining() != 120 {
			t.Fatalf("unexpected warning %+v", w)
		}
	case <-time.After(time.Second):
		t.Fatal("no warning delivered")
	}
}

func TestSessionMonitor_UnsubscribeClosesChannel(t *testing.T) {
	h := newTrackerHarness(t)
	monitor := NewSessionMonitor(h.tracker, SessionMonitorConfig{})

	warnings, unsubscribe := monitor.SubscribeWarnings(0)
	unsubscribe()
	unsubscribe()

	if _, ok := <-warnings; ok {
		t.Fatal("expected closed channel")
	}

	// Broadcasting with no subscribers and full buffers must not block.
	full, release := monitor.SubscribeWarnings(1)
	defer release()
	monitor.broadcast(SessionWarning{})
	monitor.broadcast(SessionWarning{})
	if len(full) != 1 {
		t.Fatalf("expected one buffered warning, got %d", len(full))
	}
}
