package client

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultCheckInterval is how often the monitor re-evaluates session age
// between store changes.
const DefaultCheckInterval = 60 * time.Second

// ExpiryMonitor enforces the session age ceiling. It checks on start, on
// every store change, and on a fixed interval; when the session crosses the
// ceiling it signs out remotely, clears the store, and emits a single
// neutral notification. Ticks against an empty store do nothing.
type ExpiryMonitor struct {
	store    *Store
	provider Provider
	notifier Notifier
	logger   *slog.Logger

	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	stopCh  chan struct{}
	unsub   func()
	started bool

	expiring atomic.Bool
}

type MonitorOption func(*ExpiryMonitor)

// WithCheckInterval overrides the tick interval. Tests use short intervals.
func WithCheckInterval(d time.Duration) MonitorOption {
	return func(m *ExpiryMonitor) { m.interval = d }
}

// WithClock overrides the monitor's time source.
func WithClock(now func() time.Time) MonitorOption {
	return func(m *ExpiryMonitor) { m.now = now }
}

func NewExpiryMonitor(store *Store, provider Provider, notifier Notifier, logger *slog.Logger, opts ...MonitorOption) *ExpiryMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	m := &ExpiryMonitor{
		store:    store,
		provider: provider,
		notifier: notifier,
		logger:   logger,
		interval: DefaultCheckInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start runs an immediate check, subscribes to store changes, and launches
// the ticker loop. Starting twice is a no-op.
func (m *ExpiryMonitor) Start() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.stopCh = make(chan struct{})
	stopCh := m.stopCh
	m.unsub = m.store.Subscribe(func(*Session) { m.Check() })
	m.mu.Unlock()

	m.Check()

	go m.loop(stopCh)
}

// Stop tears down the ticker and the store subscription. Safe to call on a
// monitor that was never started.
func (m *ExpiryMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return
	}
	m.started = false
	close(m.stopCh)
	if m.unsub != nil {
		m.unsub()
		m.unsub = nil
	}
}

func (m *ExpiryMonitor) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Check()
		case <-stopCh:
			return
		}
	}
}

// Check evaluates the current session once and expires it if it has reached
// the ceiling. The ticker goroutine, store-change callbacks, and the startup
// check all land here concurrently; only one of them may run the sign-out
// sequence, the rest become no-ops.
func (m *ExpiryMonitor) Check() {
	sess := m.store.Current()
	if sess == nil {
		return
	}
	if !IsExpired(sess, m.now()) {
		return
	}

	if !m.expiring.CompareAndSwap(false, true) {
		return
	}
	defer m.expiring.Store(false)

	// Re-read under the flag: a racing check may have already cleared the
	// store while this caller was waiting on its first read.
	sess = m.store.Current()
	if sess == nil || !IsExpired(sess, m.now()) {
		return
	}

	m.logger.Info("session reached age ceiling, signing out",
		"user_id", sess.Identity.ID,
		"issued_at", sess.IssuedAt,
	)

	if err := m.provider.SignOut(context.Background(), sess.AccessToken); err != nil {
		m.logger.Warn("remote sign-out failed during expiry", "error", err)
	}

	// Clearing the store re-triggers Check via the subscription; the nil
	// session makes that call a no-op, so the notification fires once.
	m.store.Replace(nil)
	m.notifier.Info("Session expired", "Please sign in again to continue.")
}
