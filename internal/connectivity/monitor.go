// Package connectivity tracks whether the remote store is reachable and
// emits the triggers that drive the sync scheduler.
package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/warungpos/warungpos/internal/config"
)

// Trigger is an event that should eventually cause a sync pass.
type Trigger int

const (
	// TriggerOnline fires on an offline-to-online reachability transition.
	TriggerOnline Trigger = iota
	// TriggerForeground fires when the application regains the foreground
	// while already online.
	TriggerForeground
)

// String returns a human-readable representation of the trigger.
func (t Trigger) String() string {
	switch t {
	case TriggerOnline:
		return "online"
	case TriggerForeground:
		return "foreground"
	default:
		return "unknown"
	}
}

// Prober checks reachability of the remote store.
type Prober interface {
	Ping(ctx context.Context) error
}

// Monitor polls the prober and tracks the online state. Handlers registered
// with Notify receive triggers; the UI reports foreground transitions
// through Foreground.
type Monitor struct {
	logger   *slog.Logger
	prober   Prober
	interval time.Duration

	online atomic.Bool

	mu       sync.Mutex
	handlers []func(Trigger)

	stopChan chan struct{}
}

// NewMonitor creates a monitor. It starts offline until the first probe
// succeeds.
func NewMonitor(cfg config.Sync, logger *slog.Logger, prober Prober) *Monitor {
	return &Monitor{
		logger:   logger.With(slog.String("service", "connectivity")),
		prober:   prober,
		interval: cfg.ProbeInterval,
		stopChan: make(chan struct{}),
	}
}

// Notify registers a trigger handler. Handlers run on the monitor's probing
// goroutine (or the caller of Foreground) and must not block.
func (m *Monitor) Notify(fn func(Trigger)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, fn)
}

// Online reports the last observed reachability state.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Foreground records an application-foreground transition. It emits a
// trigger only while online; a foreground transition while offline is not a
// reason to sync.
func (m *Monitor) Foreground() {
	if !m.Online() {
		return
	}
	m.emit(TriggerForeground)
}

type CleanupFunc func()

// Run starts the probe loop and returns a cleanup function that stops it.
// An immediate probe runs before the first interval elapses so the terminal
// does not sit in the offline state for a full period after boot.
func (m *Monitor) Run(ctx context.Context) CleanupFunc {
	ctx, cancel := context.WithCancel(ctx)

	stoppedChan := make(chan struct{})
	go func() {
		defer close(stoppedChan)
		m.run(ctx)
	}()

	return func() {
		close(m.stopChan)
		select {
		case <-stoppedChan:
		case <-time.After(5 * time.Second):
			cancel()
		}
	}
}

func (m *Monitor) run(ctx context.Context) {
	m.Probe(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopChan:
			return
		case <-time.After(m.interval):
			m.Probe(ctx)
		}
	}
}

// Probe performs one reachability check and emits a trigger on an
// offline-to-online transition.
func (m *Monitor) Probe(ctx context.Context) {
	err := m.prober.Ping(ctx)
	now := err == nil
	was := m.online.Swap(now)

	switch {
	case now && !was:
		m.logger.InfoContext(ctx, "connectivity restored")
		m.emit(TriggerOnline)
	case !now && was:
		m.logger.WarnContext(ctx, "connectivity lost", slog.Any("error", err))
	}
}

func (m *Monitor) emit(t Trigger) {
	m.mu.Lock()
	handlers := make([]func(Trigger), len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	for _, fn := range handlers {
		fn(t)
	}
}
