package sync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warungpos/warungpos/internal/config"
)

// Scheduler turns connectivity triggers into debounced sync passes.
//
// Each trigger arms a deferred run: a short window for reachability
// transitions, a longer one for foreground transitions. A new trigger
// cancels and replaces any still-pending run (trailing-edge debounce), so a
// burst of transitions collapses into a single pass.
type Scheduler struct {
	logger *slog.Logger
	clock  Clock
	short  time.Duration
	long   time.Duration
	syncFn func(context.Context) error

	mu      sync.Mutex
	pending Timer
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// NewScheduler creates a scheduler. A nil clock uses real timers.
func NewScheduler(cfg config.Sync, logger *slog.Logger, clock Clock, syncFn func(context.Context) error) *Scheduler {
	if clock == nil {
		clock = realClock{}
	}
	return &Scheduler{
		logger: logger.With(slog.String("service", "scheduler")),
		clock:  clock,
		short:  cfg.OnlineDebounce,
		long:   cfg.ForegroundDebounce,
		syncFn: syncFn,
	}
}

// Start makes the scheduler accept triggers. Deferred runs inherit ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true
}

// Stop cancels any pending deferred run and rejects further triggers. It is
// safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.cancel()
	s.started = false
}

// TriggerOnline schedules a sync pass after the short debounce window.
func (s *Scheduler) TriggerOnline() {
	s.schedule(s.short)
}

// TriggerForeground schedules a sync pass after the longer debounce window.
func (s *Scheduler) TriggerForeground() {
	s.schedule(s.long)
}

func (s *Scheduler) schedule(window time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}

	if s.pending != nil {
		s.pending.Stop()
	}

	ctx := s.ctx
	s.pending = s.clock.AfterFunc(window, func() {
		s.mu.Lock()
		s.pending = nil
		s.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		if err := s.syncFn(ctx); err != nil {
			s.logger.ErrorContext(ctx, "scheduled sync failed", slog.Any("error", err))
		}
	})
}
