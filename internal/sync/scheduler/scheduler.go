// Package scheduler owns the sync engine's lifecycle: periodic drains,
// the connectivity signal, and the status surface the control server
// exposes.
package scheduler

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/fieldtime/fieldtime/internal/errors"
	"github.com/fieldtime/fieldtime/internal/logging"
	syncpkg "github.com/fieldtime/fieldtime/internal/sync"
)

// Syncer is the slice of the engine the scheduler drives.
type Syncer interface {
	Drain(ctx context.Context) (*syncpkg.DrainResult, error)
	Draining() bool
	LastSync() time.Time
	Pending() (int, error)
	ClearPending() error
	SetOnlineProbe(probe func() bool)
}

// Scheduler triggers drains on a fixed interval while online and idle,
// and immediately when connectivity is restored. Construction does not
// activate anything; Start does.
type Scheduler struct {
	engine   Syncer
	interval time.Duration

	mu        sync.Mutex
	isRunning bool
	isOnline  bool
	runCtx    context.Context
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// Config holds scheduler configuration.
type Config struct {
	SyncInterval time.Duration // How often to drain while online (default: 5 minutes)
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() *Config {
	return &Config{
		SyncInterval: 5 * time.Minute,
	}
}

// NewScheduler creates a Scheduler. A nil config uses DefaultConfig.
// The engine's connectivity probe is wired to this scheduler's online
// flag.
func NewScheduler(engine Syncer, config *Config) *Scheduler {
	if config == nil {
		config = DefaultConfig()
	}
	s := &Scheduler{
		engine:   engine,
		interval: config.SyncInterval,
		isOnline: true,
	}
	engine.SetOnlineProbe(s.IsOnline)
	return s
}

// Start begins periodic draining. Calling Start on a running scheduler
// is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.runCtx = ctx
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx)

	logging.Info("Sync scheduler started",
		map[string]interface{}{"interval_minutes": s.interval.Minutes()})
}

// Stop halts periodic draining and waits for the loop to exit. A drain
// already in flight finishes on its own.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	logging.Info("Sync scheduler stopped", nil)
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.mu.Lock()
	stopCh := s.stopCh
	s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			if !s.IsOnline() || s.engine.Draining() {
				continue
			}
			s.runDrain(ctx)
		}
	}
}

// runDrain executes one drain pass, swallowing the busy rejection that
// a racing trigger can produce.
func (s *Scheduler) runDrain(ctx context.Context) {
	drainCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	if _, err := s.engine.Drain(drainCtx); err != nil {
		if apperrors.Is(err, apperrors.ErrSyncBusy) {
			return
		}
		logging.Error("Scheduled drain failed", err, nil)
	}
}

// drainContext returns the context that scheduler-spawned drains run
// under: the one handed to Start. A drain must outlive the HTTP
// request that triggered it, so request contexts never reach here.
func (s *Scheduler) drainContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runCtx != nil {
		return s.runCtx
	}
	return context.Background()
}

// SetOnlineStatus records the runtime connectivity signal. Coming back
// online triggers an immediate drain of whatever queued up while away.
func (s *Scheduler) SetOnlineStatus(isOnline bool) {
	s.mu.Lock()
	wasOnline := s.isOnline
	s.isOnline = isOnline
	running := s.isRunning
	s.mu.Unlock()

	if wasOnline == isOnline {
		return
	}

	logging.Info("Online status changed",
		map[string]interface{}{
			"was_online": wasOnline,
			"is_online":  isOnline,
		})

	if isOnline && running && !s.engine.Draining() {
		go s.runDrain(s.drainContext())
	}
}

// IsOnline returns the current connectivity flag.
func (s *Scheduler) IsOnline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOnline
}

// IsRunning reports whether the periodic loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// TriggerSync starts an immediate drain. Returns false without doing
// anything when a drain is already in flight.
func (s *Scheduler) TriggerSync() bool {
	if s.engine.Draining() {
		return false
	}
	go s.runDrain(s.drainContext())
	return true
}

// ClearPending discards the queue without replaying it.
func (s *Scheduler) ClearPending() error {
	return s.engine.ClearPending()
}

// Status is the control surface snapshot.
type Status struct {
	Draining     bool      `json:"draining"`
	Online       bool      `json:"online"`
	Pending      int       `json:"pending"`
	LastSyncTime time.Time `json:"last_sync_time"`
}

// GetStatus returns the current sync status.
func (s *Scheduler) GetStatus() Status {
	pending, err := s.engine.Pending()
	if err != nil {
		logging.Error("Failed to count pending queue", err, nil)
	}
	return Status{
		Draining:     s.engine.Draining(),
		Online:       s.IsOnline(),
		Pending:      pending,
		LastSyncTime: s.engine.LastSync(),
	}
}
