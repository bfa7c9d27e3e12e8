package session

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/authkit/component"
	"github.com/kbukum/authkit/logger"
)

// Sweeper periodically deletes expired sessions.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	log      *logger.Logger

	onSweep func(ctx context.Context, deleted int64)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	errMsg string
}

var _ component.Component = (*Sweeper)(nil)

// NewSweeper creates a sweeper running every interval.
func NewSweeper(m *Manager, interval time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{manager: m, interval: interval, log: log.WithComponent("session-sweeper")}
}

// OnSweep registers fn to run after every sweep that deleted sessions.
// Call it before Start.
func (s *Sweeper) OnSweep(fn func(ctx context.Context, deleted int64)) *Sweeper {
	s.onSweep = fn
	return s
}

// Name returns the component name.
func (s *Sweeper) Name() string { return "session-sweeper" }

// Start runs one sweep immediately and then one per interval until Stop.
func (s *Sweeper) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil || s.interval <= 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx)
	return nil
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	s.RunOnce(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce(ctx context.Context) {
	n, err := s.manager.Sweep(ctx)

	s.mu.Lock()
	s.errMsg = ""
	if err != nil {
		s.errMsg = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		if ctx.Err() == nil {
			s.log.Error("Expired session sweep failed", logger.ErrorFields("sweep", err))
		}
		return
	}
	if n > 0 {
		s.log.Info("Expired sessions deleted", map[string]interface{}{"count": n})
		if s.onSweep != nil {
			s.onSweep(ctx, n)
		}
	}
}

// Stop cancels the loop and waits for it to exit.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health reports the outcome of the last sweep.
func (s *Sweeper) Health(context.Context) component.Health {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := component.Health{Name: s.Name(), Status: component.StatusHealthy}
	switch {
	case s.interval <= 0:
		h.Status = component.StatusDisabled
	case s.errMsg != "":
		h.Status = component.StatusUnhealthy
		h.Message = s.errMsg
	}
	return h
}
