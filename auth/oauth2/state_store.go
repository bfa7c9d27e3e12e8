package oauth2

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/kbukum/authkit/component"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/redis"
)

// Pending is an authorization attempt awaiting its callback.
type Pending struct {
	Provider  string    `json:"provider"`
	Verifier  string    `json:"verifier,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StateStore keeps pending attempts keyed by state. Take must be atomic:
// of several callers presenting the same state, at most one gets the entry.
type StateStore interface {
	Put(ctx context.Context, state string, p Pending, ttl time.Duration) error
	Take(ctx context.Context, state string) (*Pending, error)
}

type memoryEntry struct {
	pending   Pending
	expiresAt time.Time
}

// MemoryStateStore is a process-local StateStore. Expired entries are
// unreachable immediately and reclaimed by the sweep loop.
type MemoryStateStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time

	interval time.Duration
	log      *logger.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

var (
	_ StateStore          = (*MemoryStateStore)(nil)
	_ component.Component = (*MemoryStateStore)(nil)
)

// NewMemoryStateStore creates an in-memory store sweeping every interval.
func NewMemoryStateStore(interval time.Duration, log *logger.Logger) *MemoryStateStore {
	if log == nil {
		log = logger.NewNop()
	}
	return &MemoryStateStore{
		entries:  make(map[string]memoryEntry),
		now:      time.Now,
		interval: interval,
		log:      log.WithComponent("oauth2-state"),
	}
}

// Put stores p under state.
func (s *MemoryStateStore) Put(_ context.Context, state string, p Pending, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[state] = memoryEntry{pending: p, expiresAt: s.now().Add(ttl)}
	return nil
}

// Take removes and returns the entry for state, or nil if it is absent or expired.
func (s *MemoryStateStore) Take(_ context.Context, state string) (*Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[state]
	if !ok {
		return nil, nil
	}
	delete(s.entries, state)
	if !s.now().Before(e.expiresAt) {
		return nil, nil
	}
	p := e.pending
	return &p, nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops expired entries and returns how many were removed.
func (s *MemoryStateStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

// Name returns the component name.
func (s *MemoryStateStore) Name() string { return "oauth2-state" }

// Start launches the sweep loop.
func (s *MemoryStateStore) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil || s.interval <= 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
	return nil
}

func (s *MemoryStateStore) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.log.Debug("Expired OAuth2 states dropped", map[string]interface{}{"count": n})
			}
		}
	}
}

// Stop ends the sweep loop.
func (s *MemoryStateStore) Stop(ctx context.Context) error {
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

// Health reports the number of pending attempts.
func (s *MemoryStateStore) Health(context.Context) component.Health {
	return component.Health{
		Name:    s.Name(),
		Status:  component.StatusHealthy,
		Message: "pending=" + strconv.Itoa(s.Len()),
	}
}

// RedisStateStore keeps pending attempts in Redis so any replica can
// complete a flow another replica started.
type RedisStateStore struct {
	store *redis.TypedStore[Pending]
}

var _ StateStore = (*RedisStateStore)(nil)

// NewRedisStateStore creates a store using keys "oauth2:state:<state>".
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{store: redis.NewTypedStore[Pending](client, "oauth2:state")}
}

// Put stores p with a Redis TTL.
func (s *RedisStateStore) Put(ctx context.Context, state string, p Pending, ttl time.Duration) error {
	return s.store.Save(ctx, state, &p, ttl)
}

// Take reads and deletes the entry with GETDEL.
func (s *RedisStateStore) Take(ctx context.Context, state string) (*Pending, error) {
	return s.store.Take(ctx, state)
}
