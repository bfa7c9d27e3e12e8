package oauth2

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/authkit/component"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/redis"
)

func TestMemoryStateStoreTakeOnce(t *testing.T) {
	s := NewMemoryStateStore(0, nil)
	ctx := context.Background()

	if err := s.Put(ctx, "st", Pending{Provider: ProviderGoogle, Verifier: "v"}, time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	p, err := s.Take(ctx, "st")
	if err != nil || p == nil || p.Verifier != "v" {
		t.Fatalf("Take = %+v, %v", p, err)
	}
	if p, _ := s.Take(ctx, "st"); p != nil {
		t.Errorf("second Take returned %+v", p)
	}
}

func TestMemoryStateStoreExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStateStore(0, nil)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_ = s.Put(ctx, "old", Pending{Provider: ProviderGoogle}, time.Minute)
	_ = s.Put(ctx, "expired-take", Pending{Provider: ProviderGoogle}, time.Minute)
	_ = s.Put(ctx, "fresh", Pending{Provider: ProviderGoogle}, time.Hour)
	now = now.Add(2 * time.Minute)

	if p, _ := s.Take(ctx, "expired-take"); p != nil {
		t.Errorf("expired entry returned %+v", p)
	}
	if n := s.Sweep(); n != 1 {
		t.Errorf("Sweep removed %d, want 1", n)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
	if p, _ := s.Take(ctx, "fresh"); p == nil {
		t.Error("fresh entry missing")
	}
}

func TestMemoryStateStoreSweepLoop(t *testing.T) {
	s := NewMemoryStateStore(10*time.Millisecond, logger.NewNop())
	ctx := context.Background()
	_ = s.Put(ctx, "st", Pending{}, time.Millisecond)

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for s.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.Len() != 0 {
		t.Error("sweep loop did not drop the expired entry")
	}
	if h := s.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("Health = %+v", h)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestRedisStateStore(t *testing.T) {
	mini := miniredis.RunT(t)
	client, err := redis.New(redis.Config{Enabled: true, Addr: mini.Addr()}, logger.NewNop())
	if err != nil {
		t.Fatalf("redis.New: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisStateStore(client)
	ctx := context.Background()

	if err := s.Put(ctx, "st", Pending{Provider: ProviderGoogle, Verifier: "v"}, time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ttl := mini.TTL("oauth2:state:st"); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}

	p, err := s.Take(ctx, "st")
	if err != nil || p == nil || p.Provider != ProviderGoogle || p.Verifier != "v" {
		t.Fatalf("Take = %+v, %v", p, err)
	}
	if p, _ := s.Take(ctx, "st"); p != nil {
		t.Errorf("second Take returned %+v", p)
	}

	_ = s.Put(ctx, "short", Pending{Provider: ProviderGitHub}, time.Minute)
	mini.FastForward(2 * time.Minute)
	if p, _ := s.Take(ctx, "short"); p != nil {
		t.Errorf("expired entry returned %+v", p)
	}
}
