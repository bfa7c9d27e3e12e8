package redis

import (
	"context"
	"crypto/tls"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/authkit/component"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/security"
	"github.com/kbukum/authkit/security/tlstest"
)

type pending struct {
	Provider string   `json:"provider"`
	Verifier string   `json:"verifier"`
	Scopes   []string `json:"scopes"`
}

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mini := miniredis.RunT(t)
	client, err := New(Config{Enabled: true, Addr: mini.Addr()}, logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, mini
}

func TestTypedStoreSaveLoad(t *testing.T) {
	client, mini := newTestClient(t)
	store := NewTypedStore[pending](client, "oauth2")
	ctx := context.Background()

	in := pending{Provider: "GOOGLE", Verifier: "v", Scopes: []string{"openid"}}
	if err := store.Save(ctx, "s1", &in, time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !mini.Exists("oauth2:s1") {
		t.Fatal("key not stored under prefix")
	}

	got, err := store.Load(ctx, "s1")
	if err != nil || got == nil || got.Verifier != "v" || len(got.Scopes) != 1 {
		t.Fatalf("Load = %+v, %v", got, err)
	}

	missing, err := store.Load(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("Load missing = %+v, %v", missing, err)
	}
}

func TestTypedStoreTakeConsumesOnce(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewTypedStore[pending](client, "oauth2")
	ctx := context.Background()
	_ = store.Save(ctx, "s1", &pending{Verifier: "v"}, time.Minute)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := store.Take(ctx, "s1")
			if err != nil {
				t.Errorf("Take: %v", err)
				return
			}
			if got != nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("Take succeeded %d times, want 1", wins.Load())
	}
}

func TestTypedStoreTTL(t *testing.T) {
	client, mini := newTestClient(t)
	store := NewTypedStore[pending](client, "oauth2")
	ctx := context.Background()
	_ = store.Save(ctx, "s1", &pending{Verifier: "v"}, time.Minute)

	mini.FastForward(2 * time.Minute)
	got, err := store.Take(ctx, "s1")
	if err != nil || got != nil {
		t.Fatalf("Take after expiry = %+v, %v", got, err)
	}
}

func TestTypedStoreCorruptValue(t *testing.T) {
	client, mini := newTestClient(t)
	store := NewTypedStore[pending](client, "oauth2")
	_ = mini.Set("oauth2:bad", "{not json")

	if _, err := store.Load(context.Background(), "bad"); err == nil {
		t.Fatal("expected unmarshal error")
	}
}

func TestComponent(t *testing.T) {
	mini := miniredis.RunT(t)
	ctx := context.Background()
	c := NewComponent(Config{Enabled: true, Addr: mini.Addr()}, logger.NewNop())

	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Fatalf("health before start = %+v", h)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Fatalf("health = %+v", h)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestComponentTLS(t *testing.T) {
	certs := tlstest.Generate(t)
	mini := miniredis.NewMiniRedis()
	if err := mini.StartTLS(&tls.Config{Certificates: []tls.Certificate{certs.Certificate}, MinVersion: tls.VersionTLS12}); err != nil {
		t.Fatalf("StartTLS: %v", err)
	}
	t.Cleanup(mini.Close)

	ctx := context.Background()
	c := NewComponent(Config{
		Enabled: true,
		Addr:    mini.Addr(),
		TLS:     security.TLSConfig{Enabled: true, CAFile: certs.CAFile},
	}, logger.NewNop())
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start over TLS: %v", err)
	}
	defer c.Stop(ctx)

	plain := NewComponent(Config{Enabled: true, Addr: mini.Addr(), ReadTimeout: 500 * time.Millisecond}, logger.NewNop())
	if err := plain.Start(ctx); err == nil {
		_ = plain.Stop(ctx)
		t.Fatal("expected plaintext connection to a TLS server to fail")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled", Config{}, false},
		{"missing addr", Config{Enabled: true}, true},
		{"idle above pool", Config{Enabled: true, Addr: "x:1", PoolSize: 1, MinIdleConns: 2}, true},
		{"ok", Config{Enabled: true, Addr: "x:1"}, false},
		{"tls cert without key", Config{Enabled: true, Addr: "x:1", TLS: security.TLSConfig{Enabled: true, CertFile: "c.pem"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ApplyDefaults()
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
