package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// TypedStore stores JSON-encoded values of type C under a key prefix.
type TypedStore[C any] struct {
	client    *Client
	keyPrefix string
}

// NewTypedStore creates a TypedStore. Keys are stored as "<prefix>:<key>".
func NewTypedStore[C any](client *Client, keyPrefix string) *TypedStore[C] {
	return &TypedStore[C]{client: client, keyPrefix: keyPrefix}
}

func (s *TypedStore[C]) fullKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}

// Save stores val with a TTL. Zero TTL means no expiration.
func (s *TypedStore[C]) Save(ctx context.Context, key string, val *C, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("typed store marshal %q: %w", key, err)
	}
	if err := s.client.Set(ctx, s.fullKey(key), data, ttl); err != nil {
		return fmt.Errorf("typed store save %q: %w", key, err)
	}
	return nil
}

// Load returns the value for key, or (nil, nil) if it does not exist.
func (s *TypedStore[C]) Load(ctx context.Context, key string) (*C, error) {
	raw, err := s.client.Get(ctx, s.fullKey(key))
	return s.decode(key, raw, err)
}

// Take returns and deletes the value for key in one atomic step. Exactly one
// of several concurrent callers receives the value; the rest get (nil, nil).
func (s *TypedStore[C]) Take(ctx context.Context, key string) (*C, error) {
	raw, err := s.client.GetDel(ctx, s.fullKey(key))
	return s.decode(key, raw, err)
}

// Delete removes key.
func (s *TypedStore[C]) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.fullKey(key))
}

func (s *TypedStore[C]) decode(key, raw string, err error) (*C, error) {
	if IsNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("typed store load %q: %w", key, err)
	}
	var val C
	if err := json.Unmarshal([]byte(raw), &val); err != nil {
		return nil, fmt.Errorf("typed store unmarshal %q: %w", key, err)
	}
	return &val, nil
}
