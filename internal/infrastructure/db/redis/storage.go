package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medicore/clinic-portal/internal/core/ports"
)

const keyPrefix = "clinic:storage"

// Storage keeps one visitor's persisted session keys in Redis.
// Key format: clinic:storage:<visitor_id>:<key>
type Storage struct {
	client    redis.Cmdable
	visitorID string
}

// NewStorage creates a Storage for visitorID wrapping the given client.
func NewStorage(client redis.Cmdable, visitorID string) *Storage {
	return &Storage{client: client, visitorID: visitorID}
}

// NewStorageFactory returns a ports.StorageFactory sharing one client.
func NewStorageFactory(client redis.Cmdable) ports.StorageFactory {
	return func(visitorID string) ports.Storage {
		return NewStorage(client, visitorID)
	}
}

// Load returns the values present for keys. Missing keys are absent from
// the map.
func (s *Storage) Load(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	vals, err := s.client.MGet(ctx, s.keys(keys)...).Result()
	if err != nil {
		return nil, fmt.Errorf("storage load: %w", err)
	}
	for i, v := range vals {
		if str, ok := v.(string); ok {
			out[keys[i]] = str
		}
	}
	return out, nil
}

// Save writes all values in one transaction. A ttl of zero keeps them until
// removed.
func (s *Storage) Save(ctx context.Context, values map[string]string, ttl time.Duration) error {
	if len(values) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, s.key(k), v, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage save: %w", err)
	}
	return nil
}

// Remove deletes keys; absent keys are ignored.
func (s *Storage) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, s.keys(keys)...).Err(); err != nil {
		return fmt.Errorf("storage remove: %w", err)
	}
	return nil
}

func (s *Storage) key(k string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, s.visitorID, k)
}

func (s *Storage) keys(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = s.key(k)
	}
	return out
}
