package ports

import (
	"context"
	"time"
)

// Fixed keys under which a visitor's session is persisted.
const (
	StorageKeyToken = "auth_token"
	StorageKeyUser  = "user"
)

// Storage is a visitor-scoped string key/value store that survives process
// restarts. Save and Remove apply all given keys in one step.
type Storage interface {
	// Load returns the values of the keys that exist; missing keys are absent
	// from the map.
	Load(ctx context.Context, keys ...string) (map[string]string, error)
	// Save writes all values. A ttl <= 0 means no expiry.
	Save(ctx context.Context, values map[string]string, ttl time.Duration) error
	Remove(ctx context.Context, keys ...string) error
}

// StorageFactory returns the storage for one visitor.
type StorageFactory func(visitorID string) Storage
