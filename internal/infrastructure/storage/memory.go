// Package storage holds the process-local persisted storage backend.
package storage

import (
	"context"
	"sync"
	"time"

	"github.com/medicore/clinic-portal/internal/core/ports"
)

type entry struct {
	value   string
	expires time.Time // zero: never
}

// Memory is a ports.Storage shared by all visitors of one process. Values
// are lost on restart.
type Memory struct {
	mu   sync.Mutex
	data map[string]map[string]entry
	now  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]entry), now: time.Now}
}

// Factory returns a ports.StorageFactory whose storages share m.
func (m *Memory) Factory() ports.StorageFactory {
	return func(visitorID string) ports.Storage {
		return &memoryView{m: m, visitorID: visitorID}
	}
}

func (m *Memory) load(visitorID string, keys []string) map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]string, len(keys))
	bucket := m.data[visitorID]
	now := m.now()
	for _, k := range keys {
		e, ok := bucket[k]
		if !ok {
			continue
		}
		if !e.expires.IsZero() && !now.Before(e.expires) {
			delete(bucket, k)
			continue
		}
		out[k] = e.value
	}
	return out
}

func (m *Memory) save(visitorID string, values map[string]string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.data[visitorID]
	if !ok {
		bucket = make(map[string]entry, len(values))
		m.data[visitorID] = bucket
	}
	var expires time.Time
	if ttl > 0 {
		expires = m.now().Add(ttl)
	}
	for k, v := range values {
		bucket[k] = entry{value: v, expires: expires}
	}
}

func (m *Memory) remove(visitorID string, keys []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket := m.data[visitorID]
	for _, k := range keys {
		delete(bucket, k)
	}
	if len(bucket) == 0 {
		delete(m.data, visitorID)
	}
}

// Purge drops expired values and empty visitor buckets. Visitors that never
// return are only reclaimed here.
func (m *Memory) Purge(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, bucket := range m.data {
		for k, e := range bucket {
			if !e.expires.IsZero() && !now.Before(e.expires) {
				delete(bucket, k)
				removed++
			}
		}
		if len(bucket) == 0 {
			delete(m.data, id)
		}
	}
	return removed
}

func (m *Memory) visitors() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

type memoryView struct {
	m         *Memory
	visitorID string
}

func (v *memoryView) Load(_ context.Context, keys ...string) (map[string]string, error) {
	return v.m.load(v.visitorID, keys), nil
}

func (v *memoryView) Save(_ context.Context, values map[string]string, ttl time.Duration) error {
	v.m.save(v.visitorID, values, ttl)
	return nil
}

func (v *memoryView) Remove(_ context.Context, keys ...string) error {
	v.m.remove(v.visitorID, keys)
	return nil
}
