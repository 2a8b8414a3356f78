package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/medicore/clinic-portal/internal/core/domain"
	"github.com/medicore/clinic-portal/internal/core/ports"
)

const (
	defaultIdleTTL     = 30 * time.Minute
	defaultInitTimeout = 30 * time.Second
)

// RegistryConfig tunes store lifetimes.
type RegistryConfig struct {
	// IdleTTL evicts stores nobody touched for this long. Persisted copies
	// survive eviction, so the next request re-initialises from storage.
	IdleTTL     time.Duration
	InitTimeout time.Duration
	StorageTTL  time.Duration
	// OnSize, when set, receives the live store count after it changes.
	OnSize func(live int)
	// OnSweep, when set, runs after every sweep. Backends without native
	// expiry hook their purge here.
	OnSweep func(now time.Time)
}

// Registry owns one Store per visitor.
type Registry struct {
	api     ports.ClinicAPI
	storage ports.StorageFactory
	cfg     RegistryConfig
	log     zerolog.Logger
	now     func() time.Time

	mu     sync.Mutex
	stores map[string]*Store
	subs   []func(domain.SessionEvent)
}

// NewRegistry returns an empty registry. storage builds the persisted
// storage for a visitor on first use.
func NewRegistry(api ports.ClinicAPI, storage ports.StorageFactory, cfg RegistryConfig, log zerolog.Logger) *Registry {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultIdleTTL
	}
	if cfg.InitTimeout <= 0 {
		cfg.InitTimeout = defaultInitTimeout
	}
	return &Registry{
		api:     api,
		storage: storage,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
		stores:  make(map[string]*Store),
	}
}

// Subscribe attaches fn to every store created from now on.
func (r *Registry) Subscribe(fn func(domain.SessionEvent)) {
	r.mu.Lock()
	r.subs = append(r.subs, fn)
	r.mu.Unlock()
}

// Get returns the visitor's store, creating it and starting its
// initialisation in the background when absent.
func (r *Registry) Get(visitorID string) *Store {
	r.mu.Lock()
	if s, ok := r.stores[visitorID]; ok {
		r.mu.Unlock()
		s.touch()
		return s
	}

	s := NewStore(visitorID, r.api, r.storage(visitorID),
		WithLogger(r.log),
		WithStorageTTL(r.cfg.StorageTTL),
		WithClock(r.now),
	)
	for _, fn := range r.subs {
		s.Subscribe(fn)
	}
	r.stores[visitorID] = s
	live := len(r.stores)
	r.mu.Unlock()
	r.reportSize(live)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.InitTimeout)
		defer cancel()
		s.Initialize(ctx)
	}()
	return s
}

// Len is the number of live stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Sweep evicts stores idle since before now-IdleTTL and returns how many
// went.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.cfg.IdleTTL)

	r.mu.Lock()
	var evicted []*Store
	for id, s := range r.stores {
		if s.LastUsed().Before(cutoff) {
			delete(r.stores, id)
			evicted = append(evicted, s)
		}
	}
	live := len(r.stores)
	r.mu.Unlock()

	if len(evicted) > 0 {
		r.reportSize(live)
	}
	for _, s := range evicted {
		s.Close()
	}
	if len(evicted) > 0 {
		r.log.Debug().Int("evicted", len(evicted)).Msg("idle sessions swept")
	}
	if r.cfg.OnSweep != nil {
		r.cfg.OnSweep(now)
	}
	return len(evicted)
}

func (r *Registry) reportSize(live int) {
	if r.cfg.OnSize != nil {
		r.cfg.OnSize(live)
	}
}

// Run sweeps on a ticker until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	interval := r.cfg.IdleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			r.Sweep(t)
		}
	}
}
