package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/medicore/clinic-portal/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubAPI struct {
	loginFn       func(ctx context.Context, c domain.Credentials) (*domain.AuthPayload, error)
	registerFn    func(ctx context.Context, r domain.Registration) (*domain.AuthPayload, error)
	currentUserFn func(ctx context.Context, token string) (*domain.User, error)
	logoutFn      func(ctx context.Context, token string) error
	updateFn      func(ctx context.Context, token string, u domain.ProfileUpdate) (*domain.User, error)
	doFn          func(ctx context.Context, token, method, path string, body, out any) error

	mu    sync.Mutex
	calls []string
}

func (a *stubAPI) record(name string) {
	a.mu.Lock()
	a.calls = append(a.calls, name)
	a.mu.Unlock()
}

func (a *stubAPI) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

func (a *stubAPI) Login(ctx context.Context, c domain.Credentials) (*domain.AuthPayload, error) {
	a.record("login")
	if a.loginFn == nil {
		return nil, errors.New("login not stubbed")
	}
	return a.loginFn(ctx, c)
}

func (a *stubAPI) Register(ctx context.Context, r domain.Registration) (*domain.AuthPayload, error) {
	a.record("register")
	if a.registerFn == nil {
		return nil, errors.New("register not stubbed")
	}
	return a.registerFn(ctx, r)
}

func (a *stubAPI) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	a.record("me")
	if a.currentUserFn == nil {
		return nil, errors.New("me not stubbed")
	}
	return a.currentUserFn(ctx, token)
}

func (a *stubAPI) Logout(ctx context.Context, token string) error {
	a.record("logout")
	if a.logoutFn == nil {
		return nil
	}
	return a.logoutFn(ctx, token)
}

func (a *stubAPI) UpdateProfile(ctx context.Context, token string, u domain.ProfileUpdate) (*domain.User, error) {
	a.record("profile")
	if a.updateFn == nil {
		return nil, errors.New("profile not stubbed")
	}
	return a.updateFn(ctx, token, u)
}

func (a *stubAPI) Do(ctx context.Context, token, method, path string, body, out any) error {
	a.record(method + " " + path)
	if a.doFn == nil {
		return nil
	}
	return a.doFn(ctx, token, method, path, body, out)
}

type mapStorage struct {
	mu      sync.Mutex
	data    map[string]string
	ttl     time.Duration
	loadErr error
	saveErr error
}

func newMapStorage(kv ...string) *mapStorage {
	s := &mapStorage{data: make(map[string]string)}
	for i := 0; i+1 < len(kv); i += 2 {
		s.data[kv[i]] = kv[i+1]
	}
	return s
}

func (s *mapStorage) Load(_ context.Context, keys ...string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := s.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *mapStorage) Save(_ context.Context, values map[string]string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	for k, v := range values {
		s.data[k] = v
	}
	s.ttl = ttl
	return nil
}

func (s *mapStorage) Remove(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *mapStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

type eventLog struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

func (l *eventLog) add(ev domain.SessionEvent) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) Types() []domain.SessionEventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.SessionEventType, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Type
	}
	return out
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func doctor() *domain.User {
	return &domain.User{ID: 7, Name: "Dr. Sari", Email: "sari@clinic.test", Role: domain.Role{ID: 2, Name: domain.RoleDoctor}}
}

func nurse() *domain.User {
	return &domain.User{ID: 9, Name: "Nurse Budi", Email: "budi@clinic.test", Role: domain.Role{ID: 3, Name: domain.RoleNurse}}
}

func unauthorized() error {
	return &domain.APIError{Status: 401, Message: "Unauthenticated."}
}

// gatedStorage reads its data on the first Load, then holds that Load until
// release is closed. Later Loads pass straight through.
type gatedStorage struct {
	*mapStorage
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedStorage(inner *mapStorage) *gatedStorage {
	return &gatedStorage{mapStorage: inner, entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedStorage) Load(ctx context.Context, keys ...string) (map[string]string, error) {
	out, err := g.mapStorage.Load(ctx, keys...)
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return out, err
}
