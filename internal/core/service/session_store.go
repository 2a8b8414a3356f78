package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/medicore/clinic-portal/internal/core/domain"
	"github.com/medicore/clinic-portal/internal/core/ports"
)

const (
	msgLoginFailed    = "Login failed"
	msgRegisterFailed = "Registration failed"
	msgProfileFailed  = "Profile update failed"
)

// Phase is where a store is in its startup flow:
// Idle → Optimistic → Verified | Rejected, or Idle → Anonymous when nothing
// was cached. Explicit logins and logouts move it afterwards.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseOptimistic
	PhaseVerified
	PhaseRejected
	PhaseAnonymous
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseOptimistic:
		return "optimistic"
	case PhaseVerified:
		return "verified"
	case PhaseRejected:
		return "rejected"
	case PhaseAnonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Snapshot is a consistent read of a store. User is a copy.
type Snapshot struct {
	User    *domain.User
	Token   string
	Loading bool
	Phase   Phase
}

// Authenticated reports a resolved session with a user.
func (s Snapshot) Authenticated() bool {
	return !s.Loading && s.User != nil
}

// StoreOption customises a Store.
type StoreOption func(*Store)

func WithLogger(log zerolog.Logger) StoreOption {
	return func(s *Store) { s.log = log }
}

// WithStorageTTL caps how long persisted copies live. Tokens carrying an
// earlier exp claim shorten it further.
func WithStorageTTL(ttl time.Duration) StoreOption {
	return func(s *Store) { s.storageTTL = ttl }
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// Store is the single source of truth for who is logged in for one visitor.
// All writes go through its methods; consumers read Snapshot.
type Store struct {
	visitorID  string
	api        ports.ClinicAPI
	storage    ports.Storage
	log        zerolog.Logger
	storageTTL time.Duration
	now        func() time.Time

	// commitMu orders state changes together with their storage writes.
	commitMu sync.Mutex

	mu      sync.RWMutex
	user    *domain.User
	token   string
	loading bool
	phase   Phase
	epoch   uint64

	initOnce  sync.Once
	ready     chan struct{}
	readyOnce sync.Once

	subMu   sync.Mutex
	subs    map[int]func(domain.SessionEvent)
	nextSub int

	lastUsed atomic.Int64
}

// NewStore returns a store in the loading state. Call Initialize (or let the
// Registry do it) to resolve the cached session.
func NewStore(visitorID string, api ports.ClinicAPI, storage ports.Storage, opts ...StoreOption) *Store {
	s := &Store{
		visitorID: visitorID,
		api:       api,
		storage:   storage,
		log:       zerolog.Nop(),
		now:       time.Now,
		loading:   true,
		phase:     PhaseIdle,
		ready:     make(chan struct{}),
		subs:      make(map[int]func(domain.SessionEvent)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.touch()
	return s
}

func (s *Store) VisitorID() string { return s.visitorID }

// Snapshot returns the current user, token, loading flag and phase.
func (s *Store) Snapshot() Snapshot {
	s.touch()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		User:    s.user.Clone(),
		Token:   s.token,
		Loading: s.loading,
		Phase:   s.phase,
	}
}

// Ready is closed once the startup resolution has finished.
func (s *Store) Ready() <-chan struct{} { return s.ready }

// WaitReady blocks until Ready is closed or ctx is done.
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers fn for every committed session event. The returned
// func removes it.
func (s *Store) Subscribe(fn func(domain.SessionEvent)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Close detaches all subscribers. The store keeps answering reads.
func (s *Store) Close() {
	s.subMu.Lock()
	s.subs = make(map[int]func(domain.SessionEvent))
	s.subMu.Unlock()
}

// Initialize resolves the persisted session once: the cached user is shown
// optimistically, then confirmed or rejected by the backend. Loading ends
// exactly once, after that resolution.
func (s *Store) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		defer s.finishLoading()
		s.initialize(ctx)
	})
}

// Every step commits only while no Login, Logout or 401 has committed since
// the persisted copy was read; otherwise that newer commit stands.
func (s *Store) initialize(ctx context.Context) {
	start := s.currentEpoch()
	cached, err := s.storage.Load(ctx, ports.StorageKeyToken, ports.StorageKeyUser)
	if err != nil {
		s.log.Warn().Err(err).Str("visitor", s.visitorID).Msg("read persisted session failed")
		return
	}

	token, rawUser := cached[ports.StorageKeyToken], cached[ports.StorageKeyUser]
	if token == "" || rawUser == "" {
		if token != "" || rawUser != "" {
			// half a session is no session
			s.commitMu.Lock()
			if s.currentEpoch() == start {
				s.removePersisted(ctx)
			}
			s.commitMu.Unlock()
		}
		return
	}

	var cachedUser domain.User
	if err := json.Unmarshal([]byte(rawUser), &cachedUser); err != nil {
		s.log.Warn().Err(err).Str("visitor", s.visitorID).Msg("cached user unreadable")
		s.clearIf(ctx, start, domain.EventRejected, PhaseRejected, "corrupt cached user")
		return
	}

	s.commitMu.Lock()
	epoch, ok := s.applyIf(start, func() {
		s.user = &cachedUser
		s.token = token
		s.phase = PhaseOptimistic
	})
	s.commitMu.Unlock()
	if !ok {
		s.log.Debug().Str("visitor", s.visitorID).Msg("cached session superseded before verification")
		return
	}

	fresh, err := s.api.CurrentUser(ctx, token)
	if err != nil {
		s.log.Info().Err(err).Str("visitor", s.visitorID).Msg("cached session rejected")
		s.clearIf(ctx, epoch, domain.EventRejected, PhaseRejected, reason(err))
		return
	}
	if fresh == nil {
		s.clearIf(ctx, epoch, domain.EventRejected, PhaseRejected, "empty user")
		return
	}

	s.commitMu.Lock()
	_, ok = s.applyIf(epoch, func() {
		s.user = fresh.Clone()
		s.phase = PhaseVerified
	})
	if ok {
		s.persist(ctx, map[string]string{ports.StorageKeyUser: mustJSON(fresh)}, token)
		s.publish(domain.EventVerified, fresh, "")
	}
	s.commitMu.Unlock()

	if !ok {
		s.log.Debug().Str("visitor", s.visitorID).Msg("verification superseded")
	}
}

// Login submits credentials and, on success, stores the returned user and
// token. Failures leave the session unchanged.
func (s *Store) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	s.touch()
	payload, err := s.api.Login(ctx, creds)
	if err == nil {
		err = checkPayload(payload)
	}
	if err != nil {
		return nil, &domain.SessionError{Op: "login", Message: domain.MessageOr(err, msgLoginFailed), Err: err}
	}

	s.establish(ctx, payload, domain.EventLogin)
	return payload.User.Clone(), nil
}

// Register validates the form locally before any request is sent, then
// follows the Login contract against the register endpoint.
func (s *Store) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	s.touch()
	if err := validateRegistration(reg); err != nil {
		return nil, err
	}

	payload, err := s.api.Register(ctx, reg)
	if err == nil {
		err = checkPayload(payload)
	}
	if err != nil {
		return nil, &domain.SessionError{Op: "register", Message: domain.MessageOr(err, msgRegisterFailed), Err: err}
	}

	s.establish(ctx, payload, domain.EventRegister)
	return payload.User.Clone(), nil
}

// Logout tells the backend, then clears the session whatever the outcome of
// that call.
func (s *Store) Logout(ctx context.Context) {
	s.touch()
	if token := s.logoutToken(ctx); token != "" {
		if err := s.api.Logout(ctx, token); err != nil {
			s.log.Debug().Err(err).Str("visitor", s.visitorID).Msg("server-side logout failed")
		}
	}
	s.clear(context.WithoutCancel(ctx), domain.EventLogout, PhaseAnonymous, "")
}

// logoutToken is the token to revoke. While the startup resolution has not
// yet adopted the persisted token, it is read from storage directly.
func (s *Store) logoutToken(ctx context.Context) string {
	s.mu.RLock()
	token, loading := s.token, s.loading
	s.mu.RUnlock()
	if token != "" || !loading {
		return token
	}
	cached, err := s.storage.Load(ctx, ports.StorageKeyToken)
	if err != nil {
		s.log.Debug().Err(err).Str("visitor", s.visitorID).Msg("read persisted token for logout failed")
		return ""
	}
	return cached[ports.StorageKeyToken]
}

// UpdateProfile sends the changed fields and replaces the user with the
// backend's record. The result is dropped if the session changed meanwhile.
func (s *Store) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.User, error) {
	s.touch()
	token := s.Token()
	if token == "" {
		return nil, &domain.SessionError{Op: "profile", Message: "Not authenticated", Err: domain.ErrUnauthenticated}
	}
	if update.Empty() {
		return nil, &domain.SessionError{Op: "profile", Message: "Nothing to update", Err: domain.ErrValidation}
	}

	updated, err := s.api.UpdateProfile(ctx, token, update)
	if err == nil && updated == nil {
		err = errors.New("empty user in response")
	}
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			s.expire(ctx, token)
		}
		return nil, &domain.SessionError{Op: "profile", Message: domain.MessageOr(err, msgProfileFailed), Err: err}
	}

	s.commitMu.Lock()
	s.mu.Lock()
	current := s.token == token
	if current {
		s.user = updated.Clone()
		s.epoch++
	}
	s.mu.Unlock()
	if current {
		s.persist(ctx, map[string]string{ports.StorageKeyUser: mustJSON(updated)}, token)
		s.publish(domain.EventProfileUpdated, updated, "")
	}
	s.commitMu.Unlock()

	if !current {
		return nil, &domain.SessionError{Op: "profile", Message: "Session changed during update", Err: domain.ErrUnauthenticated}
	}
	return updated.Clone(), nil
}

// Call issues an authenticated backend request for a page. A 401 clears the
// session that issued it; the error is returned either way.
func (s *Store) Call(ctx context.Context, method, path string, body, out any) error {
	s.touch()
	token := s.Token()
	if token == "" {
		return domain.ErrUnauthenticated
	}
	err := s.api.Do(ctx, token, method, path, body, out)
	if errors.Is(err, domain.ErrUnauthenticated) {
		s.expire(ctx, token)
	}
	return err
}

// Token returns the current bearer token, empty when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// LastUsed is the time of the last read or operation.
func (s *Store) LastUsed() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

func (s *Store) touch() {
	s.lastUsed.Store(s.now().UnixNano())
}

func (s *Store) expire(ctx context.Context, token string) {
	s.commitMu.Lock()
	s.mu.Lock()
	current := s.token != "" && s.token == token
	if current {
		s.user, s.token, s.phase = nil, "", PhaseRejected
		s.epoch++
	}
	s.mu.Unlock()
	if current {
		s.removePersisted(context.WithoutCancel(ctx))
		s.publish(domain.EventExpired, nil, "unauthorized")
	}
	s.commitMu.Unlock()

	if current {
		s.log.Info().Str("visitor", s.visitorID).Msg("session expired by backend")
	}
}

func (s *Store) establish(ctx context.Context, payload *domain.AuthPayload, ev domain.SessionEventType) {
	user := payload.User.Clone()

	s.commitMu.Lock()
	s.apply(func() {
		s.user = user
		s.token = payload.Token
		s.phase = PhaseVerified
	})
	s.persist(context.WithoutCancel(ctx), map[string]string{
		ports.StorageKeyToken: payload.Token,
		ports.StorageKeyUser:  mustJSON(user),
	}, payload.Token)
	s.publish(ev, user, "")
	s.commitMu.Unlock()
}

func (s *Store) clear(ctx context.Context, ev domain.SessionEventType, phase Phase, why string) {
	var prev *domain.User
	s.commitMu.Lock()
	s.apply(func() {
		prev = s.user
		s.user, s.token, s.phase = nil, "", phase
	})
	s.removePersisted(ctx)
	s.publish(ev, prev, why)
	s.commitMu.Unlock()
}

func (s *Store) clearIf(ctx context.Context, epoch uint64, ev domain.SessionEventType, phase Phase, why string) {
	var prev *domain.User
	s.commitMu.Lock()
	_, ok := s.applyIf(epoch, func() {
		prev = s.user
		s.user, s.token, s.phase = nil, "", phase
	})
	if ok {
		s.removePersisted(ctx)
		s.publish(ev, prev, why)
	}
	s.commitMu.Unlock()
}

// apply mutates the session under the write lock and advances the epoch.
func (s *Store) apply(fn func()) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
	s.epoch++
	return s.epoch
}

// applyIf is apply guarded by an expected epoch.
func (s *Store) applyIf(epoch uint64, fn func()) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return s.epoch, false
	}
	fn()
	s.epoch++
	return s.epoch, true
}

func (s *Store) currentEpoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

func (s *Store) finishLoading() {
	s.mu.Lock()
	s.loading = false
	if s.phase == PhaseIdle {
		s.phase = PhaseAnonymous
	}
	s.mu.Unlock()
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *Store) persist(ctx context.Context, values map[string]string, token string) {
	if err := s.storage.Save(ctx, values, s.ttlFor(token)); err != nil {
		s.log.Warn().Err(err).Str("visitor", s.visitorID).Msg("persist session failed")
	}
}

func (s *Store) removePersisted(ctx context.Context) {
	if err := s.storage.Remove(ctx, ports.StorageKeyToken, ports.StorageKeyUser); err != nil {
		s.log.Warn().Err(err).Str("visitor", s.visitorID).Msg("remove persisted session failed")
	}
}

// ttlFor shortens the storage TTL to the token's own expiry when it has one.
func (s *Store) ttlFor(token string) time.Duration {
	ttl := s.storageTTL
	if exp, ok := TokenExpiry(token); ok {
		if left := exp.Sub(s.now()); left > 0 && (ttl <= 0 || left < ttl) {
			ttl = left
		}
	}
	return ttl
}

// publish runs under commitMu so subscribers see events in commit order.
// Subscribers may read Snapshot but must not start another operation.
func (s *Store) publish(t domain.SessionEventType, u *domain.User, why string) {
	ev := domain.SessionEvent{
		VisitorID: s.visitorID,
		Type:      t,
		Reason:    why,
		At:        s.now().UTC(),
	}
	if u != nil {
		ev.UserID, ev.Email, ev.Role = u.ID, u.Email, u.Role.Name
	}

	s.subMu.Lock()
	fns := make([]func(domain.SessionEvent), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func checkPayload(p *domain.AuthPayload) error {
	if p == nil || p.User == nil || p.Token == "" {
		return errors.New("response missing user or token")
	}
	return nil
}

func validateRegistration(reg domain.Registration) error {
	switch {
	case strings.TrimSpace(reg.Name) == "", strings.TrimSpace(reg.Email) == "", reg.Password == "":
		return &domain.SessionError{Op: "register", Message: "Name, email and password are required", Err: domain.ErrValidation}
	case reg.Password != reg.PasswordConfirmation:
		return &domain.SessionError{Op: "register", Message: "Passwords do not match", Err: domain.ErrPasswordMismatch}
	}
	return nil
}

func reason(err error) string {
	if ae := domain.AsAPIError(err); ae != nil {
		return fmt.Sprintf("status %d", ae.Status)
	}
	return "transport error"
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		// domain.User only holds marshalable fields
		panic(fmt.Sprintf("marshal session user: %v", err))
	}
	return string(b)
}
