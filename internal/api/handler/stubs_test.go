package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/medicore/clinic-portal/internal/api/middleware"
	"github.com/medicore/clinic-portal/internal/api/view"
	"github.com/medicore/clinic-portal/internal/core/domain"
	"github.com/medicore/clinic-portal/internal/core/service"
	"github.com/medicore/clinic-portal/internal/infrastructure/storage"
)

type stubAPI struct {
	loginFn    func(ctx context.Context, creds domain.Credentials) (*domain.AuthPayload, error)
	registerFn func(ctx context.Context, reg domain.Registration) (*domain.AuthPayload, error)
	updateFn   func(ctx context.Context, token string, update domain.ProfileUpdate) (*domain.User, error)
	doFn       func(ctx context.Context, token, method, path string, body, out any) error
	loggedOut  bool
}

func (s *stubAPI) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthPayload, error) {
	if s.loginFn == nil {
		return nil, errors.New("unexpected login")
	}
	return s.loginFn(ctx, creds)
}

func (s *stubAPI) Register(ctx context.Context, reg domain.Registration) (*domain.AuthPayload, error) {
	if s.registerFn == nil {
		return nil, errors.New("unexpected register")
	}
	return s.registerFn(ctx, reg)
}

func (s *stubAPI) CurrentUser(context.Context, string) (*domain.User, error) {
	return nil, &domain.APIError{Status: http.StatusUnauthorized}
}

func (s *stubAPI) Logout(context.Context, string) error {
	s.loggedOut = true
	return nil
}

func (s *stubAPI) UpdateProfile(ctx context.Context, token string, update domain.ProfileUpdate) (*domain.User, error) {
	if s.updateFn == nil {
		return nil, errors.New("unexpected update")
	}
	return s.updateFn(ctx, token, update)
}

func (s *stubAPI) Do(ctx context.Context, token, method, path string, body, out any) error {
	if s.doFn == nil {
		return errors.New("unexpected call")
	}
	return s.doFn(ctx, token, method, path, body, out)
}

// respondWith returns a doFn that decodes raw into out.
func respondWith(raw string) func(context.Context, string, string, string, any, any) error {
	return func(_ context.Context, _, _, _ string, _, out any) error {
		return json.Unmarshal([]byte(raw), out)
	}
}

func userWithRole(role string) *domain.User {
	return &domain.User{ID: 7, Name: "Dana", Email: "dana@clinic.test", Role: domain.Role{Name: role}}
}

// anonymousStore returns a resolved store with no session.
func anonymousStore(api *stubAPI) *service.Store {
	s := service.NewStore("visitor", api, storage.NewMemory().Factory()("visitor"))
	s.Initialize(context.Background())
	return s
}

// signedInStore returns a store logged in as user with token "tok".
func signedInStore(t *testing.T, api *stubAPI, user *domain.User) *service.Store {
	t.Helper()
	login := api.loginFn
	api.loginFn = func(context.Context, domain.Credentials) (*domain.AuthPayload, error) {
		return &domain.AuthPayload{User: user, Token: "tok"}, nil
	}
	s := anonymousStore(api)
	if _, err := s.Login(context.Background(), domain.Credentials{Email: user.Email, Password: "secret"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	api.loginFn = login
	return s
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.Renderer = view.MustRenderer()
	return e
}

// newContext builds a request bound to store. A non-empty contentType sets
// both Content-Type and, for JSON, Accept.
func newContext(e *echo.Echo, store *service.Store, method, target, body, contentType string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
		if contentType == echo.MIMEApplicationJSON {
			req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
		}
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.WithStore(c, store)
	return c, rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return v
}
