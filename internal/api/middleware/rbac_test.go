package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/medicore/clinic-portal/internal/api/view"
	"github.com/medicore/clinic-portal/internal/core/domain"
	"github.com/medicore/clinic-portal/internal/core/service"
)

func guardContext(store *service.Store, accept string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Renderer = view.MustRenderer()
	req := httptest.NewRequest(http.MethodGet, "/doctor/queue", nil)
	if accept != "" {
		req.Header.Set(echo.HeaderAccept, accept)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if store != nil {
		WithStore(c, store)
	}
	return c, rec
}

func TestGuard_Allows(t *testing.T) {
	c, rec := guardContext(newStore(domain.RoleAdmin), "")

	called := false
	handler := Guard(domain.RoleDoctor, domain.RoleAdmin)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGuard_AnyAuthenticatedUser(t *testing.T) {
	c, _ := guardContext(newStore(domain.RolePharmacist), "")

	called := false
	_ = Guard()(func(echo.Context) error { called = true; return nil })(c)

	if !called {
		t.Fatalf("empty allow-list should admit any authenticated user")
	}
}

func TestGuard_Forbids(t *testing.T) {
	c, rec := guardContext(newStore(domain.RolePharmacist), "")

	handler := Guard(domain.RoleDoctor, domain.RoleAdmin)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `href="/pharmacist/dashboard"`) {
		t.Fatalf("denied page should link to the landing page, got %s", rec.Body.String())
	}
}

func TestGuard_ForbidsWithFallback(t *testing.T) {
	c, rec := guardContext(newStore(domain.RoleNurse), "")

	handler := GuardWithConfig(GuardConfig{
		Roles: []string{domain.RoleAdmin},
		Fallback: func(c echo.Context) error {
			return c.String(http.StatusTeapot, "fallback")
		},
	})(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	_ = handler(c)
	if rec.Code != http.StatusTeapot || rec.Body.String() != "fallback" {
		t.Fatalf("expected fallback response, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestGuard_Unauthenticated(t *testing.T) {
	c, _ := guardContext(newStore(""), "")

	err := Guard()(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})(c)

	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestGuard_Resolving(t *testing.T) {
	var observed []service.Access
	c, rec := guardContext(loadingStore(), "")

	handler := GuardWithConfig(GuardConfig{
		Roles:   []string{domain.RoleAdmin},
		Observe: func(a service.Access) { observed = append(observed, a) },
	})(func(c echo.Context) error {
		t.Fatalf("should not reach next handler while loading")
		return nil
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Refresh") != "1" {
		t.Fatalf("expected Refresh header, got %q", rec.Header().Get("Refresh"))
	}
	if len(observed) != 1 || observed[0] != service.AccessResolving {
		t.Fatalf("expected one resolving decision, got %v", observed)
	}
}

func TestGuard_ResolvingJSON(t *testing.T) {
	c, rec := guardContext(loadingStore(), echo.MIMEApplicationJSON)

	_ = Guard()(func(echo.Context) error { return nil })(c)

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"loading":true`) {
		t.Fatalf("expected loading JSON, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestGuard_NoStore(t *testing.T) {
	c, _ := guardContext(nil, "")

	err := Guard()(func(echo.Context) error { return nil })(c)

	if !errors.Is(err, domain.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}
