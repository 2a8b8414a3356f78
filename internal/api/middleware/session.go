package middleware

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/medicore/clinic-portal/internal/core/domain"
	"github.com/medicore/clinic-portal/internal/core/service"
)

const (
	visitorIDKey = "visitor_id"
	storeKey     = "session_store"
)

// StoreProvider hands out the session store of a visitor.
type StoreProvider interface {
	Get(visitorID string) *service.Store
}

// SessionConfig configures the visitor cookie.
type SessionConfig struct {
	CookieName string
	MaxAge     int // seconds
	Secure     bool
}

// Session binds the visitor's Store to the request. The visitor is
// identified by a random ID kept in a signed cookie; a missing or tampered
// cookie starts a new visitor. It must run after session.Middleware.
func Session(stores StoreProvider, cfg SessionConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := session.Get(cfg.CookieName, c)
			if sess == nil {
				return fmt.Errorf("visitor cookie: %w", err)
			}

			id, _ := sess.Values[visitorIDKey].(string)
			if _, perr := uuid.Parse(id); perr != nil {
				id = uuid.NewString()
				sess.Values[visitorIDKey] = id
				sess.Options = &sessions.Options{
					Path:     "/",
					MaxAge:   cfg.MaxAge,
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				}
				if err := sess.Save(c.Request(), c.Response()); err != nil {
					return fmt.Errorf("save visitor cookie: %w", err)
				}
			}

			c.Set(visitorIDKey, id)
			c.Set(storeKey, stores.Get(id))
			return next(c)
		}
	}
}

// StoreFrom returns the Store bound by Session.
func StoreFrom(c echo.Context) (*service.Store, error) {
	s, ok := c.Get(storeKey).(*service.Store)
	if !ok || s == nil {
		return nil, domain.ErrNoSession
	}
	return s, nil
}

// WithStore binds s to c. Used by tests and by handlers mounted without the
// Session middleware.
func WithStore(c echo.Context, s *service.Store) {
	c.Set(storeKey, s)
}
