package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medicore/clinic-portal/internal/api/view"
	"github.com/medicore/clinic-portal/internal/core/domain"
	"github.com/medicore/clinic-portal/internal/core/service"
)

// GuardConfig configures a route guard.
type GuardConfig struct {
	// Roles is the allow-list; empty admits any authenticated user.
	Roles []string
	// Fallback renders a denied request instead of the default denied page.
	Fallback echo.HandlerFunc
	// Observe, when set, receives every decision.
	Observe func(service.Access)
}

// Guard gates a route on the visitor's session and role.
func Guard(roles ...string) echo.MiddlewareFunc {
	return GuardWithConfig(GuardConfig{Roles: roles})
}

// GuardWithConfig returns a Guard middleware with config:
//   - resolving: loading page, retried by the browser via Refresh
//   - unauthenticated: domain.ErrUnauthenticated, which the error handler
//     turns into a redirect to /login
//   - denied: Fallback, or a 403 page linking to the user's dashboard
//   - granted: next
func GuardWithConfig(cfg GuardConfig) echo.MiddlewareFunc {
	roles := append([]string(nil), cfg.Roles...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			store, err := StoreFrom(c)
			if err != nil {
				return err
			}

			snap := store.Snapshot()
			access := service.EvaluateAccess(snap, roles)
			if cfg.Observe != nil {
				cfg.Observe(access)
			}

			switch access {
			case service.AccessResolving:
				c.Response().Header().Set("Refresh", "1")
				c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
				return view.Respond(c, http.StatusOK, view.PageLoading, view.LoadingPage{Loading: true})
			case service.AccessUnauthenticated:
				return domain.ErrUnauthenticated
			case service.AccessDenied:
				if cfg.Fallback != nil {
					return cfg.Fallback(c)
				}
				role := snap.User.RoleName()
				return view.Respond(c, http.StatusForbidden, view.PageDenied, view.DeniedPage{
					Error:   "access forbidden",
					Role:    role,
					Landing: domain.LandingPath(role),
				})
			default:
				return next(c)
			}
		}
	}
}
