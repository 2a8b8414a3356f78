package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medicore/clinic-portal/internal/api/middleware"
	"github.com/medicore/clinic-portal/internal/core/domain"
	"github.com/medicore/clinic-portal/internal/core/service"
)

// ctxStore returns the visitor's store bound by the Session middleware.
func ctxStore(c echo.Context) (*service.Store, error) {
	store, err := middleware.StoreFrom(c)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "session unavailable").SetInternal(err)
	}
	return store, nil
}

// ctxUser returns the store and its current user. Handlers behind a Guard
// always have one; a session that expired in between reports
// domain.ErrUnauthenticated.
func ctxUser(c echo.Context) (*service.Store, *domain.User, error) {
	store, err := ctxStore(c)
	if err != nil {
		return nil, nil, err
	}
	user := store.Snapshot().User
	if user == nil {
		return nil, nil, domain.ErrUnauthenticated
	}
	return store, user, nil
}

// formStatus picks the status for a form re-rendered with an error: the
// backend's 4xx when there was one, 422 for local validation or a
// success:false envelope, 502 otherwise.
func formStatus(err error) int {
	if ae := domain.AsAPIError(err); ae != nil && ae.Status < 500 {
		if ae.Status < 400 {
			return http.StatusUnprocessableEntity
		}
		return ae.Status
	}
	if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrPasswordMismatch) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}
