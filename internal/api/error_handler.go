package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medicore/clinic-portal/internal/api/view"
	"github.com/medicore/clinic-portal/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Sends page requests without a session to /login; API clients get 401.
//     This is the one place a lost session turns into navigation.
//   - Maps known domain and backend errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders {"error": "<message>"} for JSON clients and the error page otherwise.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		if errors.Is(err, domain.ErrUnauthenticated) && !view.WantsJSON(c) {
			_ = c.Redirect(http.StatusSeeOther, "/login")
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		if view.WantsJSON(c) {
			_ = c.JSON(code, errorResponse{Error: msg})
			return
		}
		if rerr := c.Render(code, view.PageError, view.ErrorPage{Status: code, Message: msg}); rerr != nil {
			_ = c.JSON(code, errorResponse{Error: msg})
		}
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Warn().Err(he.Internal).Str("path", c.Path()).Msg("request failed")
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrPasswordMismatch), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusUnprocessableEntity, err.Error()
	}

	// Backend answered with an error: client errors pass through, server
	// errors become 502.
	if ae := domain.AsAPIError(err); ae != nil {
		// success:false inside a 2xx envelope is a rejected request.
		if ae.Status < 400 {
			return http.StatusUnprocessableEntity, domain.MessageOr(ae, "request rejected by clinic backend")
		}
		if ae.Status < 500 {
			return ae.Status, domain.MessageOr(ae, http.StatusText(ae.Status))
		}
		log.Warn().Int("upstream_status", ae.Status).Str("path", c.Path()).Msg("clinic api error")
		return http.StatusBadGateway, "clinic backend error"
	}

	var uerr *url.Error
	if errors.As(err, &uerr) {
		log.Warn().Err(err).Str("path", c.Path()).Msg("clinic api unreachable")
		return http.StatusBadGateway, "clinic backend unavailable"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
