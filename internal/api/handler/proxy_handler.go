package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/medicore/clinic-portal/internal/core/domain"
)

const maxProxyBody = 1 << 20

// ProxyHandler forwards /api/* to the clinic backend with the visitor's
// token. A 401 from the backend ends the session like any other page call.
type ProxyHandler struct{}

func NewProxyHandler() *ProxyHandler {
	return &ProxyHandler{}
}

// Forward godoc
//
// @Summary      Backend passthrough
// @Tags         api
// @Accept       json
// @Produce      json
// @Param        path  path  string  true  "Backend path"
// @Success      200
// @Success      201
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/{path} [get]
func (h *ProxyHandler) Forward(c echo.Context) error {
	store, _, err := ctxUser(c)
	if err != nil {
		return err
	}

	req := c.Request()
	target, ok := backendPath(req.URL.Path)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid api path")
	}
	if q := req.URL.RawQuery; q != "" {
		target += "?" + q
	}

	var body any
	if req.Body != nil && req.ContentLength != 0 {
		raw, err := io.ReadAll(io.LimitReader(req.Body, maxProxyBody))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable body").SetInternal(err)
		}
		if len(raw) > 0 {
			if !json.Valid(raw) {
				return echo.NewHTTPError(http.StatusBadRequest, "body must be JSON")
			}
			body = json.RawMessage(raw)
		}
	}

	var out domain.RawResponse
	if err := store.Call(req.Context(), req.Method, target, body, &out); err != nil {
		return err
	}
	status := out.Status
	if status == 0 {
		status = http.StatusOK
	}
	if len(out.Body) == 0 || status == http.StatusNoContent {
		if status == http.StatusOK {
			status = http.StatusNoContent
		}
		return c.NoContent(status)
	}
	return c.JSONBlob(status, out.Body)
}

// backendPath maps /api/<rest> to the backend path. Dot segments are refused
// so a request cannot climb out of the api root.
func backendPath(raw string) (string, bool) {
	rest := strings.TrimPrefix(raw, "/api")
	for _, seg := range strings.Split(rest, "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}
	clean := path.Clean("/" + rest)
	if clean == "/" {
		return "", false
	}
	return (&url.URL{Path: clean}).EscapedPath(), true
}
