package clinicapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicore/clinic-portal/internal/core/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/api/"}, zerolog.Nop(), opts...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_Login(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var creds domain.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "sari@clinic.test", creds.Email)

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"user":  map[string]any{"id": 7, "name": "Dr. Sari", "email": creds.Email, "role": map[string]any{"id": 2, "name": "doctor"}},
				"token": "tok-1",
			},
		})
	})

	payload, err := c.Login(context.Background(), domain.Credentials{Email: "sari@clinic.test", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", payload.Token)
	assert.Equal(t, domain.RoleDoctor, payload.User.RoleName())
}

func TestClient_LoginRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"success": false,
			"message": "The provided credentials are incorrect.",
			"errors":  map[string][]string{"email": {"The provided credentials are incorrect."}},
		})
	})

	_, err := c.Login(context.Background(), domain.Credentials{Email: "x@clinic.test", Password: "bad"})

	ae := domain.AsAPIError(err)
	require.NotNil(t, ae)
	assert.Equal(t, http.StatusUnprocessableEntity, ae.Status)
	assert.Equal(t, "The provided credentials are incorrect.", ae.Message)
	assert.NotNil(t, ae.Errors)
	assert.False(t, errors.Is(err, domain.ErrUnauthenticated))
}

func TestClient_SuccessFalseOn200(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Email already taken"})
	})

	_, err := c.Register(context.Background(), domain.Registration{Name: "A", Email: "a@clinic.test"})

	require.Error(t, err)
	assert.Equal(t, "Email already taken", domain.MessageOr(err, "Registration failed"))
}

func TestClient_UnauthorizedIsTyped(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-stale", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthenticated."})
	})

	_, err := c.CurrentUser(context.Background(), "tok-stale")

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Equal(t, http.StatusUnauthorized, domain.AsAPIError(err).Status)
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})

	err := c.Do(context.Background(), "tok", http.MethodGet, "/screenings", nil, nil)

	ae := domain.AsAPIError(err)
	require.NotNil(t, ae)
	assert.Equal(t, http.StatusBadGateway, ae.Status)
	assert.Equal(t, "Profile update failed", domain.MessageOr(err, "Profile update failed"))
	assert.Equal(t, "backend responded 502", err.Error())
}

func TestClient_TransportError(t *testing.T) {
	var observed []int
	c := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, zerolog.Nop(),
		WithObserver(func(_, _ string, status int, _ time.Duration) { observed = append(observed, status) }))

	err := c.Logout(context.Background(), "tok")

	require.Error(t, err)
	assert.Nil(t, domain.AsAPIError(err))
	assert.Equal(t, []int{0}, observed)
}

func TestClient_DoDecodesBody(t *testing.T) {
	var observedPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/medicines", r.URL.Path)
		assert.Equal(t, "page=2", r.URL.RawQuery)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    []map[string]any{{"id": 1, "name": "Paracetamol", "stock": 4}},
		})
	}, WithObserver(func(_, path string, _ int, _ time.Duration) { observedPath = path }))

	var env domain.Envelope[[]domain.Medicine]
	err := c.Do(context.Background(), "tok", http.MethodGet, "medicines?page=2", nil, &env)

	require.NoError(t, err)
	require.Len(t, env.Data, 1)
	assert.Equal(t, 4, env.Data[0].Stock)
	assert.Equal(t, "medicines?page=2", observedPath)
}

func TestClient_UpdateProfileSendsOnlySetFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"phone": "0812"}, body)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"id": 7, "phone": "0812"}})
	})

	phone := "0812"
	u, err := c.UpdateProfile(context.Background(), "tok", domain.ProfileUpdate{Phone: &phone})

	require.NoError(t, err)
	assert.Equal(t, "0812", u.Phone)
}

func TestClient_Ping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	assert.NoError(t, c.Ping(context.Background()))

	down := New(Config{BaseURL: "http://127.0.0.1:1"}, zerolog.Nop())
	assert.Error(t, down.Ping(context.Background()))
}

func TestClient_DoRawKeepsStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": map[string]any{"id": 3}})
	})

	var out domain.RawResponse
	err := c.Do(context.Background(), "tok", http.MethodPost, "/patients", map[string]string{"name": "Ana"}, &out)

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, out.Status)
	assert.JSONEq(t, `{"success":true,"data":{"id":3}}`, string(out.Body))
}
