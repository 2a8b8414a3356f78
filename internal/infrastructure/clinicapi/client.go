package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/medicore/clinic-portal/internal/core/domain"
	"github.com/medicore/clinic-portal/internal/core/ports"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 4 << 20
)

// Config captures the settings for reaching the clinic backend.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Observer receives one call per completed round trip. Status is 0 when no
// response arrived.
type Observer func(method, path string, status int, elapsed time.Duration)

// Client is the single HTTP wrapper for the clinic backend. It attaches the
// bearer token, speaks JSON, and turns every failure into an error callers
// can inspect with errors.Is / domain.AsAPIError.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
	observe Observer
}

var _ ports.ClinicAPI = (*Client)(nil)

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client; its Timeout is kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observe = o }
}

// New returns a Client for cfg.BaseURL.
func New(cfg Config, log zerolog.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthPayload, error) {
	var env domain.Envelope[*domain.AuthPayload]
	if err := c.send(ctx, "", http.MethodPost, "/login", creds, &env); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return env.Data, nil
}

func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.AuthPayload, error) {
	var env domain.Envelope[*domain.AuthPayload]
	if err := c.send(ctx, "", http.MethodPost, "/register", reg, &env); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return env.Data, nil
}

// CurrentUser fetches the record the token belongs to.
func (c *Client) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	var env domain.Envelope[*domain.User]
	if err := c.send(ctx, token, http.MethodGet, "/user", nil, &env); err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return env.Data, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	if err := c.send(ctx, token, http.MethodPost, "/logout", nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, update domain.ProfileUpdate) (*domain.User, error) {
	var env domain.Envelope[*domain.User]
	if err := c.send(ctx, token, http.MethodPut, "/profile", update, &env); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return env.Data, nil
}

// Do issues method path with the token and decodes the full response body
// into out when out is non-nil. A *domain.RawResponse receives the body
// undecoded along with the status.
func (c *Client) Do(ctx context.Context, token, method, path string, body, out any) error {
	return c.send(ctx, token, method, path, body, out)
}

// Ping reports whether the backend answers at all. Any HTTP status counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ping clinic api: %w", err)
	}
	_ = resp.Body.Close()
	return nil
}

func (c *Client) send(ctx context.Context, token, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.done(method, path, 0, start)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.done(method, path, resp.StatusCode, start)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp.StatusCode, raw)
	}
	if fail := envelopeFailure(resp.StatusCode, raw); fail != nil {
		return fail
	}
	if rr, ok := out.(*domain.RawResponse); ok {
		rr.Status = resp.StatusCode
		rr.Body = bytes.TrimSpace(raw)
		return nil
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func (c *Client) done(method, path string, status int, start time.Time) {
	elapsed := time.Since(start)
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("elapsed", elapsed).
		Msg("clinic api call")
	if c.observe != nil {
		c.observe(method, path, status, elapsed)
	}
}

// apiError builds the error for a non-2xx response, keeping the server
// message when the body carries one.
func apiError(status int, raw []byte) error {
	ae := &domain.APIError{Status: status}
	var env domain.Envelope[json.RawMessage]
	if json.Unmarshal(raw, &env) == nil {
		ae.Message = env.Message
		ae.Errors = env.Errors
	}
	return ae
}

// envelopeFailure reports a 2xx response whose envelope says success:false.
// Bodies that are not envelopes pass.
func envelopeFailure(status int, raw []byte) error {
	var head struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
		Errors  any    `json:"errors"`
	}
	if json.Unmarshal(raw, &head) != nil || head.Success == nil || *head.Success {
		return nil
	}
	return &domain.APIError{Status: status, Message: head.Message, Errors: head.Errors}
}
