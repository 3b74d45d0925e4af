// Package backend is the HTTP client for the upstream registration
// backend, the source of truth the portal syncs against. Every call
// returns a uniform Result envelope; transport failures and non-2xx
// statuses become Success=false results, never panics or raw errors,
// so callers can degrade gracefully.
package backend

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

	"github.com/mealworks/lunch-portal/internal/model"
)

// Result is the uniform response envelope shared by all gateway
// operations.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func failure[T any](err error) Result[T] {
	return Result[T]{Success: false, Error: err.Error()}
}

// Receipt is the backend's confirmation of a submitted registration.
type Receipt struct {
	RegistrationID string `json:"registrationId"`
}

// Client talks to the upstream REST backend.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient builds a gateway client. The timeout bounds every call so
// an unresponsive backend cannot wedge a sign-up indefinitely.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "backend").Logger(),
	}
}

// FetchEvents retrieves the full event list.
// GET /api/events
func (c *Client) FetchEvents(ctx context.Context) Result[[]model.Event] {
	return call[[]model.Event](c, ctx, http.MethodGet, "/api/events", nil)
}

// RegisterForEvent submits one registration.
// POST /api/registrations
func (c *Client) RegisterForEvent(ctx context.Context, req model.RegistrationRequest) Result[Receipt] {
	return call[Receipt](c, ctx, http.MethodPost, "/api/registrations", req)
}

// UserRegistrations lists the registrations held by one user.
// GET /api/users/{id}/registrations
func (c *Client) UserRegistrations(ctx context.Context, userID string) Result[[]model.Registration] {
	return call[[]model.Registration](c, ctx, http.MethodGet, "/api/users/"+userID+"/registrations", nil)
}

// CancelRegistration deletes a registration by id.
// DELETE /api/registrations/{id}
func (c *Client) CancelRegistration(ctx context.Context, registrationID string) Result[struct{}] {
	return call[struct{}](c, ctx, http.MethodDelete, "/api/registrations/"+registrationID, nil)
}

// call performs one request and folds every failure mode into the
// Result envelope. A free function because methods cannot have type
// parameters.
func call[T any](c *Client, ctx context.Context, method, path string, body any) Result[T] {
	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return failure[T](fmt.Errorf("encode request: %w", err))
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return failure[T](fmt.Errorf("build request: %w", err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("backend unreachable")
		return failure[T](fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return failure[T](fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(raw)
		c.log.Warn().Int("status", resp.StatusCode).Str("path", path).Str("error", msg).Msg("backend rejected request")
		return failure[T](fmt.Errorf("%s %s: %s", method, path, msg))
	}

	var res Result[T]
	res.Success = true
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &res.Data); err != nil {
			return failure[T](fmt.Errorf("decode response: %w", err))
		}
	}
	return res
}

// errorMessage pulls a human-readable message out of a backend error
// body, falling back to the raw text.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	return "backend error"
}
