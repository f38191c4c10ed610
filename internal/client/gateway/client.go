// Package gateway issues authenticated REST calls against the ERP
// backend. A 401 triggers one transparent token refresh and a single
// retry of the original request; concurrent 401 handlers share one
// in-flight refresh so the rotated refresh token is never consumed
// twice.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"framecraft/internal/client/tokenstore"

	"golang.org/x/sync/singleflight"
)

// ErrAuthExpired marks a request that failed because no valid session
// exists: missing tokens, or a refresh that did not succeed. Callers
// redirect to login instead of reporting a business error.
var ErrAuthExpired = errors.New("authentication expired, please log in")

// FieldError carries a per-field validation failure from the backend
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError carries the backend's structured error payload unchanged
type APIError struct {
	Status  int
	Message string
	Fields  []FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// envelope mirrors the backend's response wrapper. Error stays raw:
// the backend emits it as a plain string, but proxies and older
// endpoints have produced field->message objects there too.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
	Errors  []FieldError    `json:"errors"`
}

// errorText flattens the envelope's error field to one message
func errorText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var fields map[string]string
	if err := json.Unmarshal(raw, &fields); err == nil {
		parts := make([]string, 0, len(fields))
		for field, message := range fields {
			parts = append(parts, field+": "+message)
		}
		sort.Strings(parts)
		return strings.Join(parts, "; ")
	}

	return string(raw)
}

// Client is the API gateway client
type Client struct {
	baseURL string
	http    *http.Client
	store   *tokenstore.Store
	refresh singleflight.Group
}

// New creates a gateway client rooted at baseURL
func New(baseURL string, store *tokenstore.Store) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		store:   store,
	}
}

type callOptions struct {
	authenticated bool
}

// Option adjusts a single call
type Option func(*callOptions)

// Unauthenticated issues the call without a bearer credential and
// without the 401 refresh path (login, register, refresh itself).
func Unauthenticated() Option {
	return func(o *callOptions) { o.authenticated = false }
}

// Get issues a GET request and returns the response data payload
func (c *Client) Get(ctx context.Context, path string, opts ...Option) (json.RawMessage, error) {
	return c.call(ctx, http.MethodGet, path, nil, opts...)
}

// Post issues a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body interface{}, opts ...Option) (json.RawMessage, error) {
	return c.call(ctx, http.MethodPost, path, body, opts...)
}

// Put issues a PUT request with a JSON body
func (c *Client) Put(ctx context.Context, path string, body interface{}, opts ...Option) (json.RawMessage, error) {
	return c.call(ctx, http.MethodPut, path, body, opts...)
}

// Delete issues a DELETE request with a JSON body
func (c *Client) Delete(ctx context.Context, path string, body interface{}, opts ...Option) (json.RawMessage, error) {
	return c.call(ctx, http.MethodDelete, path, body, opts...)
}

func (c *Client) call(ctx context.Context, method, path string, body interface{}, opts ...Option) (json.RawMessage, error) {
	options := callOptions{authenticated: true}
	for _, opt := range opts {
		opt(&options)
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	status, data, apiErr, err := c.send(ctx, method, path, payload, options.authenticated)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized && options.authenticated {
		// One transparent refresh, then one retry with the new token.
		if err := c.refreshTokens(ctx); err != nil {
			return nil, err
		}
		status, data, apiErr, err = c.send(ctx, method, path, payload, true)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			// The refreshed token was rejected too; the session is gone.
			_ = c.store.Clear()
			return nil, ErrAuthExpired
		}
	}

	if apiErr != nil {
		return nil, apiErr
	}
	return data, nil
}

// send performs one HTTP round trip. It returns the status, the data
// payload on success, or the decoded APIError on a non-2xx status.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, authenticated bool) (int, json.RawMessage, *APIError, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authenticated {
		if pair, ok, _ := c.store.Load(); ok {
			req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return 0, nil, nil, fmt.Errorf("decode response: %w", err)
		}
	}

	if resp.StatusCode >= 300 {
		msg := errorText(env.Error)
		if msg == "" {
			msg = env.Message
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return resp.StatusCode, nil, &APIError{
			Status:  resp.StatusCode,
			Message: msg,
			Fields:  env.Errors,
		}, nil
	}

	return resp.StatusCode, env.Data, nil, nil
}

// refreshPayload is the data payload of POST /auth/refresh
type refreshPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// refreshTokens rotates the stored pair. Concurrent callers are
// collapsed onto a single /auth/refresh round trip; every caller sees
// the same outcome. Any failure clears the store.
func (c *Client) refreshTokens(ctx context.Context) error {
	_, err, _ := c.refresh.Do("refresh", func() (interface{}, error) {
		pair, ok, err := c.store.Load()
		if err != nil {
			return nil, err
		}
		if !ok || pair.RefreshToken == "" {
			return nil, ErrAuthExpired
		}

		body := map[string]string{"refresh_token": pair.RefreshToken}
		status, data, apiErr, err := c.sendRefresh(ctx, body)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized || apiErr != nil {
			return nil, ErrAuthExpired
		}

		var refreshed refreshPayload
		if err := json.Unmarshal(data, &refreshed); err != nil {
			return nil, ErrAuthExpired
		}
		if refreshed.AccessToken == "" || refreshed.RefreshToken == "" {
			return nil, ErrAuthExpired
		}

		newPair := tokenstore.TokenPair{
			AccessToken:  refreshed.AccessToken,
			RefreshToken: refreshed.RefreshToken,
		}
		if err := c.store.Save(newPair); err != nil {
			return nil, err
		}
		return newPair, nil
	})
	if err != nil {
		_ = c.store.Clear()
		if errors.Is(err, ErrAuthExpired) {
			return ErrAuthExpired
		}
		return err
	}
	return nil
}

func (c *Client) sendRefresh(ctx context.Context, body map[string]string) (int, json.RawMessage, *APIError, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, nil, err
	}
	return c.send(ctx, http.MethodPost, "/auth/refresh", payload, false)
}
