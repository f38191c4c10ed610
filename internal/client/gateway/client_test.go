package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"framecraft/internal/client/tokenstore"
)

func newTestStore(t *testing.T) *tokenstore.Store {
	t.Helper()
	store, err := tokenstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("tokenstore.New() error = %v", err)
	}
	return store
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// fakeBackend accepts any bearer token equal to validToken and serves
// a refresh endpoint that rotates to a fresh valid token.
type fakeBackend struct {
	mu           sync.Mutex
	validToken   string
	refreshToken string
	refreshCalls int32
	dataCalls    int32
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.refreshCalls, 1)
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)

		b.mu.Lock()
		defer b.mu.Unlock()
		if req["refresh_token"] != b.refreshToken {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"success": false, "error": "Invalid refresh token",
			})
			return
		}
		// Rotate
		b.validToken = b.validToken + "+"
		b.refreshToken = b.refreshToken + "+"
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]string{
				"access_token":  b.validToken,
				"refresh_token": b.refreshToken,
			},
		})
	})
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.dataCalls, 1)
		b.mu.Lock()
		valid := "Bearer " + b.validToken
		b.mu.Unlock()
		if r.Header.Get("Authorization") != valid {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"success": false, "error": "Access token expired",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    map[string]string{"value": "ok"},
		})
	})
	return mux
}

func TestRefreshAndRetryOn401(t *testing.T) {
	backend := &fakeBackend{validToken: "good", refreshToken: "refresh-good"}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	store := newTestStore(t)
	// Stored access token is stale, refresh token is valid.
	if err := store.Save(tokenstore.TokenPair{AccessToken: "stale", RefreshToken: "refresh-good"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	client := New(srv.URL, store)
	data, err := client.Get(context.Background(), "/data")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	var payload map[string]string
	if err := json.Unmarshal(data, &payload); err != nil || payload["value"] != "ok" {
		t.Errorf("Get() data = %s, want value ok", data)
	}

	if n := atomic.LoadInt32(&backend.refreshCalls); n != 1 {
		t.Errorf("refresh calls = %d, want 1", n)
	}
	if n := atomic.LoadInt32(&backend.dataCalls); n != 2 {
		t.Errorf("data calls = %d, want 2 (original + retry)", n)
	}

	// The rotated pair must be persisted.
	pair, ok, _ := store.Load()
	if !ok || pair.AccessToken != "good+" || pair.RefreshToken != "refresh-good+" {
		t.Errorf("stored pair = %+v ok=%v, want rotated pair", pair, ok)
	}
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	backend := &fakeBackend{validToken: "good", refreshToken: "refresh-good"}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	store := newTestStore(t)
	if err := store.Save(tokenstore.TokenPair{AccessToken: "stale", RefreshToken: "refresh-good"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	client := New(srv.URL, store)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.Get(context.Background(), "/data")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d error = %v", i, err)
		}
	}

	// A second refresh would have rotated the token twice and
	// invalidated the first rotation; singleflight keeps it at one.
	if n := atomic.LoadInt32(&backend.refreshCalls); n != 1 {
		t.Errorf("refresh calls = %d, want exactly 1", n)
	}
}

func TestNoRefreshTokenYieldsAuthExpired(t *testing.T) {
	backend := &fakeBackend{validToken: "good", refreshToken: "refresh-good"}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	store := newTestStore(t)
	client := New(srv.URL, store)

	_, err := client.Get(context.Background(), "/data")
	if !errors.Is(err, ErrAuthExpired) {
		t.Errorf("Get() error = %v, want ErrAuthExpired", err)
	}

	if _, ok, _ := store.Load(); ok {
		t.Error("store not cleared after failed auth")
	}
}

func TestFailedRefreshClearsStore(t *testing.T) {
	backend := &fakeBackend{validToken: "good", refreshToken: "refresh-good"}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	store := newTestStore(t)
	if err := store.Save(tokenstore.TokenPair{AccessToken: "stale", RefreshToken: "revoked"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	client := New(srv.URL, store)
	_, err := client.Get(context.Background(), "/data")
	if !errors.Is(err, ErrAuthExpired) {
		t.Errorf("Get() error = %v, want ErrAuthExpired", err)
	}
	if _, ok, _ := store.Load(); ok {
		t.Error("store not cleared after failed refresh")
	}
	if n := atomic.LoadInt32(&backend.refreshCalls); n != 1 {
		t.Errorf("refresh calls = %d, want 1", n)
	}
}

func TestNon401ErrorPropagatesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"success": false, "error": "Measurement is not pending approval",
		})
	}))
	defer srv.Close()

	store := newTestStore(t)
	if err := store.Save(tokenstore.TokenPair{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	client := New(srv.URL, store)
	_, err := client.Post(context.Background(), "/production/measurements/1/approve", nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Post() error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusConflict {
		t.Errorf("Status = %d, want 409", apiErr.Status)
	}
	if apiErr.Message != "Measurement is not pending approval" {
		t.Errorf("Message = %q, want backend message verbatim", apiErr.Message)
	}
}

func TestNestedErrorObjectFlattened(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"success": false,
			"error": map[string]string{
				"password": "must be at least 8 characters",
				"email":    "already registered",
			},
		})
	}))
	defer srv.Close()

	store := newTestStore(t)
	client := New(srv.URL, store)

	_, err := client.Post(context.Background(), "/auth/register", map[string]string{}, Unauthenticated())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Post() error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d, want 422", apiErr.Status)
	}
	want := "email: already registered; password: must be at least 8 characters"
	if apiErr.Message != want {
		t.Errorf("Message = %q, want %q", apiErr.Message, want)
	}
}

func TestErrorTextShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain string", `"user not found"`, "user not found"},
		{"null", `null`, ""},
		{"empty", ``, ""},
		{"field object", `{"role":"unknown role"}`, "role: unknown role"},
		{"other json", `[1,2]`, "[1,2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorText(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("errorText(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestUnauthenticatedCallSendsNoBearer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}))
	defer srv.Close()

	store := newTestStore(t)
	if err := store.Save(tokenstore.TokenPair{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	client := New(srv.URL, store)
	if _, err := client.Post(context.Background(), "/auth/login", map[string]string{}, Unauthenticated()); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization header = %q, want empty on unauthenticated call", gotAuth)
	}
}
