package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"framecraft/internal/client/gateway"
	"framecraft/internal/client/shell"
	"framecraft/internal/client/tokenstore"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// newAuthServer serves login/me/logout for a single account.
func newAuthServer(t *testing.T, role string, calls *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["email"] != "scheduler@framecraft.in" || req["password"] != "sched12345" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"success": false, "error": "Invalid email or password",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]string{
				"access_token":  "access-1",
				"refresh_token": "refresh-1",
			},
		})
	})
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.Header.Get("Authorization") != "Bearer access-1" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"success": false, "error": "Access token required",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"id":       1,
				"email":    "scheduler@framecraft.in",
				"username": "scheduler",
				"role":     role,
			},
		})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false, "error": "Invalid refresh token",
		})
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	})
	return httptest.NewServer(mux)
}

func newManager(t *testing.T, baseURL string) (*Manager, *tokenstore.Store) {
	t.Helper()
	store, err := tokenstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("tokenstore.New() error = %v", err)
	}
	api := gateway.New(baseURL, store)
	return NewManager(api, store), store
}

func TestRestoreWithoutTokensStaysOffline(t *testing.T) {
	var calls int32
	srv := newAuthServer(t, "production_scheduler", &calls)
	defer srv.Close()

	m, _ := newManager(t, srv.URL)
	m.Restore(context.Background())

	if m.State() != Anonymous {
		t.Errorf("State() = %v, want Anonymous", m.State())
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("backend calls = %d, want 0 when no tokens are stored", n)
	}
}

func TestRestoreWithValidTokens(t *testing.T) {
	var calls int32
	srv := newAuthServer(t, "production_scheduler", &calls)
	defer srv.Close()

	m, store := newManager(t, srv.URL)
	if err := store.Save(tokenstore.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	m.Restore(context.Background())

	if m.State() != Authenticated {
		t.Fatalf("State() = %v, want Authenticated", m.State())
	}
	user, ok := m.CurrentUser()
	if !ok || user.Role != "production_scheduler" {
		t.Errorf("CurrentUser() = %+v ok=%v", user, ok)
	}
}

func TestRestoreWithDeadTokensLandsAnonymous(t *testing.T) {
	var calls int32
	srv := newAuthServer(t, "production_scheduler", &calls)
	defer srv.Close()

	m, store := newManager(t, srv.URL)
	if err := store.Save(tokenstore.TokenPair{AccessToken: "stale", RefreshToken: "dead"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	m.Restore(context.Background())

	if m.State() != Anonymous {
		t.Errorf("State() = %v, want Anonymous", m.State())
	}
	if _, ok, _ := store.Load(); ok {
		t.Error("tokens not cleared after failed restore")
	}
}

func TestLoginMissingTokensIsFatal(t *testing.T) {
	// Backend answers login with an empty object.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": map[string]string{}})
	}))
	defer srv.Close()

	m, store := newManager(t, srv.URL)
	_, err := m.Login(context.Background(), "scheduler@framecraft.in", "sched12345")

	if !errors.Is(err, ErrLoginFailed) {
		t.Errorf("Login() error = %v, want ErrLoginFailed", err)
	}
	if _, ok, _ := store.Load(); ok {
		t.Error("token store not empty after incomplete login response")
	}
	if m.State() != Anonymous {
		t.Errorf("State() = %v, want Anonymous", m.State())
	}
}

func TestLoginLogoutEndToEnd(t *testing.T) {
	var calls int32
	srv := newAuthServer(t, "production_scheduler", &calls)
	defer srv.Close()

	m, store := newManager(t, srv.URL)

	route, err := m.Login(context.Background(), "scheduler@framecraft.in", "sched12345")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if m.State() != Authenticated {
		t.Fatalf("State() = %v, want Authenticated", m.State())
	}
	if route != "/production/schedule" {
		t.Errorf("Login() route = %q, want scheduler dashboard", route)
	}
	if _, ok, _ := store.Load(); !ok {
		t.Fatal("token pair not persisted after login")
	}

	logoutRoute := m.Logout(context.Background())
	if m.State() != Anonymous {
		t.Errorf("State() after logout = %v, want Anonymous", m.State())
	}
	if logoutRoute != shell.RouteLogin {
		t.Errorf("Logout() route = %q, want %q", logoutRoute, shell.RouteLogin)
	}
	if _, ok, _ := store.Load(); ok {
		t.Error("tokens not cleared on logout")
	}
	if _, ok := m.CurrentUser(); ok {
		t.Error("CurrentUser() still set after logout")
	}
}

func TestLoginBadCredentials(t *testing.T) {
	var calls int32
	srv := newAuthServer(t, "production_scheduler", &calls)
	defer srv.Close()

	m, store := newManager(t, srv.URL)
	_, err := m.Login(context.Background(), "scheduler@framecraft.in", "wrong")

	if !errors.Is(err, ErrLoginFailed) {
		t.Fatalf("Login() error = %v, want ErrLoginFailed", err)
	}
	if !strings.Contains(err.Error(), "Invalid email or password") {
		t.Errorf("Login() error = %q, want backend message included", err)
	}
	if _, ok, _ := store.Load(); ok {
		t.Error("token store not empty after failed login")
	}
}

func TestRegisterNormalizesFieldErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"success": false,
			"error":   "Validation failed",
			"errors": []map[string]string{
				{"field": "email", "message": "Email is required"},
				{"field": "password", "message": "Password must be at least 8 characters"},
			},
		})
	}))
	defer srv.Close()

	m, _ := newManager(t, srv.URL)
	_, err := m.Register(context.Background(), "", "someone", "store_keeper", "short")
	if err == nil {
		t.Fatal("Register() error = nil, want normalized validation message")
	}

	msg := err.Error()
	if !strings.Contains(msg, "email: Email is required") || !strings.Contains(msg, "password: ") {
		t.Errorf("Register() error = %q, want both field messages joined", msg)
	}
}

func TestUpdateUserReplacesSnapshot(t *testing.T) {
	var calls int32
	srv := newAuthServer(t, "production_scheduler", &calls)
	defer srv.Close()

	m, _ := newManager(t, srv.URL)
	if _, err := m.Login(context.Background(), "scheduler@framecraft.in", "sched12345"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	updated := User{ID: 1, Email: "scheduler@framecraft.in", Username: "sched-renamed", Role: "production_scheduler"}
	m.UpdateUser(updated)

	user, ok := m.CurrentUser()
	if !ok || user.Username != "sched-renamed" {
		t.Errorf("CurrentUser() = %+v, want updated username", user)
	}
}
