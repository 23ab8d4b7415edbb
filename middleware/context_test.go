// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/danielhkuo/campusboard/auth"
	"github.com/danielhkuo/campusboard/db"
	"github.com/danielhkuo/campusboard/metrics"
	"github.com/danielhkuo/campusboard/models"
)

// fakeUsers is keyed by user ID
type fakeUsers map[string]*models.User

func (f fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if id == "u-broken" {
		return nil, errors.New("connection reset")
	}
	u, ok := f[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return u, nil
}

func TestWithRequestID(t *testing.T) {
	var seen string
	handler := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	t.Run("mints an ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		if seen == "" {
			t.Fatal("Expected request ID in context")
		}
		if w.Header().Get(RequestIDHeader) != seen {
			t.Errorf("Expected header %q, got %q", seen, w.Header().Get(RequestIDHeader))
		}
	})

	t.Run("reuses incoming ID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if seen != "abc-123" {
			t.Errorf("Expected 'abc-123', got %q", seen)
		}
	})

	if RequestID(context.Background()) != "" {
		t.Error("Expected empty request ID outside middleware")
	}
}

func TestWithSession(t *testing.T) {
	sessions := auth.NewSessionManager("middleware-test-secret", time.Hour, false)
	users := fakeUsers{
		"u1": {ID: "u1", Username: "alice"},
		"u2": {ID: "u2", Username: "bob2"},
	}

	var got *models.User
	handler := WithSession(sessions, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = CurrentUser(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	cookieFor := func(userID, username string) *http.Cookie {
		token, err := sessions.Issue(userID, username)
		if err != nil {
			t.Fatalf("Failed to issue token: %v", err)
		}
		return &http.Cookie{Name: auth.CookieName, Value: token}
	}

	testCases := []struct {
		name     string
		cookie   *http.Cookie
		wantUser string
	}{
		{"no cookie", nil, ""},
		{"valid session", cookieFor("u1", "alice"), "alice"},
		{"garbage token", &http.Cookie{Name: auth.CookieName, Value: "not-a-jwt"}, ""},
		{"deleted user", cookieFor("u9", "ghost"), ""},
		{"renamed user", cookieFor("u2", "bob"), ""},
		{"name held by another account", cookieFor("u2", "alice"), ""},
		{"lookup failure", cookieFor("u-broken", "broken"), ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got = nil
			req := httptest.NewRequest("GET", "/profile", nil)
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("Expected request to pass through, got %d", w.Code)
			}
			if tc.wantUser == "" {
				if got != nil {
					t.Errorf("Expected anonymous request, got user %q", got.Username)
				}
				return
			}
			if got == nil || got.Username != tc.wantUser {
				t.Errorf("Expected user %q, got %+v", tc.wantUser, got)
			}
		})
	}
}

func TestWithMetrics(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /forum/{post_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := WithMetrics(mux)

	counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "GET /forum/{post_id}", "404")
	before := testutil.ToFloat64(counter)

	for _, path := range []string{"/forum/a", "/forum/b"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	}

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("Expected 2 requests under the route pattern, got %v", got)
	}

	unmatched := metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")
	before = testutil.ToFloat64(unmatched)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nowhere", nil))
	if got := testutil.ToFloat64(unmatched) - before; got != 1 {
		t.Errorf("Expected unmatched request to be counted once, got %v", got)
	}

	// Arbitrary methods share one label value
	other := metrics.HTTPRequestsTotal.WithLabelValues("other", "unmatched", "404")
	before = testutil.ToFloat64(other)
	for _, method := range []string{"SPAM1", "SPAM2"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, "/nowhere", nil))
	}
	if got := testutil.ToFloat64(other) - before; got != 2 {
		t.Errorf("Expected unknown methods under \"other\", got %v", got)
	}
}

func TestStatusRecorder_DefaultsToOK(t *testing.T) {
	w := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: w}

	rec.Write([]byte("hi"))
	rec.WriteHeader(http.StatusTeapot)

	if rec.status != http.StatusOK {
		t.Errorf("Expected first implicit status 200 to stick, got %d", rec.status)
	}
	if _, _, err := rec.Hijack(); err == nil {
		t.Error("Expected hijack to fail on a recorder")
	}
}
