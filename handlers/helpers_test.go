// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/campusboard/auth"
	"github.com/danielhkuo/campusboard/cliparse"
	"github.com/danielhkuo/campusboard/db"
	"github.com/danielhkuo/campusboard/middleware"
	"github.com/danielhkuo/campusboard/models"
	"github.com/danielhkuo/campusboard/testutil"
	"github.com/danielhkuo/campusboard/views"
)

var renderer = views.MustNew()

type testEnv struct {
	repo     *db.Repository
	cfg      cliparse.Config
	sessions *auth.SessionManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return &testEnv{
		repo:     testutil.SetupTestRepo(t),
		cfg:      testutil.GetTestConfig(),
		sessions: testutil.NewTestSessions(),
	}
}

// asUser attaches user to the request the way middleware.WithSession does
func asUser(req *http.Request, user *models.User) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), user))
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, status int, location string) {
	t.Helper()
	testutil.AssertStatus(t, w, status)
	if got := w.Header().Get("Location"); got != location {
		t.Errorf("Expected redirect to %q, got %q", location, got)
	}
}

func responseCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
