// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/campusboard/auth"
	"github.com/danielhkuo/campusboard/cliparse"
	"github.com/danielhkuo/campusboard/db"
	"github.com/danielhkuo/campusboard/models"
)

// TestPassword is the password every fixture user is created with
const TestPassword = "password123"

// TestSessionSecret signs session tokens in tests
const TestSessionSecret = "test-session-secret-0123456789"

// SetupTestDB opens a fresh in-memory SQLite database with every
// migration applied. The connection is closed when the test ends.
func SetupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn, err := db.Open(cliparse.DatabaseSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

// SetupTestRepo wraps SetupTestDB in a Repository
func SetupTestRepo(t *testing.T) *db.Repository {
	t.Helper()
	return db.NewRepository(SetupTestDB(t))
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3318,
		DatabaseType:    cliparse.DatabaseSQLite,
		DatabaseURL:     ":memory:",
		SessionSecret:   TestSessionSecret,
		SessionTTL:      time.Hour,
		InsecureCookies: true,
		PollGracePeriod: 5 * time.Minute,
		Moderators:      []string{"moderator"},
	}
}

// NewTestSessions returns a session manager matching GetTestConfig
func NewTestSessions() *auth.SessionManager {
	cfg := GetTestConfig()
	return auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL, !cfg.InsecureCookies)
}

// CreateTestUser registers a user with TestPassword
func CreateTestUser(t *testing.T, repo *db.Repository, username string) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user, err := repo.CreateUser(context.Background(), username, hash)
	if err != nil {
		t.Fatalf("Failed to create test user %s: %v", username, err)
	}
	return user
}

// SessionCookie returns a valid session cookie for user
func SessionCookie(t *testing.T, sessions *auth.SessionManager, user *models.User) *http.Cookie {
	t.Helper()

	token, err := sessions.Issue(user.ID, user.Username)
	if err != nil {
		t.Fatalf("Failed to issue session: %v", err)
	}
	return &http.Cookie{Name: auth.CookieName, Value: token}
}

// CreateTestMessage posts a chat message as userID
func CreateTestMessage(t *testing.T, repo *db.Repository, userID, channel, content string) *models.Message {
	t.Helper()

	msg, err := repo.CreateMessage(context.Background(), userID, channel, content, nil)
	if err != nil {
		t.Fatalf("Failed to create test message: %v", err)
	}
	return msg
}

// CreateTestPost creates a forum post with placeholder content
func CreateTestPost(t *testing.T, repo *db.Repository, authorID, title, tag string) *models.ForumPost {
	t.Helper()

	post, err := repo.CreatePost(context.Background(), authorID, title, "Body of "+title, tag)
	if err != nil {
		t.Fatalf("Failed to create test post: %v", err)
	}
	return post
}

// CreateTestPoll creates a poll ending at endsAt (nil for open-ended)
func CreateTestPoll(t *testing.T, repo *db.Repository, creatorID, channel string, endsAt *time.Time, options ...string) *models.Poll {
	t.Helper()

	if len(options) == 0 {
		options = []string{"Option A", "Option B"}
	}
	poll, err := repo.CreatePoll(context.Background(), creatorID, channel, "Test Poll", nil, endsAt, options)
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}
	return poll
}

// MakeRequest creates an HTTP test request with a JSON body
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// MakeFormRequest creates an HTTP test request with a urlencoded body
func MakeFormRequest(method, path string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
