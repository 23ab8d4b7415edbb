// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/danielhkuo/campusboard/auth"
	"github.com/danielhkuo/campusboard/db"
	"github.com/danielhkuo/campusboard/models"
)

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

type contextKey int

const (
	requestIDKey contextKey = iota
	userKey
)

// WithRequestID reuses an incoming X-Request-ID or mints one, stores it
// in the request context and echoes it on the response
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// RequestID returns the ID set by WithRequestID, or ""
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// UserLookup resolves a session's user ID to an account
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// WithSession resolves the session cookie to a user and stores it in the
// request context. Missing, invalid or stale sessions leave the request
// anonymous; they never fail it. A token is stale once its account is
// gone or no longer carries the username it was issued for.
func WithSession(sessions *auth.SessionManager, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := sessions.FromRequest(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetUserByID(r.Context(), session.UserID)
			if err != nil {
				if !errors.Is(err, db.ErrNotFound) {
					slog.Error("failed to load session user", "user_id", session.UserID, "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			if user.Username != session.Username {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser returns ctx carrying user
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// CurrentUser returns the signed-in user, or nil for anonymous requests
func CurrentUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}
