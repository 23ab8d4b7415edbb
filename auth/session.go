// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the cookie carrying the signed session token
const CookieName = "session_token"

// Claims is the payload of a session token. Subject holds the user ID.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Session identifies the account a token was issued to
type Session struct {
	UserID   string
	Username string
}

// SessionManager signs and verifies HS256 session tokens
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

func NewSessionManager(secret string, ttl time.Duration, secureCookies bool) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secureCookies,
	}
}

// Issue signs a token for the user valid for the configured TTL
func (m *SessionManager) Issue(userID, username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns the session it carries
func (m *SessionManager) Parse(tokenString string) (Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Username == "" || claims.Subject == "" {
		return Session{}, ErrInvalidToken
	}
	return Session{UserID: claims.Subject, Username: claims.Username}, nil
}

// SetCookie issues a token for the user and attaches it to the response
func (m *SessionManager) SetCookie(w http.ResponseWriter, userID, username string) error {
	token, err := m.Issue(userID, username)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// ClearCookie expires the session cookie
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// FromRequest returns the session of a valid session cookie on r
func (m *SessionManager) FromRequest(r *http.Request) (Session, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return Session{}, ErrInvalidToken
	}
	return m.Parse(c.Value)
}
