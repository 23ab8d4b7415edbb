// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides password hashing, session tokens and ID generation.

# Passwords

Passwords are stored as bcrypt hashes:

	hash, err := auth.HashPassword(password)
	err = auth.CheckPassword(hash, candidate) // ErrInvalidPassword on mismatch

# Sessions

A session is an HS256-signed JWT carrying the user ID (sub) and the
username, delivered in the session_token cookie:

	sessions := auth.NewSessionManager(secret, ttl, secureCookies)
	err := sessions.SetCookie(w, user.ID, user.Username)
	session, err := sessions.FromRequest(r) // session.UserID, session.Username

The cookie is HttpOnly and SameSite=Strict. Secure is set unless the
server runs with insecure cookies for local HTTP. Tokens expire after the
configured TTL; tokens signed with any algorithm other than HMAC are
rejected.

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters

# Anonymous Usernames

	name, err := auth.GenerateUsername() // "anon4821"
*/
package auth
