// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/campusboard/models"
)

const userColumns = `u.id, u.username, u.password_hash, u.email, u.bio, u.avatar_url, u.created_at`

// Activity counters shared by the profile and leaderboard queries
const (
	messageCountExpr = `(SELECT COUNT(*) FROM messages m WHERE m.user_id = u.id)`
	postCountExpr    = `(SELECT COUNT(*) FROM forum_posts p WHERE p.author_id = u.id)`
	commentCountExpr = `(SELECT COUNT(*) FROM forum_comments c WHERE c.author_id = u.id)`
)

// CreateUser inserts a new account. Returns ErrUsernameTaken when the
// username already exists.
func (repo *Repository) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	query := repo.dbConn.Rebind(`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`)
	_, err = repo.dbConn.ExecContext(ctx, query, user.ID, user.Username, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("inserting user %s: %w", username, err)
	}
	return user, nil
}

// GetUserByUsername returns ErrNotFound when no account has that name
func (repo *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	query := repo.dbConn.Rebind(`SELECT ` + userColumns + ` FROM users u WHERE u.username = ?`)
	err := repo.dbConn.GetContext(ctx, &user, query, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", username, err)
	}
	return &user, nil
}

func (repo *Repository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	query := repo.dbConn.Rebind(`SELECT ` + userColumns + ` FROM users u WHERE u.id = ?`)
	err := repo.dbConn.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", id, err)
	}
	return &user, nil
}

func (repo *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int
	query := repo.dbConn.Rebind(`SELECT COUNT(*) FROM users WHERE username = ?`)
	if err := repo.dbConn.GetContext(ctx, &count, query, username); err != nil {
		return false, fmt.Errorf("checking username %s: %w", username, err)
	}
	return count > 0, nil
}

// UpdateProfile overwrites the optional profile fields; nil clears a field
func (repo *Repository) UpdateProfile(ctx context.Context, userID string, email, bio, avatarURL *string) error {
	query := repo.dbConn.Rebind(`UPDATE users SET email = ?, bio = ?, avatar_url = ? WHERE id = ?`)
	res, err := repo.dbConn.ExecContext(ctx, query, email, bio, avatarURL, userID)
	if err != nil {
		return fmt.Errorf("updating profile %s: %w", userID, err)
	}
	return expectRow(res)
}

// UpdateUsername renames an account. Returns ErrUsernameTaken on collision.
func (repo *Repository) UpdateUsername(ctx context.Context, userID, username string) error {
	query := repo.dbConn.Rebind(`UPDATE users SET username = ? WHERE id = ?`)
	res, err := repo.dbConn.ExecContext(ctx, query, username, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("renaming user %s: %w", userID, err)
	}
	return expectRow(res)
}

func (repo *Repository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := repo.dbConn.Rebind(`UPDATE users SET password_hash = ? WHERE id = ?`)
	res, err := repo.dbConn.ExecContext(ctx, query, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("updating password %s: %w", userID, err)
	}
	return expectRow(res)
}

// GetUserStats returns a user with message, post and comment counts
func (repo *Repository) GetUserStats(ctx context.Context, username string) (*models.UserStats, error) {
	var stats models.UserStats
	query := repo.dbConn.Rebind(`
		SELECT ` + userColumns + `,
		       ` + messageCountExpr + ` AS message_count,
		       ` + postCountExpr + ` AS post_count,
		       ` + commentCountExpr + ` AS comment_count
		FROM users u
		WHERE u.username = ?
	`)
	err := repo.dbConn.GetContext(ctx, &stats, query, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting stats for %s: %w", username, err)
	}
	return &stats, nil
}

// Leaderboard ranks users by total interactions, ties broken by username
func (repo *Repository) Leaderboard(ctx context.Context, limit int) ([]models.UserStats, error) {
	query := repo.dbConn.Rebind(`
		SELECT ` + userColumns + `,
		       ` + messageCountExpr + ` AS message_count,
		       ` + postCountExpr + ` AS post_count,
		       ` + commentCountExpr + ` AS comment_count
		FROM users u
		ORDER BY (` + messageCountExpr + ` + ` + postCountExpr + ` + ` + commentCountExpr + `) DESC, u.username ASC
		LIMIT ?
	`)

	entries := []models.UserStats{}
	if err := repo.dbConn.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("loading leaderboard: %w", err)
	}
	return entries, nil
}

// expectRow turns a zero-row update into ErrNotFound
func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
