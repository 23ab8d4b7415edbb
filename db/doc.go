// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db owns the schema and every query the application runs.

# Connecting

Open selects the driver for the configured database type, applies the
embedded goose migrations and returns the connection:

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	repo := db.NewRepository(conn)

SQLite (modernc.org/sqlite, pure Go) is the default; PostgreSQL is served
by lib/pq. Queries are written with ? placeholders and passed through
sqlx's Rebind so the same text runs on both.

# Tables

  - users: accounts and optional profile fields
  - messages: chat messages, optionally replying to another message
  - forum_posts, forum_comments: threaded discussion
  - post_votes, comment_votes: one up/down vote per user per item
  - post_views: one view per user per post
  - polls, poll_options, poll_votes: channel polls, one vote per user
  - reports: moderation reports against chat messages

All foreign keys cascade on delete except a message's parent, which is
set to NULL.

# Errors

Lookups return ErrNotFound when the row is missing. CreateUser and
UpdateUsername return ErrUsernameTaken on a unique violation, and
CreateReport returns ErrDuplicateReport when a pending report exists.
*/
package db
