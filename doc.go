// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Campusboard server.

Campusboard is a campus community site: real-time channel chat over
WebSockets, channel polls, a tagged forum with threaded comments and
voting, user profiles with a leaderboard, and message reports for
moderators.

# Starting the Server

The only required setting is the session secret:

	SESSION_SECRET=change-me-to-something-long go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -session-secret "..."

A .env file in the working directory is loaded first if present.

# Configuration

  - PORT (-p): server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): DSN (default: file:campusboard.db)
  - SESSION_SECRET (-session-secret): session signing key, 16+ bytes
  - SESSION_TTL (-session-ttl): session lifetime (default: 168h)
  - INSECURE_COOKIES (-insecure-cookies): drop the Secure cookie flag
  - POLL_GRACE_PERIOD (-poll-grace): late vote window (default: 5m)
  - ALLOWED_ORIGINS (-origins): extra WebSocket and CORS origins
  - MODERATORS (-moderators): usernames allowed to review reports
  - LOG_LEVEL (-log-level), LOG_FORMAT (-log-format): slog setup

# Architecture

  - handlers: HTTP request handlers
  - router: route definitions using Go 1.22+ routing
  - middleware: request IDs, sessions, metrics, CORS, logging, JSON helpers
  - chat: WebSocket hub and clients
  - views: embedded HTML templates
  - models: domain and request types, validation, sanitizing
  - auth: passwords and session tokens
  - db: repository and migrations
  - metrics: Prometheus collectors
  - cliparse: configuration parsing

Migrations run on startup. SIGINT or SIGTERM drains HTTP requests, then
stops the chat hub, which closes every socket.
*/
package main
