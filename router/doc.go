// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines the HTTP routes for Campusboard.

# Route Registration

NewRouter builds an http.ServeMux with every endpoint and returns it
wrapped in the request ID, session and metrics middleware:

	handler := router.NewRouter(router.Deps{
		Repo:     repo,
		Config:   cfg,
		Sessions: sessions,
		Views:    renderer,
		Hub:      hub,
	})

# Endpoints

Operational:

	GET  /health   - liveness, body "OK"
	GET  /metrics  - Prometheus exposition

Accounts:

	GET  /login, /register
	POST /auth/register, /auth/login
	GET  /logout

Chat and polls:

	GET  /                          - recent channels
	GET  /channels                  - every channel
	GET  /c/{channel}               - channel history and polls
	GET  /ws/{channel}              - chat socket
	GET  /p/{channel}               - channel polls
	POST /p/{channel}/create        - new poll
	POST /p/{channel}/vote/{poll_id} - toggle a vote (JSON)

Forum:

	GET  /forum, /forum/new, /forum/{post_id}
	POST /forum/new
	POST /forum/{post_id}/comments, /forum/{post_id}/vote, /forum/{post_id}/delete
	POST /forum/comments/{comment_id}/vote

Profile and users:

	GET  /profile, /settings, /u/{username}, /leaderboard
	POST /profile/update

API (CORS enabled for ALLOWED_ORIGINS):

	POST /api/settings/generate-username
	POST /api/settings/profile
	POST /api/settings/password
	POST /api/reports

Moderation:

	GET  /reports
	POST /reports/{id}/resolve
*/
package router
