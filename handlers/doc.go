// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP request handlers for Campusboard.

# Handler Types

Each handler is a struct built from the repository, config and the
template renderer:

  - AccountHandler: registration, login, logout
  - ChatHandler: channel pages and the /ws/{channel} socket
  - PollHandler: channel polls and toggle voting
  - ForumHandler: posts, threaded comments, votes, deletion
  - ProfileHandler: profile, settings, public user pages, leaderboard
  - ReportHandler: message reports and the moderator queue

	forum := handlers.NewForumHandler(repo, cfg, renderer)

# Authentication

The signed-in user is resolved by middleware.WithSession before any
handler runs. Page routes that need a user redirect anonymous callers
to /login (302 for GET, 303 otherwise); JSON routes answer 401.

# Chat

Socket upgrades before the session check so anonymous clients receive
close code 1008 instead of a failed handshake. Each inbound frame is
sanitized, persisted, then broadcast to the channel through chat.Hub.
A failed insert closes the socket with 1011.

# Polls

Voting is a toggle: a first vote is recorded, the same option again
withdraws it, another option moves it. Votes are accepted until
PollGracePeriod after ends_at; the active badge ignores the grace
period.
*/
package handlers
