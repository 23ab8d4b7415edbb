// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines domain, request and response types for Campusboard.

# Domain Types

Rows as the repository returns them, with joined display fields:

  - User, UserStats: accounts and their activity counts
  - Message, ParentSummary: chat messages and the reply preview
  - ForumPost, ForumComment: posts and threaded comments with vote tallies
  - Poll, PollOption: channel polls
  - Report: a moderation report with the reported message

# Request Types

Form-backed types carry `form` tags and `validate` tags checked by
Validate:

  - RegisterForm, LoginForm
  - CreatePostForm, CommentForm, VoteForm
  - CreatePollForm
  - ProfileForm, UsernameForm, PasswordForm
  - CreateReportRequest (JSON), ResolveReportForm

Validation errors are phrased for users and name the form field.

# Response Types

  - ChatMessage: the frame pushed to chat sockets
  - PollVoteResponse, VoteResponse: fresh tallies after a vote
  - GenerateUsernameResponse, CreateReportResponse
  - ErrorResponse: error, message

# Sanitizing

SanitizeChat strips all markup from chat text. SanitizePost keeps the
basic formatting allowed in forum posts.

# Constants

	VoteUp, VoteDown
	ReportPending, ReportResolved, ReportDismissed
	PostTags, ReportReasons
	DefaultChannel = "general"
	DefaultTag     = "General"
*/
package models
