// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/campusboard/cliparse"
	"github.com/danielhkuo/campusboard/db"
	"github.com/danielhkuo/campusboard/middleware"
	"github.com/danielhkuo/campusboard/models"
	"github.com/danielhkuo/campusboard/views"
)

type PollHandler struct {
	base
}

func NewPollHandler(repo *db.Repository, cfg cliparse.Config, v *views.Renderer) *PollHandler {
	return &PollHandler{base: base{repo: repo, cfg: cfg, views: v}}
}

// pollViews computes the display state of each poll at now. Activity
// ignores the voting grace period.
func pollViews(polls []models.Poll, now time.Time) []views.PollView {
	out := make([]views.PollView, len(polls))
	for i, p := range polls {
		out[i] = views.PollView{Poll: p, Active: p.IsActive(now), Total: p.TotalVotes()}
	}
	return out
}

func pollsURL(channel string) string {
	return "/p/" + url.PathEscape(channel)
}

// ListPolls handles GET /p/{channel}
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	channel := r.PathValue("channel")
	if !validChannel(channel) {
		h.renderError(w, r, http.StatusBadRequest, "Invalid channel name")
		return
	}

	polls, err := h.repo.ListChannelPolls(r.Context(), channel, user.ID)
	if err != nil {
		slog.Error("failed to list polls", "channel", channel, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to load polls")
		return
	}

	h.render(w, r, http.StatusOK, "polls", "Polls in #"+channel, views.PollsData{
		Channel: channel,
		Polls:   pollViews(polls, time.Now()),
	})
}

// CreatePoll handles POST /p/{channel}/create
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	if user == nil {
		h.renderError(w, r, http.StatusUnauthorized, "Log in to create polls")
		return
	}

	channel := r.PathValue("channel")
	if !validChannel(channel) {
		h.renderError(w, r, http.StatusBadRequest, "Invalid channel name")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form")
		return
	}

	form := models.CreatePollForm{
		Title:       strings.TrimSpace(r.PostForm.Get("title")),
		Description: strings.TrimSpace(r.PostForm.Get("description")),
	}

	// Blank option inputs are left over from the form and skipped
	for _, opt := range r.PostForm["options"] {
		if opt = strings.TrimSpace(opt); opt != "" {
			form.Options = append(form.Options, opt)
		}
	}

	if raw := strings.TrimSpace(r.PostForm.Get("duration_hours")); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil {
			h.renderError(w, r, http.StatusBadRequest, "duration_hours must be a whole number of hours")
			return
		}
		form.DurationHours = &hours
	}

	if err := models.Validate(form); err != nil {
		h.renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var endsAt *time.Time
	if form.DurationHours != nil {
		t := time.Now().UTC().Add(time.Duration(*form.DurationHours) * time.Hour)
		endsAt = &t
	}

	poll, err := h.repo.CreatePoll(r.Context(), user.ID, channel, form.Title, optionalString(form.Description), endsAt, form.Options)
	if err != nil {
		slog.Error("failed to insert poll", "channel", channel, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	slog.Info("poll created", "poll_id", poll.ID, "channel", channel, "creator_id", user.ID, "options", len(form.Options))
	seeOther(w, r, pollsURL(channel))
}

// CastVote handles POST /p/{channel}/vote/{poll_id}. Voting for the
// option already chosen withdraws the vote.
func (h *PollHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	user := requireUserJSON(w, r)
	if user == nil {
		return
	}

	channel := r.PathValue("channel")
	pollID := r.PathValue("poll_id")

	poll, err := h.repo.GetPoll(r.Context(), pollID, user.ID)
	if errors.Is(err, db.ErrNotFound) || (err == nil && poll.Channel != channel) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "poll_id", pollID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !poll.AcceptsVotes(time.Now(), h.cfg.PollGracePeriod) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Poll has ended")
		return
	}

	optionID := strings.TrimSpace(r.FormValue("option_id"))
	if optionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "option_id is required")
		return
	}

	if _, err := h.repo.GetPollOption(r.Context(), pollID, optionID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, "Option not found")
			return
		}
		slog.Error("failed to query poll option", "poll_id", pollID, "option_id", optionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	resp, err := h.repo.CastPollVote(r.Context(), pollID, optionID, user.ID)
	if err != nil {
		slog.Error("failed to record poll vote", "poll_id", pollID, "user_id", user.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	slog.Info("poll vote recorded", "poll_id", pollID, "user_id", user.ID, "withdrawn", resp.UserVote == nil)
	middleware.JSONResponse(w, http.StatusOK, resp)
}
