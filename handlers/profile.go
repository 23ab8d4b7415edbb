// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/campusboard/auth"
	"github.com/danielhkuo/campusboard/cliparse"
	"github.com/danielhkuo/campusboard/db"
	"github.com/danielhkuo/campusboard/middleware"
	"github.com/danielhkuo/campusboard/models"
	"github.com/danielhkuo/campusboard/views"
)

const (
	leaderboardSize     = 20
	usernameGenAttempts = 20
)

type ProfileHandler struct {
	base
	sessions *auth.SessionManager
}

func NewProfileHandler(repo *db.Repository, cfg cliparse.Config, sessions *auth.SessionManager, v *views.Renderer) *ProfileHandler {
	return &ProfileHandler{base: base{repo: repo, cfg: cfg, views: v}, sessions: sessions}
}

func (h *ProfileHandler) renderProfile(w http.ResponseWriter, r *http.Request, status int, user *models.User, message string) {
	stats, err := h.repo.GetUserStats(r.Context(), user.Username)
	if err != nil {
		slog.Error("failed to load user stats", "user_id", user.ID, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	h.renderForm(w, r, status, "profile", "Your profile", message, views.ProfileData{Stats: stats})
}

// Profile handles GET /profile
func (h *ProfileHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	h.renderProfile(w, r, http.StatusOK, user, "")
}

// UpdateProfile handles POST /profile/update. Empty fields clear the
// stored value.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	form := models.ProfileForm{
		Email:     strings.TrimSpace(r.FormValue("email")),
		Bio:       models.SanitizeChat(r.FormValue("bio")),
		AvatarURL: strings.TrimSpace(r.FormValue("avatar_url")),
	}
	if err := models.Validate(form); err != nil {
		h.renderProfile(w, r, http.StatusBadRequest, user, err.Error())
		return
	}

	err := h.repo.UpdateProfile(r.Context(), user.ID,
		optionalString(form.Email), optionalString(form.Bio), optionalString(form.AvatarURL))
	if err != nil {
		slog.Error("failed to update profile", "user_id", user.ID, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	slog.Info("profile updated", "user_id", user.ID)
	seeOther(w, r, "/profile")
}

// Settings handles GET /settings
func (h *ProfileHandler) Settings(w http.ResponseWriter, r *http.Request) {
	if requireUser(w, r) == nil {
		return
	}
	h.render(w, r, http.StatusOK, "settings", "Settings", nil)
}

func (h *ProfileHandler) settingsError(w http.ResponseWriter, r *http.Request, message string) {
	h.renderForm(w, r, http.StatusBadRequest, "settings", "Settings", message, nil)
}

// GenerateUsername handles POST /api/settings/generate-username. The
// suggestion is free at the time of the call but not reserved.
func (h *ProfileHandler) GenerateUsername(w http.ResponseWriter, r *http.Request) {
	if requireUserJSON(w, r) == nil {
		return
	}

	for i := 0; i < usernameGenAttempts; i++ {
		name, err := auth.GenerateUsername()
		if err != nil {
			slog.Error("failed to generate username", "error", err)
			break
		}

		taken, err := h.repo.UsernameExists(r.Context(), name)
		if err != nil {
			slog.Error("failed to check username", "username", name, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if !taken {
			middleware.JSONResponse(w, http.StatusOK, models.GenerateUsernameResponse{Username: name})
			return
		}
	}

	middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to generate a free username")
}

// ChangeUsername handles POST /api/settings/profile. The session cookie
// is reissued for the new name.
func (h *ProfileHandler) ChangeUsername(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	form := models.UsernameForm{Username: strings.TrimSpace(r.FormValue("username"))}
	if err := models.Validate(form); err != nil {
		h.settingsError(w, r, err.Error())
		return
	}
	if form.Username == user.Username {
		seeOther(w, r, "/settings")
		return
	}

	err := h.repo.UpdateUsername(r.Context(), user.ID, form.Username)
	if errors.Is(err, db.ErrUsernameTaken) {
		h.settingsError(w, r, "Username already taken")
		return
	}
	if err != nil {
		slog.Error("failed to rename user", "user_id", user.ID, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to change username")
		return
	}

	if err := h.sessions.SetCookie(w, user.ID, form.Username); err != nil {
		slog.Error("failed to reissue session", "user_id", user.ID, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to change username")
		return
	}

	slog.Info("username changed", "user_id", user.ID, "from", user.Username, "to", form.Username)
	seeOther(w, r, "/settings")
}

// ChangePassword handles POST /api/settings/password
func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	form := models.PasswordForm{
		CurrentPassword: r.FormValue("current_password"),
		NewPassword:     r.FormValue("new_password"),
		ConfirmPassword: r.FormValue("confirm_password"),
	}
	if form.CurrentPassword == "" || auth.CheckPassword(user.PasswordHash, form.CurrentPassword) != nil {
		h.settingsError(w, r, "Current password is incorrect")
		return
	}
	if form.NewPassword != form.ConfirmPassword {
		h.settingsError(w, r, "New passwords do not match")
		return
	}
	if err := models.Validate(form); err != nil {
		h.settingsError(w, r, err.Error())
		return
	}

	hash, err := auth.HashPassword(form.NewPassword)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to change password")
		return
	}
	if err := h.repo.UpdatePassword(r.Context(), user.ID, hash); err != nil {
		slog.Error("failed to update password", "user_id", user.ID, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to change password")
		return
	}

	slog.Info("password changed", "user_id", user.ID)
	seeOther(w, r, "/settings")
}

// UserProfile handles GET /u/{username}
func (h *ProfileHandler) UserProfile(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	stats, err := h.repo.GetUserStats(r.Context(), username)
	if errors.Is(err, db.ErrNotFound) {
		h.renderError(w, r, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		slog.Error("failed to load user stats", "username", username, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to load user")
		return
	}

	h.render(w, r, http.StatusOK, "user", stats.Username, views.ProfileData{Stats: stats})
}

// Leaderboard handles GET /leaderboard
func (h *ProfileHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.repo.Leaderboard(r.Context(), leaderboardSize)
	if err != nil {
		slog.Error("failed to load leaderboard", "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to load leaderboard")
		return
	}
	h.render(w, r, http.StatusOK, "leaderboard", "Leaderboard", views.LeaderboardData{Entries: entries})
}
