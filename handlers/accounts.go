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

type AccountHandler struct {
	base
	sessions *auth.SessionManager
}

func NewAccountHandler(repo *db.Repository, cfg cliparse.Config, sessions *auth.SessionManager, v *views.Renderer) *AccountHandler {
	return &AccountHandler{base: base{repo: repo, cfg: cfg, views: v}, sessions: sessions}
}

// LoginPage handles GET /login
func (h *AccountHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if middleware.CurrentUser(r.Context()) != nil {
		http.Redirect(w, r, "/profile", http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, "login", "Log in", views.AuthData{})
}

// RegisterPage handles GET /register
func (h *AccountHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if middleware.CurrentUser(r.Context()) != nil {
		http.Redirect(w, r, "/profile", http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, "register", "Register", views.AuthData{})
}

// Register handles POST /auth/register
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	form := models.RegisterForm{
		Username: strings.TrimSpace(r.FormValue("username")),
		Password: r.FormValue("password"),
	}
	data := views.AuthData{Username: form.Username}

	if err := models.Validate(form); err != nil {
		h.renderForm(w, r, http.StatusBadRequest, "register", "Register", err.Error(), data)
		return
	}

	hash, err := auth.HashPassword(form.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to create account")
		return
	}

	user, err := h.repo.CreateUser(r.Context(), form.Username, hash)
	if errors.Is(err, db.ErrUsernameTaken) {
		h.renderForm(w, r, http.StatusBadRequest, "register", "Register", "Username already registered", data)
		return
	}
	if err != nil {
		slog.Error("failed to create user", "username", form.Username, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to create account")
		return
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	seeOther(w, r, "/login")
}

// Login handles POST /auth/login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	form := models.LoginForm{
		Username: strings.TrimSpace(r.FormValue("username")),
		Password: r.FormValue("password"),
	}
	data := views.AuthData{Username: form.Username}

	if err := models.Validate(form); err != nil {
		h.renderForm(w, r, http.StatusBadRequest, "login", "Log in", err.Error(), data)
		return
	}

	user, err := h.repo.GetUserByUsername(r.Context(), form.Username)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		slog.Error("failed to load user", "username", form.Username, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to log in")
		return
	}
	if user == nil || auth.CheckPassword(user.PasswordHash, form.Password) != nil {
		slog.Info("login rejected", "username", form.Username, "remote", middleware.GetClientIP(r))
		h.renderForm(w, r, http.StatusUnauthorized, "login", "Log in", "Invalid credentials", data)
		return
	}

	if err := h.sessions.SetCookie(w, user.ID, user.Username); err != nil {
		slog.Error("failed to issue session", "user_id", user.ID, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to log in")
		return
	}

	slog.Info("user logged in", "user_id", user.ID)
	seeOther(w, r, "/c/"+models.DefaultChannel)
}

// Logout handles GET /logout
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	seeOther(w, r, "/")
}
