// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strings"

	"github.com/danielhkuo/campusboard/cliparse"
	"github.com/danielhkuo/campusboard/db"
	"github.com/danielhkuo/campusboard/middleware"
	"github.com/danielhkuo/campusboard/models"
	"github.com/danielhkuo/campusboard/views"
)

// base carries what every page handler needs to render
type base struct {
	repo  *db.Repository
	cfg   cliparse.Config
	views *views.Renderer
}

func (b base) page(r *http.Request, title string, data interface{}) views.Page {
	user := middleware.CurrentUser(r.Context())
	return views.Page{
		Title:     title,
		User:      user,
		Moderator: user != nil && b.cfg.IsModerator(user.Username),
		Data:      data,
	}
}

func (b base) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data interface{}) {
	b.views.Render(w, status, name, b.page(r, title, data))
}

// renderForm re-renders a form page with a message above it
func (b base) renderForm(w http.ResponseWriter, r *http.Request, status int, name, title, message string, data interface{}) {
	p := b.page(r, title, data)
	p.Error = message
	b.views.Render(w, status, name, p)
}

func (b base) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	b.views.Error(w, status, middleware.CurrentUser(r.Context()), message)
}

// requireUser returns the signed-in user or redirects to the login page
func requireUser(w http.ResponseWriter, r *http.Request) *models.User {
	user := middleware.CurrentUser(r.Context())
	if user == nil {
		status := http.StatusFound
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			status = http.StatusSeeOther
		}
		http.Redirect(w, r, "/login", status)
	}
	return user
}

// requireUserJSON is requireUser for JSON endpoints
func requireUserJSON(w http.ResponseWriter, r *http.Request) *models.User {
	user := middleware.CurrentUser(r.Context())
	if user == nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Not authenticated")
	}
	return user
}

// optionalString maps a blank form value to nil
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func seeOther(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}
