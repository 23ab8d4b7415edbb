// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/campusboard/models"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Page is the data every template receives
type Page struct {
	Title     string
	User      *models.User
	Moderator bool
	Error     string
	Data      interface{}
}

// CommentNode feeds the recursive comment template
type CommentNode struct {
	Comment  *models.ForumComment
	SignedIn bool
}

// Renderer holds one parsed template set per page
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"ago": func(t time.Time) string {
		return humanize.Time(t)
	},
	"stamp": func(t time.Time) string {
		return t.UTC().Format(models.TimestampLayout)
	},
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"is": func(s *string, want string) bool {
		return s != nil && *s == want
	},
	"comma": func(n int) string {
		return humanize.Comma(int64(n))
	},
	"inc": func(i int) int {
		return i + 1
	},
	"node": func(c *models.ForumComment, signedIn bool) CommentNode {
		return CommentNode{Comment: c, SignedIn: signedIn}
	},
	// safe marks post bodies that were already sanitized on write
	"safe": func(s string) template.HTML {
		return template.HTML(s)
	},
}

// New parses every page template against the shared layout
func New() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(file, "templates/"), ".html")

		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// MustNew is New for package initialization; it panics on a bad template
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Has reports whether a page named name exists
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Render executes a page into a buffer and writes it with status only if
// execution succeeded, so a failing template never leaves a half page
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data Page) {
	tmpl, ok := r.pages[name]
	if !ok {
		slog.Error("unknown template", "template", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("failed to write page", "template", name, "error", err)
	}
}

// Error renders the shared error page
func (r *Renderer) Error(w http.ResponseWriter, status int, user *models.User, message string) {
	r.Render(w, status, "error", Page{
		Title: http.StatusText(status),
		User:  user,
		Error: message,
	})
}
