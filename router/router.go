// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/campusboard/auth"
	"github.com/danielhkuo/campusboard/chat"
	"github.com/danielhkuo/campusboard/cliparse"
	"github.com/danielhkuo/campusboard/db"
	"github.com/danielhkuo/campusboard/handlers"
	"github.com/danielhkuo/campusboard/middleware"
	"github.com/danielhkuo/campusboard/views"
)

// Deps is everything the routes need, built once in main
type Deps struct {
	Repo     *db.Repository
	Config   cliparse.Config
	Sessions *auth.SessionManager
	Views    *views.Renderer
	Hub      *chat.Hub
}

func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()
	repo, cfg, v := deps.Repo, deps.Config, deps.Views

	// Initialize handlers
	accounts := handlers.NewAccountHandler(repo, cfg, deps.Sessions, v)
	chatHandler := handlers.NewChatHandler(repo, cfg, deps.Hub, v)
	polls := handlers.NewPollHandler(repo, cfg, v)
	forum := handlers.NewForumHandler(repo, cfg, v)
	profile := handlers.NewProfileHandler(repo, cfg, deps.Sessions, v)
	reports := handlers.NewReportHandler(repo, cfg, v)

	cors := middleware.CORS(cfg.AllowedOrigins)
	api := func(h http.HandlerFunc) http.Handler {
		return cors(middleware.WithLogging(h))
	}

	// Operational
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Accounts
	mux.HandleFunc("GET /login", middleware.WithLogging(accounts.LoginPage))
	mux.HandleFunc("GET /register", middleware.WithLogging(accounts.RegisterPage))
	mux.HandleFunc("POST /auth/register", middleware.WithLogging(accounts.Register))
	mux.HandleFunc("POST /auth/login", middleware.WithLogging(accounts.Login))
	mux.HandleFunc("GET /logout", middleware.WithLogging(accounts.Logout))

	// Chat
	mux.HandleFunc("GET /{$}", middleware.WithLogging(chatHandler.Index))
	mux.HandleFunc("GET /channels", middleware.WithLogging(chatHandler.Channels))
	mux.HandleFunc("GET /c/{channel}", middleware.WithLogging(chatHandler.Channel))
	mux.HandleFunc("GET /ws/{channel}", middleware.WithLogging(chatHandler.Socket))

	// Polls
	mux.HandleFunc("GET /p/{channel}", middleware.WithLogging(polls.ListPolls))
	mux.HandleFunc("POST /p/{channel}/create", middleware.WithLogging(polls.CreatePoll))
	mux.HandleFunc("POST /p/{channel}/vote/{poll_id}", middleware.WithLogging(polls.CastVote))

	// Forum
	mux.HandleFunc("GET /forum", middleware.WithLogging(forum.ListPosts))
	mux.HandleFunc("GET /forum/new", middleware.WithLogging(forum.NewPostPage))
	mux.HandleFunc("POST /forum/new", middleware.WithLogging(forum.CreatePost))
	mux.HandleFunc("GET /forum/{post_id}", middleware.WithLogging(forum.ShowPost))
	mux.HandleFunc("POST /forum/{post_id}/comments", middleware.WithLogging(forum.CreateComment))
	mux.HandleFunc("POST /forum/{post_id}/vote", middleware.WithLogging(forum.VotePost))
	mux.HandleFunc("POST /forum/{post_id}/delete", middleware.WithLogging(forum.DeletePost))
	mux.HandleFunc("POST /forum/comments/{comment_id}/vote", middleware.WithLogging(forum.VoteComment))

	// Profile, settings, users
	mux.HandleFunc("GET /profile", middleware.WithLogging(profile.Profile))
	mux.HandleFunc("POST /profile/update", middleware.WithLogging(profile.UpdateProfile))
	mux.HandleFunc("GET /settings", middleware.WithLogging(profile.Settings))
	mux.HandleFunc("GET /u/{username}", middleware.WithLogging(profile.UserProfile))
	mux.HandleFunc("GET /leaderboard", middleware.WithLogging(profile.Leaderboard))

	// JSON and form API, the only routes with CORS
	mux.Handle("POST /api/settings/generate-username", api(profile.GenerateUsername))
	mux.Handle("POST /api/settings/profile", api(profile.ChangeUsername))
	mux.Handle("POST /api/settings/password", api(profile.ChangePassword))
	mux.Handle("POST /api/reports", api(reports.CreateReport))
	mux.Handle("OPTIONS /api/", cors(http.NotFoundHandler()))

	// Moderation
	mux.HandleFunc("GET /reports", middleware.WithLogging(reports.ListReports))
	mux.HandleFunc("POST /reports/{id}/resolve", middleware.WithLogging(reports.ResolveReport))

	return middleware.WithRequestID(
		middleware.WithSession(deps.Sessions, repo)(
			middleware.WithMetrics(mux)))
}
