// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/campusboard/chat"
	"github.com/danielhkuo/campusboard/cliparse"
	"github.com/danielhkuo/campusboard/db"
	"github.com/danielhkuo/campusboard/middleware"
	"github.com/danielhkuo/campusboard/models"
	"github.com/danielhkuo/campusboard/views"
)

const (
	homeChannelLimit = 10
	maxChannelLen    = 50
	maxChatLen       = 2000
)

type ChatHandler struct {
	base
	hub      *chat.Hub
	upgrader *websocket.Upgrader
}

func NewChatHandler(repo *db.Repository, cfg cliparse.Config, hub *chat.Hub, v *views.Renderer) *ChatHandler {
	return &ChatHandler{
		base:     base{repo: repo, cfg: cfg, views: v},
		hub:      hub,
		upgrader: chat.NewUpgrader(cfg.AllowedOrigins),
	}
}

func validChannel(name string) bool {
	n := utf8.RuneCountInString(name)
	return n > 0 && n <= maxChannelLen
}

// Index handles GET /
func (h *ChatHandler) Index(w http.ResponseWriter, r *http.Request) {
	channels, err := h.repo.ListChannels(r.Context(), homeChannelLimit)
	if err != nil {
		slog.Error("failed to list channels", "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to load channels")
		return
	}
	h.render(w, r, http.StatusOK, "index", "Campusboard", views.ChannelList{Channels: channels})
}

// Channels handles GET /channels
func (h *ChatHandler) Channels(w http.ResponseWriter, r *http.Request) {
	if requireUser(w, r) == nil {
		return
	}

	channels, err := h.repo.ListChannels(r.Context(), 0)
	if err != nil {
		slog.Error("failed to list channels", "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to load channels")
		return
	}
	h.render(w, r, http.StatusOK, "channels", "Channels", views.ChannelList{Channels: channels})
}

// Channel handles GET /c/{channel}
func (h *ChatHandler) Channel(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	channel := r.PathValue("channel")
	if !validChannel(channel) {
		h.renderError(w, r, http.StatusBadRequest, "Invalid channel name")
		return
	}

	messages, err := h.repo.ListChannelMessages(r.Context(), channel)
	if err != nil {
		slog.Error("failed to list messages", "channel", channel, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to load messages")
		return
	}

	polls, err := h.repo.ListChannelPolls(r.Context(), channel, user.ID)
	if err != nil {
		slog.Error("failed to list polls", "channel", channel, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to load polls")
		return
	}

	lines := make([]views.ChatLine, len(messages))
	for i, m := range messages {
		lines[i] = views.ChatLine{Message: m, IsOwn: m.UserID == user.ID}
	}

	h.render(w, r, http.StatusOK, "channel", "#"+channel, views.ChannelData{
		Channel:  channel,
		Messages: lines,
		Polls:    pollViews(polls, time.Now()),
		Reasons:  models.ReportReasons,
	})
}

// Socket handles GET /ws/{channel}. The upgrade happens before the
// session check so that anonymous clients get a close code rather than
// a failed handshake.
func (h *ChatHandler) Socket(w http.ResponseWriter, r *http.Request) {
	channel := r.PathValue("channel")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied
		slog.Warn("websocket upgrade failed", "channel", channel, "remote", middleware.GetClientIP(r), "error", err)
		return
	}

	user := middleware.CurrentUser(r.Context())
	if user == nil {
		chat.CloseWith(conn, websocket.ClosePolicyViolation, "authentication required")
		return
	}
	if !validChannel(channel) {
		chat.CloseWith(conn, websocket.ClosePolicyViolation, "invalid channel")
		return
	}

	client := chat.NewClient(h.hub, conn, channel, user, h.handleInbound)
	client.Serve(context.WithoutCancel(r.Context()))
}

// handleInbound persists a chat frame and fans it out to the channel.
// The broadcast only happens once the insert has succeeded.
func (h *ChatHandler) handleInbound(ctx context.Context, c *chat.Client, in models.ChatInbound) error {
	content := models.SanitizeChat(in.Content)
	if content == "" {
		return nil
	}
	if utf8.RuneCountInString(content) > maxChatLen {
		content = string([]rune(content)[:maxChatLen])
	}

	return h.hub.Publish(c.Channel(), func() (models.ChatMessage, error) {
		msg, err := h.repo.CreateMessage(ctx, c.UserID(), c.Channel(), content, in.ParentMessageID)
		if err != nil {
			return models.ChatMessage{}, fmt.Errorf("persisting chat message: %w", err)
		}
		slog.Debug("message persisted", "message_id", msg.ID, "channel", msg.Channel, "user_id", msg.UserID, "client_id", c.ID())
		return models.NewChatMessage(*msg), nil
	})
}
