// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/campusboard/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
	sendBuffer     = 256
)

var clientIDCounter atomic.Uint64

// InboundHandler is called for every frame a client sends. A returned
// error closes the socket with an internal-error close code.
type InboundHandler func(ctx context.Context, c *Client, in models.ChatInbound) error

// Client is one chat socket bound to a channel and a signed-in user
type Client struct {
	id       uint64
	hub      *Hub
	conn     *websocket.Conn
	send     chan Message
	channel  string
	userID   string
	username string
	handle   InboundHandler
}

func NewClient(hub *Hub, conn *websocket.Conn, channel string, user *models.User, handle InboundHandler) *Client {
	return &Client{
		id:       clientIDCounter.Add(1),
		hub:      hub,
		conn:     conn,
		send:     make(chan Message, sendBuffer),
		channel:  channel,
		userID:   user.ID,
		username: user.Username,
		handle:   handle,
	}
}

func (c *Client) ID() uint64       { return c.id }
func (c *Client) Channel() string  { return c.channel }
func (c *Client) UserID() string   { return c.userID }
func (c *Client) Username() string { return c.username }

// Serve registers the client and pumps the socket until it closes.
// It blocks for the life of the connection.
func (c *Client) Serve(ctx context.Context) {
	if !c.hub.join(c) {
		CloseWith(c.conn, websocket.CloseGoingAway, "server shutting down")
		return
	}
	go c.writePump()
	c.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Error("failed to set read deadline", "error", err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Error("unexpected chat socket close", "channel", c.channel, "error", err)
			}
			return
		}

		var in models.ChatInbound
		if err := json.Unmarshal(data, &in); err != nil {
			slog.Debug("ignoring malformed chat frame", "channel", c.channel, "error", err)
			continue
		}

		if err := c.handle(ctx, c, in); err != nil {
			slog.Error("failed to handle chat message", "channel", c.channel, "user_id", c.userID, "error", err)
			CloseWith(c.conn, websocket.CloseInternalServerErr, "failed to save message")
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// Hub closed the queue
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				slog.Debug("failed to write chat frame", "channel", c.channel, "error", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// CloseWith sends a close frame with code and reason, then closes conn.
// Safe to call concurrently with the write pump.
func CloseWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = conn.Close()
}

// NewUpgrader returns an upgrader that accepts same-host origins plus any
// listed in origins
func NewUpgrader(origins []string) *websocket.Upgrader {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.ToLower(strings.TrimRight(o, "/"))] = true
	}

	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if allowed[strings.ToLower(origin)] {
				return true
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false
			}
			return strings.EqualFold(u.Host, r.Host)
		},
	}
}
