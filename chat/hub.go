// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package chat

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/danielhkuo/campusboard/metrics"
	"github.com/danielhkuo/campusboard/models"
)

// MessageTypeMessage tags a chat message frame
const MessageTypeMessage = "message"

// Message is the envelope written to every socket
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type outbound struct {
	channel string
	message Message
}

// Hub tracks the open chat sockets of this process and fans messages out
// to the sockets of the matching channel
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex

	// publishMu makes persist-then-broadcast one step, so fan-out order
	// matches store order even with several DB connections
	publishMu sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx ends, then closes
// every client. Lifecycle events are drained before broadcasts so a
// client registered before a message always receives it.
func (h *Hub) Run(ctx context.Context) error {
	defer h.stopOnce.Do(func() { close(h.done) })

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case out := <-h.broadcast:
			h.broadcastToClients(out)
		}
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.ChatClients.Inc()
	slog.Info("chat client connected",
		"channel", client.channel,
		"username", client.username,
		"total_clients", total,
	)
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		metrics.ChatClients.Dec()
		slog.Info("chat client disconnected",
			"channel", client.channel,
			"username", client.username,
			"total_clients", total,
		)
	}
}

// Broadcast queues msg for every client of channel. It blocks while the
// queue is full and returns without sending once the hub has stopped.
func (h *Hub) Broadcast(channel string, msg models.ChatMessage) {
	out := outbound{
		channel: channel,
		message: Message{Type: MessageTypeMessage, Data: msg},
	}

	select {
	case h.broadcast <- out:
		metrics.ChatMessagesTotal.Inc()
	case <-h.done:
		slog.Warn("chat hub stopped, dropping message", "channel", channel)
	}
}

// Publish runs persist and broadcasts the message it returns to channel,
// holding the publish lock across both. Nothing is sent when persist fails.
func (h *Hub) Publish(channel string, persist func() (models.ChatMessage, error)) error {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	msg, err := persist()
	if err != nil {
		return err
	}
	h.Broadcast(channel, msg)
	return nil
}

// broadcastToClients delivers in client ID order. A client whose buffer
// is full is dropped; its write pump then closes the socket.
func (h *Hub) broadcastToClients(out outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		if client.channel == out.channel {
			clients = append(clients, client)
		}
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- out.message:
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.ChatClients.Dec()
		metrics.ChatClientsDropped.Inc()
		slog.Warn("dropping slow chat client", "channel", client.channel, "username", client.username)
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	count := len(h.clients)
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
		metrics.ChatClients.Dec()
	}
	slog.Info("chat hub stopped", "clients_closed", count)
}

// join registers client unless the hub has stopped
func (h *Hub) join(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ChannelClientCount returns the number of clients connected to channel
func (h *Hub) ChannelClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for client := range h.clients {
		if client.channel == channel {
			n++
		}
	}
	return n
}
