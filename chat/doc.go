// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package chat keeps the registry of live chat sockets and fans new
messages out to every socket of the same channel.

# Hub

One Hub serves the whole process. Run it with a cancellable context:

	hub := chat.NewHub()
	go hub.Run(ctx)

When ctx ends every client queue is closed and the write pumps send a
close frame. Broadcast queues a message for one channel; the hub
delivers it to matching clients in connection order. A client whose
send buffer is full is dropped rather than slowing the others.

Publish wraps an insert and its broadcast under one lock, so clients see
messages in the order they were stored:

	err := hub.Publish(channel, func() (models.ChatMessage, error) {
		// insert, then return the frame to send
	})

# Clients

The HTTP handler upgrades the request, builds a Client for the signed-in
user and blocks in Serve:

	conn, err := upgrader.Upgrade(w, r, nil)
	...
	chat.NewClient(hub, conn, channel, user, onMessage).Serve(ctx)

onMessage runs for every inbound frame ({"content", "parent_message_id"}).
It should persist the message through Publish. If it returns an
error the socket is closed with code 1011.
*/
package chat
