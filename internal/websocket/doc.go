// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

/*
Package websocket owns the push channel: who is connected, and how bytes
reach them.

# Components

  - Registry: user id -> ordered list of live sessions. One user may hold any
    number of sessions (phone, laptop, second tab); a session belongs to
    exactly one user. An entry disappears when its last session is released,
    so "has an entry" and "is online" are the same question.
  - Client: one gorilla/websocket connection with a read pump and a write
    pump. A Client releases itself from the Registry exactly once, whichever
    side of the connection fails first.
  - Gatekeeper: the HTTP handler for /ws. It verifies the handshake token
    before upgrading, so a refused client never touches the Registry.

# Concurrency

The Registry is guarded by a single RWMutex. SessionsFor and All return
copies, and callers send on those copies after the lock is dropped, so a slow
socket can never hold up admission or release for anyone else.

Client.Send never blocks. A session whose buffer is full is closed and
reported as failed; the disconnect path then releases it.

# Wire format

Every frame is a JSON text message:

	{"type": "new-post", "data": {...}}
	{"type": "pong", "data": null}

Clients may send {"type": "ping"} to get a pong back; anything else they send
is read and discarded. Inbound frames are rate limited per connection.
*/
package websocket
