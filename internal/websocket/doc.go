// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

/*
Package websocket pushes live status and notifications to browser clients.

A Hub owns the set of connected clients; each Client runs a read pump
(answering "ping" messages with "pong") and a write pump (sending queued
messages and keepalive pings). Broadcasting never blocks the caller: the hub
queue is bounded and a client whose own buffer is full is disconnected.

Message types:

  - status_update: the full status map and poll meta of a completed cycle
  - notification: a newly fired notification (the inapp channel)
  - ping / pong: client keepalive

Every message is framed as

	{"id": "<uuid>", "type": "status_update", "timestamp": "...", "data": {...}}

BroadcastStage plugs the hub into the poll scheduler as its last stage:

	hub := websocket.NewHub()
	go hub.RunWithContext(ctx)
	scheduler.AddStage(websocket.NewBroadcastStage(hub))
*/
package websocket
