// Package ws streams tab registry changes to connected clients over
// WebSocket.
//
// Message Types (Server → Client):
//   - snapshot: every open tab plus the active tab id, sent on connect and
//     on request
//   - tab_created, tab_closed, tab_activated, tab_navigated, tab_updated:
//     one registry change
//   - pong: reply to ping
//   - error: the client sent something the hub does not understand
//
// Message Types (Client → Server):
//   - ping
//   - snapshot
//
// Example Usage:
//
//	hub := ws.NewHub(tabs, logger).WithMetrics(metrics)
//	router.GET("/stream", hub.HandleConnection)
package ws
