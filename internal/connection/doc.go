// Package connection consumes the explorer's live feed over WebSocket.
//
// Client wraps a single read-only connection: it answers server pings,
// sends its own keepalive pings and reports a stale connection when the
// server goes quiet. Follower keeps one Client alive across drops with
// exponential backoff and decodes every frame into a model.LiveMessage.
package connection
