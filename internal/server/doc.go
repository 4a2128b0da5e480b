// Package server exposes the HTTP surface of the explorer backend.
//
// Routes:
//
//	GET <ws_path>       WebSocket live feed; one message per ingestion cycle
//	GET <history_path>  most recent observations, newest first
//	GET <health_path>   store reachability plus hub and ingestion stats
//
// Every route is wrapped in the configured cross-origin policy.
//
// Each WebSocket connection becomes a session that owns one hub
// subscription. The session forwards messages until a write fails, the
// client goes away or the hub closes; any of these ends that session only.
package server
