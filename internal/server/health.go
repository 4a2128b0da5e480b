package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rickgao/bitcoin-explorer/internal/version"
)

type healthResponse struct {
	Status     string         `json:"status"`
	Version    string         `json:"version"`
	Components map[string]any `json:"components"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthTimeout)
	defer cancel()

	health := healthResponse{
		Status:     "healthy",
		Version:    version.Version,
		Components: make(map[string]any),
	}

	// Check database
	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["postgres"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["postgres"] = "connected"
		}
	}

	hs := s.deps.Hub.Stats()
	health.Components["hub"] = map[string]any{
		"subscribers": hs.Subscribers,
		"published":   hs.Published,
		"delivered":   hs.Delivered,
		"dropped":     hs.Dropped,
		"queue_size":  hs.QueueSize,
		"max_pending": hs.MaxPending,
	}

	if s.deps.Ingest != nil {
		is := s.deps.Ingest.Stats()
		ingest := map[string]any{
			"cycles":           is.Cycles,
			"appended":         is.Appended,
			"published":        is.Published,
			"fetch_failures":   is.FetchFailures,
			"store_failures":   is.StoreFailures,
			"publish_failures": is.PublishFailures,
		}
		if !is.LastSuccess.IsZero() {
			ingest["last_success"] = is.LastSuccess.Format(time.RFC3339)
		}
		health.Components["ingest"] = ingest

		// Cycles ran but none made it to subscribers
		if health.Status == "healthy" && is.Cycles > 0 && is.LastSuccess.IsZero() {
			health.Status = "degraded"
		}
	}

	// The relay is best-effort; losing it degrades but never fails health
	if s.deps.Relay != nil {
		relay := map[string]any{"status": "connected"}
		if err := s.deps.Relay.Ping(ctx); err != nil {
			relay["status"] = "disconnected"
			relay["error"] = err.Error()
			if health.Status == "healthy" {
				health.Status = "degraded"
			}
		} else if latest, err := s.deps.Relay.Latest(ctx); err == nil && json.Valid(latest) {
			relay["latest"] = json.RawMessage(latest)
		}
		health.Components["redis"] = relay
	}

	status := http.StatusOK
	if health.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}
