package server

import (
	"encoding/json"
	"net/http"

	"github.com/rickgao/bitcoin-explorer/internal/model"
)

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	observations, err := s.deps.History.Recent(r.Context(), s.cfg.HistoryLimit)
	if err != nil {
		s.logger.Error("failed to query recent observations", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to query recent observations")
		return
	}

	rows := make([]model.HistoryRow, 0, len(observations))
	for _, obs := range observations {
		rows = append(rows, obs.HistoryRow())
	}

	writeJSON(w, http.StatusOK, rows)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
