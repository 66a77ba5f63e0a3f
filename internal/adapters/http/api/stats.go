// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/okian/arcboard/internal/domain/model"
)

// StatsHandler handles game statistics requests.
type StatsHandler struct {
	deps Dependencies
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(deps Dependencies) *StatsHandler {
	return &StatsHandler{deps: deps}
}

// HandleGetStats handles GET /stats?game= requests.
func (h *StatsHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	stats := h.deps.GameStats(r.Context(), r.URL.Query().Get("game"))
	writeJSON(w, http.StatusOK, stats)
}

type globalStatsResponse struct {
	Totals       model.TotalGameStats `json:"totals"`
	TotalPlayers int                  `json:"totalPlayers"`
	Board        model.BoardState     `json:"board"`
}

// HandleGetGlobalStats handles GET /stats/global?game= requests. It bundles
// the cross-game totals with the distinct player count and board state.
func (h *StatsHandler) HandleGetGlobalStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	game := r.URL.Query().Get("game")
	resp := globalStatsResponse{
		Totals:       h.deps.TotalGameStats(r.Context(), game),
		TotalPlayers: h.deps.TotalPlayers(r.Context(), game),
		Board:        h.deps.BoardState(r.Context()),
	}
	writeJSON(w, http.StatusOK, resp)
}
