// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/arcboard/internal/domain/model"
)

// PlayerHandler handles per-player history requests.
type PlayerHandler struct {
	deps Dependencies
}

// NewPlayerHandler creates a new player handler.
func NewPlayerHandler(deps Dependencies) *PlayerHandler {
	return &PlayerHandler{deps: deps}
}

// HandleGetPlayer handles GET /players/{address}?game= requests.
func (h *PlayerHandler) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	address := strings.TrimPrefix(r.URL.Path, "/players/")
	if address == "" || strings.Contains(address, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing player address", ErrBadRequest))
		return
	}

	agg := h.deps.PlayerHistory(r.Context(), model.PlayerID(address), r.URL.Query().Get("game"))
	writeJSON(w, http.StatusOK, agg)
}
