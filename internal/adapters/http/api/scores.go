// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/arcboard/internal/domain/submit"
)

// ScoresHandler handles score submission requests.
type ScoresHandler struct {
	deps Dependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps Dependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

// scoreRequest mirrors the POST /scores body.
type scoreRequest struct {
	GameID   string `json:"game_id"`
	Score    int64  `json:"score"`
	Username string `json:"username"`
}

type scoreResponse struct {
	ID string `json:"id"`
}

// HandlePostScore handles POST /scores requests. Validation failures never
// reach the signer; dispatch failures surface as 502 so callers can retry
// deliberately.
func (h *ScoresHandler) HandlePostScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid JSON body", ErrBadRequest))
		return
	}

	ref, err := h.deps.SubmitScore(r.Context(), req.GameID, req.Score, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, submit.ErrInvalidScore), errors.Is(err, submit.ErrMissingGame):
			writeError(w, http.StatusBadRequest, "invalid_score", err)
		default:
			var subErr *submit.SubmissionError
			if errors.As(err, &subErr) {
				writeError(w, http.StatusBadGateway, "submission_failed", err)
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}

	writeJSON(w, http.StatusAccepted, scoreResponse{ID: string(ref)})
}
