// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/arcboard/internal/app/refresh"
	"github.com/okian/arcboard/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Read operations expose ranked leaderboard views. Ledger failures are
	// already degraded to zero values below this interface.
	TopPlayers(ctx context.Context, gameID string, page, pageSize int) []model.RankedEntry
	RecentPlayers(ctx context.Context, gameID string, limit int) []model.RankedEntry
	PlayerHistory(ctx context.Context, address model.PlayerID, gameID string) model.PlayerAggregate
	GameStats(ctx context.Context, gameID string) model.GameStats
	TotalGameStats(ctx context.Context, gameID string) model.TotalGameStats
	TotalPlayers(ctx context.Context, gameID string) int
	BoardState(ctx context.Context) model.BoardState

	// SubmitScore signs and dispatches a score to the ledger.
	SubmitScore(ctx context.Context, gameID string, score int64, username string) (model.LedgerRef, error)

	// Snapshot returns the last settled refresh pass, if any.
	Snapshot() (refresh.Snapshot, bool)
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// Server wires HTTP routes for the leaderboard API.
type Server struct {
	healthHandler      *HealthHandler
	leaderboardHandler *LeaderboardHandler
	playerHandler      *PlayerHandler
	statsHandler       *StatsHandler
	scoresHandler      *ScoresHandler
	snapshotHandler    *SnapshotHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(statsProvider),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		playerHandler:      NewPlayerHandler(deps),
		statsHandler:       NewStatsHandler(deps),
		scoresHandler:      NewScoresHandler(deps),
		snapshotHandler:    NewSnapshotHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/recent", MetricsMiddleware(s.leaderboardHandler.HandleGetRecent, "recent"))
	mux.HandleFunc("/stats/global", MetricsMiddleware(s.statsHandler.HandleGetGlobalStats, "stats_global"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleGetStats, "stats"))
	mux.HandleFunc("/players/", MetricsMiddleware(s.playerHandler.HandleGetPlayer, "players"))
	mux.HandleFunc("/snapshot", MetricsMiddleware(s.snapshotHandler.HandleGetSnapshot, "snapshot"))
	mux.HandleFunc("/scores", MetricsMiddleware(s.scoresHandler.HandlePostScore, "scores"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
