package simscores

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/okian/arcboard/pkg/logger"
)

// getLeaderboard retrieves the top N leaderboard entries.
func getLeaderboard(ctx context.Context, config *Config, stats *Stats) ([]Entry, error) {
	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/leaderboard?game=%s&limit=%d", config.BaseURL, config.GameID, config.TopN)

	resp, err := client.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var leaderboard []Entry
	if err := json.Unmarshal(body, &leaderboard); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.LeaderboardEntries = len(leaderboard)
	logger.Get().Info(ctx, "retrieved leaderboard", logger.Int("entries", len(leaderboard)))
	return leaderboard, nil
}

// verifyLeaderboard checks rank continuity, score ordering and tier
// assignment on the fetched board.
func verifyLeaderboard(ctx context.Context, leaderboard []Entry, verbose bool) error {
	if len(leaderboard) == 0 {
		logger.Get().Warn(ctx, "empty leaderboard; nothing to verify")
		return nil
	}

	for i, entry := range leaderboard {
		if entry.Rank != i+1 {
			return fmt.Errorf("entry %d carries rank %d", i, entry.Rank)
		}
		if i > 0 && entry.Score > leaderboard[i-1].Score {
			return fmt.Errorf("entry %d outscores entry %d", i, i-1)
		}
		wantTier := ""
		switch entry.Rank {
		case 1:
			wantTier = "gold"
		case 2:
			wantTier = "silver"
		case 3:
			wantTier = "bronze"
		}
		if entry.Tier != wantTier {
			return fmt.Errorf("rank %d carries tier %q, want %q", entry.Rank, entry.Tier, wantTier)
		}
	}

	if verbose {
		topN := 10
		if len(leaderboard) < topN {
			topN = len(leaderboard)
		}
		for _, entry := range leaderboard[:topN] {
			logger.Get().Info(ctx, "top entry",
				logger.Int("rank", entry.Rank),
				logger.String("username", entry.Username),
				logger.Int64("score", entry.Score))
		}
	}

	logger.Get().Info(ctx, "leaderboard ordering verified")
	return nil
}
