package simscores

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/arcboard/pkg/logger"
)

// Run executes the full simulation: health check, generate, submit, settle,
// fetch the board and verify ordering.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting score submission simulation",
		logger.String("baseURL", config.BaseURL),
		logger.String("gameID", config.GameID),
		logger.Int("scores", config.NumScores),
		logger.Int("players", config.NumPlayers),
		logger.Int("workers", config.Workers))

	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	subs := generateSubmissions(ctx, config, stats)

	if err := submitScores(ctx, config, subs, stats); err != nil {
		return fmt.Errorf("score submission failed: %w", err)
	}

	// Give the refresh loop at least one pass over the submitted scores.
	logger.Get().Info(ctx, "waiting for submissions to settle",
		logger.String("wait", config.SettleWait.String()))
	select {
	case <-ctx.Done():
		return fmt.Errorf("simulation cancelled: %w", ctx.Err())
	case <-time.After(config.SettleWait):
	}

	leaderboard, err := getLeaderboard(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("leaderboard retrieval failed: %w", err)
	}

	if err := verifyLeaderboard(ctx, leaderboard, config.Verbose); err != nil {
		return fmt.Errorf("leaderboard verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.Timeout)

	resp, err := client.get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	_, _ = readResponseBody(resp)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats) {
	var scoresPerSecond float64
	if stats.Duration > 0 {
		scoresPerSecond = float64(stats.ScoresSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("scoresGenerated", stats.ScoresGenerated),
		logger.Int("scoresSubmitted", stats.ScoresSubmitted),
		logger.Int("scoresAccepted", stats.ScoresAccepted),
		logger.Int("scoresFailed", stats.ScoresFailed),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("scoresPerSecond", scoresPerSecond))
}
