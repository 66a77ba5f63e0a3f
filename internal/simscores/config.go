package simscores

import "time"

// Config holds configuration for the submission simulation.
type Config struct {
	BaseURL    string        // Base URL of the service
	GameID     string        // Game the simulated scores belong to
	NumScores  int           // Number of scores to generate
	NumPlayers int           // Number of distinct simulated players
	TopN       int           // Number of top entries to fetch
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	SettleWait time.Duration // Wait between submission and verification
	Verbose    bool          // Enable verbose logging
}

// Submission is one simulated score POST body.
type Submission struct {
	GameID   string `json:"game_id"`
	Score    int64  `json:"score"`
	Username string `json:"username"`
}

// Entry mirrors a ranked leaderboard entry as served by the API.
type Entry struct {
	Rank     int    `json:"rank"`
	Address  string `json:"walletAddress"`
	Username string `json:"username"`
	Score    int64  `json:"score"`
	Tier     string `json:"tier"`
}

// Stats holds simulation statistics.
type Stats struct {
	ScoresGenerated    int
	ScoresSubmitted    int
	ScoresAccepted     int
	ScoresFailed       int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
