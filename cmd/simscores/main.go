package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/arcboard/internal/simscores"
	"github.com/okian/arcboard/pkg/logger"
)

// Default configuration constants.
const (
	defaultNumScores  = 1000
	defaultNumPlayers = 100
	defaultTopN       = 50
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultSettleWait = 15 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9090", "Base URL of the service")
		gameID     = flag.String("game", "arcboard", "Game id for simulated scores")
		numScores  = flag.Int("scores", defaultNumScores, "Number of scores to generate and submit")
		numPlayers = flag.Int("players", defaultNumPlayers, "Number of distinct simulated players")
		topN       = flag.Int("top", defaultTopN, "Number of top entries to fetch from leaderboard")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle     = flag.Duration("settle", defaultSettleWait, "Wait between submission and verification")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &simscores.Config{
		BaseURL:    *baseURL,
		GameID:     *gameID,
		NumScores:  *numScores,
		NumPlayers: *numPlayers,
		TopN:       *topN,
		Workers:    *workers,
		Timeout:    *timeout,
		SettleWait: *settle,
		Verbose:    *verbose,
	}

	if err := simscores.Run(ctx, config); err != nil {
		os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		return
	}
}
