package simscores

import (
	"crypto/rand"
	"context"
	"math/big"
	"strconv"

	"github.com/google/uuid"
	"github.com/okian/arcboard/pkg/logger"
)

// Constants for random score generation.
const (
	profileDivisor = 6
)

// Score distribution profiles, roughly matching arcade play patterns:
// most runs land mid-range, a few are spectacular, some flop.
const (
	caseCasual = iota
	caseRegular
	caseSkilled
	caseEliteRun
	caseFlop
	caseWild
)

// randInt64 returns a uniform random int64 in [0, n) using crypto/rand.
func randInt64(n int64) int64 {
	v, _ := rand.Int(rand.Reader, big.NewInt(n))
	return v.Int64()
}

// generateSubmissions creates score submissions spread over a fixed pool of
// simulated players, so aggregation has repeat submitters to chew on.
func generateSubmissions(ctx context.Context, config *Config, stats *Stats) []Submission {
	logger.Get().Info(ctx, "generating score submissions",
		logger.Int("numScores", config.NumScores),
		logger.Int("numPlayers", config.NumPlayers))

	usernames := make([]string, config.NumPlayers)
	for i := range usernames {
		usernames[i] = "player_" + uuid.New().String()[:8] + "_" + strconv.Itoa(i)
	}

	subs := make([]Submission, config.NumScores)
	for i := range subs {
		player := int(randInt64(int64(config.NumPlayers)))
		subs[i] = Submission{
			GameID:   config.GameID,
			Score:    generateVariedScore(),
			Username: usernames[player],
		}
	}

	stats.ScoresGenerated = len(subs)
	logger.Get().Info(ctx, "generated submissions", logger.Int("count", len(subs)))
	return subs
}

// generateVariedScore creates a score with a varied distribution.
func generateVariedScore() int64 {
	switch randInt64(profileDivisor) {
	case caseCasual:
		return 50 + randInt64(150)
	case caseRegular:
		return 200 + randInt64(300)
	case caseSkilled:
		return 500 + randInt64(400)
	case caseEliteRun:
		return 900 + randInt64(100)
	case caseFlop:
		return randInt64(50)
	default:
		return randInt64(1000)
	}
}
