// Package model contains domain models passed between layers.
package model

import "time"

// PlayerID identifies a wallet/account on the ledger. Opaque; equality is
// exact string comparison.
type PlayerID string

// LedgerRef is the reference id the ledger assigns to an accepted submission.
type LedgerRef string

// Tier classifies the top three ranked entries.
type Tier string

// Tier values, assigned to ranks 1-3 only.
const (
	TierGold   Tier = "gold"
	TierSilver Tier = "silver"
	TierBronze Tier = "bronze"
)

// TierForRank returns the tier for a 1-based rank, or "" past third place.
func TierForRank(rank int) Tier {
	switch rank {
	case 1:
		return TierGold
	case 2:
		return TierSilver
	case 3:
		return TierBronze
	default:
		return ""
	}
}

// ScoreRecord is one raw score submission as read back from the ledger.
// Records are immutable once written; one address may own many of them.
type ScoreRecord struct {
	Address   PlayerID  `json:"walletAddress"`
	Username  string    `json:"username"`
	Score     int64     `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// Score is a single score/timestamp pair inside a player aggregate.
type Score struct {
	Score     int64     `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// PlayerAggregate is the derived per-player summary. It is recomputed on
// every aggregation pass and never persisted independently of its records.
//
// Invariants: TotalScore = sum(Scores), BestScore = max(Scores),
// SubmissionCount = len(Scores).
type PlayerAggregate struct {
	Address         PlayerID `json:"walletAddress"`
	Username        string   `json:"username"`
	TotalScore      int64    `json:"totalScore"`
	SubmissionCount int      `json:"submissionCount"`
	BestScore       int64    `json:"bestScore"`
	Scores          []Score  `json:"scores"`
}

// FirstSubmission returns the timestamp of the player's earliest score.
// Zero time when the aggregate holds no scores.
func (a PlayerAggregate) FirstSubmission() time.Time {
	var first time.Time
	for _, s := range a.Scores {
		if first.IsZero() || s.Timestamp.Before(first) {
			first = s.Timestamp
		}
	}
	return first
}

// RankedEntry projects a PlayerAggregate with its position on the board.
// Rank is 1-based; Tier is set for ranks 1-3. Entries coming from the
// recent-players query carry Rank=0 and no tier.
type RankedEntry struct {
	Rank      int       `json:"rank,omitempty"`
	Address   PlayerID  `json:"walletAddress"`
	Username  string    `json:"username"`
	Score     int64     `json:"score"`
	Timestamp time.Time `json:"timestamp"`
	Tier      Tier      `json:"tier,omitempty"`
}

// GameStats aggregates one game across all players.
type GameStats struct {
	TotalScore      int64 `json:"totalScore"`
	TotalPlayers    int   `json:"totalPlayers"`
	SubmissionCount int   `json:"submissionCount"`
}

// TotalGameStats aggregates across every game the ledger tracks.
type TotalGameStats struct {
	TotalGames   int   `json:"totalGames"`
	TotalPlayers int   `json:"totalPlayers"`
	TotalScore   int64 `json:"totalScore"`
}

// BoardState is the ledger-side leaderboard state. Submissions are refused
// while the board is locked.
type BoardState struct {
	Locked     bool `json:"isLocked"`
	ScoreCount int  `json:"scoreCount"`
}

// SubmissionRequest is the record handed to the signer. It becomes a
// ScoreRecord only once the ledger accepts the dispatched message.
type SubmissionRequest struct {
	SignerAddress PlayerID
	GameID        string
	Score         int64
	Username      string
	Timestamp     time.Time
}
