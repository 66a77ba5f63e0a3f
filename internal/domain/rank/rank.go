// Package rank turns raw ledger score records into ranked, deduplicated
// player views. Everything here is a pure transformation with no external
// dependencies, so it is testable in isolation.
package rank

import (
	"sort"

	"github.com/okian/arcboard/internal/domain/model"
)

// AnonymousUsername is used when a record carries no username.
const AnonymousUsername = "Anonymous"

// tierCutoff is the last rank that still receives a tier.
const tierCutoff = 3

// Aggregate groups records by address and reduces each group into a
// PlayerAggregate. Scores keep their original temporal order. The username
// of a group is the one attached to its first record; resubmissions under a
// different name do not overwrite it (first-write-wins).
func Aggregate(records []model.ScoreRecord) map[model.PlayerID]*model.PlayerAggregate {
	aggregates := make(map[model.PlayerID]*model.PlayerAggregate)

	for _, r := range records {
		agg, ok := aggregates[r.Address]
		if !ok {
			username := r.Username
			if username == "" {
				username = AnonymousUsername
			}
			agg = &model.PlayerAggregate{
				Address:  r.Address,
				Username: username,
			}
			aggregates[r.Address] = agg
		}

		agg.Scores = append(agg.Scores, model.Score{Score: r.Score, Timestamp: r.Timestamp})
		agg.TotalScore += r.Score
		agg.SubmissionCount++
		if r.Score > agg.BestScore {
			agg.BestScore = r.Score
		}
	}

	return aggregates
}

// Rank orders aggregates by descending total score, ties broken by the
// earliest first submission, and assigns 1-based ranks with tiers for the
// top three. The sort is fully determined by the input values, never by
// input order, so re-ranking an unchanged input yields identical output.
func Rank(aggregates []model.PlayerAggregate) []model.RankedEntry {
	sorted := make([]model.PlayerAggregate, len(aggregates))
	copy(sorted, aggregates)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TotalScore != sorted[j].TotalScore {
			return sorted[i].TotalScore > sorted[j].TotalScore
		}
		fi, fj := sorted[i].FirstSubmission(), sorted[j].FirstSubmission()
		if !fi.Equal(fj) {
			return fi.Before(fj)
		}
		// Address as the final key keeps equal-score, equal-time inputs stable.
		return sorted[i].Address < sorted[j].Address
	})

	entries := make([]model.RankedEntry, len(sorted))
	for i, agg := range sorted {
		entries[i] = model.RankedEntry{
			Rank:      i + 1,
			Address:   agg.Address,
			Username:  agg.Username,
			Score:     agg.TotalScore,
			Timestamp: agg.FirstSubmission(),
		}
		if i < tierCutoff {
			entries[i].Tier = model.TierForRank(i + 1)
		}
	}

	return entries
}

// Stats reduces a set of distinct player aggregates into game-level totals.
func Stats(aggregates []model.PlayerAggregate) model.GameStats {
	var stats model.GameStats
	for _, agg := range aggregates {
		stats.TotalScore += agg.TotalScore
		stats.TotalPlayers++
		stats.SubmissionCount += agg.SubmissionCount
	}
	return stats
}

// Collect flattens an aggregation map into a slice for ranking.
func Collect(aggregates map[model.PlayerID]*model.PlayerAggregate) []model.PlayerAggregate {
	out := make([]model.PlayerAggregate, 0, len(aggregates))
	for _, agg := range aggregates {
		out = append(out, *agg)
	}
	return out
}

// Page slices entries for 1-based page numbers. Out-of-range pages and
// invalid parameters return an empty slice rather than an error, so the
// result always serializes as [] and never null.
func Page(entries []model.RankedEntry, page, pageSize int) []model.RankedEntry {
	if page < 1 || pageSize < 1 {
		return []model.RankedEntry{}
	}
	start := (page - 1) * pageSize
	if start >= len(entries) {
		return []model.RankedEntry{}
	}
	end := start + pageSize
	if end > len(entries) {
		end = len(entries)
	}
	return entries[start:end]
}
