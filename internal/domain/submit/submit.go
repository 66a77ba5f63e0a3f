// Package submit builds tagged score records and dispatches them through
// the external signing collaborator. Submitting is fire-and-confirm: a
// successful dispatch returns the ledger reference id, and the submission
// only becomes authoritative once a later read sees it.
package submit

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/arcboard/internal/adapters/wallet"
	"github.com/okian/arcboard/internal/domain/model"
	"github.com/okian/arcboard/internal/domain/rank"
	"github.com/okian/arcboard/pkg/logger"
	"github.com/okian/arcboard/pkg/metrics"
)

// Default pipeline configuration constants.
const (
	defaultAppName = "arcboard"

	// recordType tags every submission so ledger indexers can filter
	// game scores from unrelated messages.
	recordType = "game-score"

	actionSubmitScore = "submit-score"

	// dispatchData is the opaque payload accompanying the tags.
	dispatchData = "Submit score"
)

// Pipeline prepares and dispatches signed score submissions.
type Pipeline struct {
	appName   string
	processID string
	now       func() time.Time
	logger    logger.Logger
}

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithAppName overrides the application id tag attached to submissions.
func WithAppName(name string) Option {
	return func(p *Pipeline) {
		if name != "" {
			p.appName = name
		}
	}
}

// WithClock injects a time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets a custom logger for the pipeline.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a pipeline targeting the given ledger process.
func New(processID string, opts ...Option) *Pipeline {
	p := &Pipeline{
		appName:   defaultAppName,
		processID: processID,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = logger.Get().Named("submit")
	}

	return p
}

// Submit validates score, builds the tagged submission record, and hands it
// to signer for signing and broadcast. Validation failures surface as
// ErrInvalidScore before the signer is touched; signer failures surface as
// a SubmissionError with the underlying cause and are never retried here.
func (p *Pipeline) Submit(ctx context.Context, signer wallet.Signer, gameID string, score int64, username string) (model.LedgerRef, error) {
	if gameID == "" {
		metrics.RecordSubmissionInvalid()
		return "", ErrMissingGame
	}
	if score < 0 {
		metrics.RecordSubmissionInvalid()
		return "", fmt.Errorf("%w: %d is negative", ErrInvalidScore, score)
	}
	if username == "" {
		username = rank.AnonymousUsername
	}

	address, err := signer.ActiveAddress(ctx)
	if err != nil {
		metrics.RecordSubmissionRejected()
		return "", &SubmissionError{GameID: gameID, Err: err}
	}

	req := model.SubmissionRequest{
		SignerAddress: address,
		GameID:        gameID,
		Score:         score,
		Username:      username,
		Timestamp:     p.now().UTC(),
	}

	start := time.Now()
	ref, err := signer.Dispatch(ctx, p.buildMessage(req))
	metrics.RecordSubmissionLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordSubmissionRejected()
		p.logger.Warn(ctx, "score dispatch rejected",
			logger.String("game", gameID),
			logger.Error(err),
		)
		return "", &SubmissionError{GameID: gameID, Err: err}
	}

	metrics.RecordSubmissionAccepted()
	p.logger.Info(ctx, "score submitted",
		logger.String("game", gameID),
		logger.Int64("score", score),
		logger.String("ref", string(ref)),
	)

	return ref, nil
}

// Build exposes request construction for callers that want to optimistically
// merge a submission into a held view before the ledger confirms it.
func (p *Pipeline) Build(address model.PlayerID, gameID string, score int64, username string) model.SubmissionRequest {
	if username == "" {
		username = rank.AnonymousUsername
	}
	return model.SubmissionRequest{
		SignerAddress: address,
		GameID:        gameID,
		Score:         score,
		Username:      username,
		Timestamp:     p.now().UTC(),
	}
}

// buildMessage lays the request out as the tagged message the ledger
// process expects.
func (p *Pipeline) buildMessage(req model.SubmissionRequest) wallet.Message {
	return wallet.Message{
		Target: p.processID,
		Tags: []wallet.Tag{
			{Name: "App-Name", Value: p.appName},
			{Name: "Type", Value: recordType},
			{Name: "Action", Value: actionSubmitScore},
			{Name: "Score", Value: fmt.Sprint(req.Score)},
			{Name: "GameId", Value: req.GameID},
			{Name: "Username", Value: req.Username},
			{Name: "WalletAddress", Value: string(req.SignerAddress)},
			{Name: "Timestamp", Value: req.Timestamp.Format(time.RFC3339)},
		},
		Data: dispatchData,
	}
}

// Merge folds a just-submitted score into a held ranked view and re-ranks
// it. The result is optimistic: the authoritative view is the next
// successful ledger read, which either confirms or replaces it.
func Merge(view []model.RankedEntry, req model.SubmissionRequest) []model.RankedEntry {
	aggregates := make([]model.PlayerAggregate, 0, len(view)+1)
	merged := false

	for _, entry := range view {
		agg := model.PlayerAggregate{
			Address:         entry.Address,
			Username:        entry.Username,
			TotalScore:      entry.Score,
			SubmissionCount: 1,
			BestScore:       entry.Score,
			Scores: []model.Score{
				{Score: entry.Score, Timestamp: entry.Timestamp},
			},
		}
		if entry.Address == req.SignerAddress {
			agg.TotalScore += req.Score
			agg.SubmissionCount++
			agg.Scores = append(agg.Scores, model.Score{Score: req.Score, Timestamp: req.Timestamp})
			if req.Score > agg.BestScore {
				agg.BestScore = req.Score
			}
			merged = true
		}
		aggregates = append(aggregates, agg)
	}

	if !merged {
		aggregates = append(aggregates, model.PlayerAggregate{
			Address:         req.SignerAddress,
			Username:        req.Username,
			TotalScore:      req.Score,
			SubmissionCount: 1,
			BestScore:       req.Score,
			Scores: []model.Score{
				{Score: req.Score, Timestamp: req.Timestamp},
			},
		})
	}

	return rank.Rank(aggregates)
}
