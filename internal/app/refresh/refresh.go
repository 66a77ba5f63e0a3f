// Package refresh coordinates the periodic read passes that keep the
// leaderboard view current. A pass runs the four read operations
// concurrently, settles them into one snapshot, and applies it atomically;
// an epoch guard makes sure results from a superseded pass are dropped
// instead of clobbering a newer view.
package refresh

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/arcboard/internal/domain/model"
	"github.com/okian/arcboard/pkg/logger"
	"github.com/okian/arcboard/pkg/metrics"
)

// Default refresher configuration constants.
const (
	// DefaultInterval is how often a pass re-runs while activated.
	DefaultInterval = 10 * time.Second

	defaultPageSize    = 10
	defaultRecentLimit = 5
)

// Querier bundles the read operations one pass issues.
type Querier interface {
	TopPlayers(ctx context.Context, gameID string, page, pageSize int) ([]model.RankedEntry, error)
	RecentPlayers(ctx context.Context, gameID string, limit int) ([]model.RankedEntry, error)
	GameStats(ctx context.Context, gameID string) (model.GameStats, error)
	PlayerHistory(ctx context.Context, address model.PlayerID, gameID string) (model.PlayerAggregate, error)
}

// Snapshot is the settled result of one pass. Consumers always receive a
// whole snapshot; partial results from different passes never mix.
type Snapshot struct {
	Epoch     int64
	Top       []model.RankedEntry
	Recent    []model.RankedEntry
	Stats     model.GameStats
	Player    model.PlayerAggregate
	HasPlayer bool
	TakenAt   time.Time
}

// Refresher owns the polling loop and its cancellation epoch.
type Refresher struct {
	querier     Querier
	interval    time.Duration
	pageSize    int
	recentLimit int
	logger      logger.Logger

	// epoch increases on every Activate/Deactivate; a pass applies its
	// snapshot only if the epoch it started under is still current.
	epoch atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Option applies a configuration option to the Refresher.
type Option func(*Refresher)

// WithInterval sets how often passes re-run.
func WithInterval(interval time.Duration) Option {
	return func(r *Refresher) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

// WithPageSize sets how many ranked entries a pass fetches.
func WithPageSize(size int) Option {
	return func(r *Refresher) {
		if size > 0 {
			r.pageSize = size
		}
	}
}

// WithRecentLimit sets how many recent submissions a pass fetches.
func WithRecentLimit(limit int) Option {
	return func(r *Refresher) {
		if limit > 0 {
			r.recentLimit = limit
		}
	}
}

// WithLogger sets a custom logger for the refresher.
func WithLogger(l logger.Logger) Option {
	return func(r *Refresher) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a refresher reading through querier.
func New(querier Querier, opts ...Option) *Refresher {
	r := &Refresher{
		querier:     querier,
		interval:    DefaultInterval,
		pageSize:    defaultPageSize,
		recentLimit: defaultRecentLimit,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = logger.Get().Named("refresh")
	}

	return r
}

// Activate starts polling for gameID, running one pass immediately and then
// one per interval until Deactivate or ctx cancellation. address may be
// empty when no player identity is known yet; a non-empty address adds the
// player-history read to every pass. apply receives each settled snapshot
// on the polling goroutine. Re-activating supersedes the previous loop.
func (r *Refresher) Activate(ctx context.Context, gameID string, address model.PlayerID, apply func(Snapshot)) {
	epoch := r.epoch.Add(1)

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()

	go r.loop(loopCtx, epoch, gameID, address, apply)
}

// Deactivate stops the polling loop. Reads already in flight finish but
// their snapshot fails the epoch check and is dropped.
func (r *Refresher) Deactivate() {
	r.epoch.Add(1)

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()
}

// Epoch returns the current activation epoch.
func (r *Refresher) Epoch() int64 {
	return r.epoch.Load()
}

func (r *Refresher) loop(ctx context.Context, epoch int64, gameID string, address model.PlayerID, apply func(Snapshot)) {
	r.runPass(ctx, epoch, gameID, address, apply)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runPass(ctx, epoch, gameID, address, apply)
		}
	}
}

// runPass issues the reads concurrently and applies the settled snapshot if
// the pass's epoch is still current. Individual read failures degrade to
// zero values so one flaky query never withholds the rest of the view.
func (r *Refresher) runPass(ctx context.Context, epoch int64, gameID string, address model.PlayerID, apply func(Snapshot)) {
	start := time.Now()
	snap := Snapshot{Epoch: epoch}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		top, err := r.querier.TopPlayers(ctx, gameID, 1, r.pageSize)
		if err != nil {
			r.logger.Warn(ctx, "top players read failed", logger.String("game", gameID), logger.Error(err))
			return
		}
		snap.Top = top
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		recent, err := r.querier.RecentPlayers(ctx, gameID, r.recentLimit)
		if err != nil {
			r.logger.Warn(ctx, "recent players read failed", logger.String("game", gameID), logger.Error(err))
			return
		}
		snap.Recent = recent
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		stats, err := r.querier.GameStats(ctx, gameID)
		if err != nil {
			r.logger.Warn(ctx, "game stats read failed", logger.String("game", gameID), logger.Error(err))
			return
		}
		snap.Stats = stats
	}()

	if address != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			player, err := r.querier.PlayerHistory(ctx, address, gameID)
			if err != nil {
				r.logger.Warn(ctx, "player history read failed", logger.String("address", string(address)), logger.Error(err))
				return
			}
			snap.Player = player
			snap.HasPlayer = true
		}()
	}

	wg.Wait()
	snap.TakenAt = time.Now()

	metrics.RecordRefreshPassDuration(float64(time.Since(start).Milliseconds()))

	// Apply-time guard: a newer activation (or deactivation) invalidates
	// this pass no matter how its reads settled.
	if r.epoch.Load() != epoch || ctx.Err() != nil {
		metrics.RecordRefreshDropped()
		r.logger.Debug(ctx, "dropping stale refresh pass",
			logger.Int64("passEpoch", epoch),
			logger.Int64("currentEpoch", r.epoch.Load()),
		)
		return
	}

	metrics.RecordRefreshPass()
	metrics.UpdateRefreshLastUnix(snap.TakenAt.Unix())
	metrics.UpdateTrackedPlayers(len(snap.Top))
	apply(snap)
}
