// Package service wires the ledger client, submission pipeline and
// refresh loop behind the dependencies required by the HTTP API.
package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/okian/arcboard/internal/adapters/ledger"
	"github.com/okian/arcboard/internal/adapters/wallet"
	"github.com/okian/arcboard/internal/app/refresh"
	"github.com/okian/arcboard/internal/domain/model"
	"github.com/okian/arcboard/internal/domain/rank"
	"github.com/okian/arcboard/internal/domain/submit"
	"github.com/okian/arcboard/pkg/logger"
)

// Querier is the read surface the service needs from the ledger.
// *ledger.Client satisfies it.
type Querier interface {
	TopPlayers(ctx context.Context, gameID string, page, pageSize int) ([]model.RankedEntry, error)
	PlayerHistory(ctx context.Context, address model.PlayerID, gameID string) (model.PlayerAggregate, error)
	GameStats(ctx context.Context, gameID string) (model.GameStats, error)
	TotalGameStats(ctx context.Context, gameID string) (model.TotalGameStats, error)
	TotalPlayers(ctx context.Context, gameID string) (int, error)
	RecentPlayers(ctx context.Context, gameID string, limit int) ([]model.RankedEntry, error)
	BoardState(ctx context.Context) (model.BoardState, error)
	ClearCache()
}

// Service implements the API dependencies for the leaderboard engine.
// Every read degrades ledger failures to zero values so a flaky gateway
// hollows the board out instead of taking the service down.
type Service struct {
	mu sync.RWMutex

	// Core components
	querier   Querier
	signer    wallet.Signer
	pipeline  *submit.Pipeline
	refresher *refresh.Refresher

	// Configuration
	gatewayURL      string
	processID       string
	appName         string
	gameID          string
	cacheTTL        time.Duration
	refreshInterval time.Duration
	httpTimeout     time.Duration
	pageSize        int
	recentLimit     int
	maxPageSize     int

	// State
	started  bool
	player   model.PlayerID
	snapshot refresh.Snapshot
	hasSnap  bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithGatewayURL sets the ledger gateway base URL.
func WithGatewayURL(url string) Option {
	return func(s *Service) {
		if url != "" {
			s.gatewayURL = url
		}
	}
}

// WithProcessID sets the ledger process the service reads and writes.
func WithProcessID(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.processID = id
		}
	}
}

// WithAppName sets the application name stamped on dispatched records.
func WithAppName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.appName = name
		}
	}
}

// WithGameID sets the game the service serves.
func WithGameID(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.gameID = id
		}
	}
}

// WithCacheTTL sets how long ledger read results stay fresh.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithRefreshInterval sets the background refresh cadence.
func WithRefreshInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.refreshInterval = interval
		}
	}
}

// WithHTTPTimeout sets the per-request timeout for gateway calls.
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.httpTimeout = timeout
		}
	}
}

// WithPageSize sets the default leaderboard page size.
func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithRecentLimit sets how many recent submissions each snapshot carries.
func WithRecentLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.recentLimit = limit
		}
	}
}

// WithMaxPageSize caps the page size callers may request.
func WithMaxPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.maxPageSize = size
		}
	}
}

// WithSigner sets the wallet signer used for score submissions.
func WithSigner(signer wallet.Signer) Option {
	return func(s *Service) {
		if signer != nil {
			s.signer = signer
		}
	}
}

// WithQuerier replaces the ledger client, mainly for tests.
func WithQuerier(q Querier) Option {
	return func(s *Service) {
		if q != nil {
			s.querier = q
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		appName:         "arcboard",
		gameID:          "arcboard",
		cacheTTL:        5 * time.Second,
		refreshInterval: 10 * time.Second,
		httpTimeout:     10 * time.Second,
		pageSize:        10,
		recentLimit:     5,
		maxPageSize:     100,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components and begins background refresh.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting leaderboard engine...")

	if s.querier == nil {
		s.querier = ledger.New(s.gatewayURL, s.processID,
			ledger.WithHTTPClient(&http.Client{Timeout: s.httpTimeout}),
			ledger.WithCacheTTL(s.cacheTTL),
			ledger.WithLogger(s.logger),
		)
	}
	if s.signer == nil {
		s.signer = wallet.NewInMemorySigner()
	}

	s.pipeline = submit.New(s.processID,
		submit.WithAppName(s.appName),
		submit.WithLogger(s.logger),
	)
	s.refresher = refresh.New(s.querier,
		refresh.WithInterval(s.refreshInterval),
		refresh.WithPageSize(s.pageSize),
		refresh.WithRecentLimit(s.recentLimit),
		refresh.WithLogger(s.logger),
	)
	s.refresher.Activate(ctx, s.gameID, s.player, s.applySnapshot)

	s.started = true
	s.logger.Info(ctx, "leaderboard engine started",
		logger.String("gameID", s.gameID),
		logger.String("processID", s.processID),
		logger.Int("pageSize", s.pageSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping leaderboard engine...")

	if s.refresher != nil {
		s.refresher.Deactivate()
	}
	if s.signer != nil {
		_ = s.signer.Disconnect(ctx)
	}

	s.started = false
	s.logger.Info(ctx, "leaderboard engine stopped")
}

// applySnapshot stores the latest settled refresh pass.
func (s *Service) applySnapshot(snap refresh.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
	s.hasSnap = true
}

// Connect opens the wallet session and restarts the refresh loop with the
// active address so snapshots include that player's history.
func (s *Service) Connect(ctx context.Context) (model.PlayerID, error) {
	err := s.signer.Connect(ctx,
		wallet.PermAccessAddress,
		wallet.PermSignTransaction,
		wallet.PermDispatch,
	)
	if err != nil {
		return "", err
	}

	address, err := s.signer.ActiveAddress(ctx)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.player = address
	started := s.started
	s.mu.Unlock()

	if started {
		s.refresher.Activate(ctx, s.gameID, address, s.applySnapshot)
	}
	return address, nil
}

// Disconnect closes the wallet session and drops the player focus.
func (s *Service) Disconnect(ctx context.Context) error {
	err := s.signer.Disconnect(ctx)

	s.mu.Lock()
	s.player = ""
	started := s.started
	s.mu.Unlock()

	if started {
		s.refresher.Activate(ctx, s.gameID, "", s.applySnapshot)
	}
	return err
}

// TopPlayers returns one page of the ranked leaderboard. Ledger failures
// come back as an empty page.
func (s *Service) TopPlayers(ctx context.Context, gameID string, page, pageSize int) []model.RankedEntry {
	gameID = s.orDefaultGame(gameID)
	pageSize = s.clampPageSize(pageSize)
	entries, err := s.querier.TopPlayers(ctx, gameID, page, pageSize)
	if err != nil {
		s.logger.Warn(ctx, "top players query failed",
			logger.Int("page", page),
			logger.Any("error", err),
		)
		return []model.RankedEntry{}
	}
	return entries
}

// RecentPlayers returns the latest submissions, newest first. Ledger
// failures come back as an empty list.
func (s *Service) RecentPlayers(ctx context.Context, gameID string, limit int) []model.RankedEntry {
	gameID = s.orDefaultGame(gameID)
	if limit <= 0 {
		limit = s.recentLimit
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	entries, err := s.querier.RecentPlayers(ctx, gameID, limit)
	if err != nil {
		s.logger.Warn(ctx, "recent players query failed", logger.Any("error", err))
		return []model.RankedEntry{}
	}
	return entries
}

// PlayerHistory returns a player's aggregate. Ledger failures come back as
// a zero aggregate for the address.
func (s *Service) PlayerHistory(ctx context.Context, address model.PlayerID, gameID string) model.PlayerAggregate {
	agg, err := s.querier.PlayerHistory(ctx, address, s.orDefaultGame(gameID))
	if err != nil {
		s.logger.Warn(ctx, "player history query failed",
			logger.String("address", string(address)),
			logger.Any("error", err),
		)
		return model.PlayerAggregate{Address: address, Username: rank.AnonymousUsername}
	}
	return agg
}

// GameStats returns the per-game aggregate statistics, zeroed on failure.
func (s *Service) GameStats(ctx context.Context, gameID string) model.GameStats {
	stats, err := s.querier.GameStats(ctx, s.orDefaultGame(gameID))
	if err != nil {
		s.logger.Warn(ctx, "game stats query failed", logger.Any("error", err))
		return model.GameStats{}
	}
	return stats
}

// TotalGameStats returns the cross-game totals, zeroed on failure.
func (s *Service) TotalGameStats(ctx context.Context, gameID string) model.TotalGameStats {
	stats, err := s.querier.TotalGameStats(ctx, s.orDefaultGame(gameID))
	if err != nil {
		s.logger.Warn(ctx, "total game stats query failed", logger.Any("error", err))
		return model.TotalGameStats{}
	}
	return stats
}

// TotalPlayers returns the distinct player count, zero on failure.
func (s *Service) TotalPlayers(ctx context.Context, gameID string) int {
	count, err := s.querier.TotalPlayers(ctx, s.orDefaultGame(gameID))
	if err != nil {
		s.logger.Warn(ctx, "total players query failed", logger.Any("error", err))
		return 0
	}
	return count
}

// BoardState returns the ledger-side board state. Failures report an
// unlocked, empty board.
func (s *Service) BoardState(ctx context.Context) model.BoardState {
	state, err := s.querier.BoardState(ctx)
	if err != nil {
		s.logger.Warn(ctx, "board state query failed", logger.Any("error", err))
		return model.BoardState{}
	}
	return state
}

// SubmitScore signs and dispatches a score for the configured game.
// Validation and dispatch errors are returned to the caller; successful
// submissions invalidate the read cache and merge into the current
// snapshot so the board reflects the score before the next refresh pass.
func (s *Service) SubmitScore(ctx context.Context, gameID string, score int64, username string) (model.LedgerRef, error) {
	gameID = s.orDefaultGame(gameID)
	ref, err := s.pipeline.Submit(ctx, s.signer, gameID, score, username)
	if err != nil {
		return "", err
	}

	s.querier.ClearCache()

	address, addrErr := s.signer.ActiveAddress(ctx)
	if addrErr == nil {
		req := s.pipeline.Build(address, gameID, score, username)
		s.mu.Lock()
		if s.hasSnap {
			s.snapshot.Top = submit.Merge(s.snapshot.Top, req)
		}
		s.mu.Unlock()
	}

	return ref, nil
}

// Snapshot returns the last settled refresh snapshot, if any pass has
// completed yet.
func (s *Service) Snapshot() (refresh.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, s.hasSnap
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"gameID":          s.gameID,
		"pageSize":        s.pageSize,
		"recentLimit":     s.recentLimit,
		"refreshInterval": s.refreshInterval.String(),
		"cacheTTL":        s.cacheTTL.String(),
		"hasSnapshot":     s.hasSnap,
	}

	if s.hasSnap {
		stats["snapshotEpoch"] = s.snapshot.Epoch
		stats["snapshotTakenAt"] = s.snapshot.TakenAt
		stats["trackedPlayers"] = s.snapshot.Stats.TotalPlayers
	}
	if s.player != "" {
		stats["activePlayer"] = string(s.player)
	}

	return stats
}

func (s *Service) orDefaultGame(gameID string) string {
	if gameID == "" {
		return s.gameID
	}
	return gameID
}

func (s *Service) clampPageSize(size int) int {
	if size <= 0 {
		return s.pageSize
	}
	if size > s.maxPageSize {
		return s.maxPageSize
	}
	return size
}
