// Package ledger implements the read side of the leaderboard: queries
// against the external append-only ledger, deduplicated through a TTL
// request cache so bursts of identical lookups cost one round-trip.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/okian/arcboard/internal/domain/model"
	"github.com/okian/arcboard/internal/domain/rank"
	"github.com/okian/arcboard/pkg/cache"
	"github.com/okian/arcboard/pkg/logger"
	"github.com/okian/arcboard/pkg/metrics"
)

// Default client configuration constants.
const (
	// DefaultCacheTTL bounds how long read results are reused.
	DefaultCacheTTL = 5 * time.Second

	// defaultHistorySort is the sort order requested for player history.
	defaultHistorySort = "timestamp"
)

// Client exposes the ledger's read operations. Each operation owns a cache
// line keyed on the operation name and its parameters; a fresh entry short-
// circuits the remote query entirely.
type Client struct {
	transport *transport
	cacheTTL  time.Duration
	logger    logger.Logger

	topCache     *cache.Cache[[]model.RankedEntry]
	historyCache *cache.Cache[model.PlayerAggregate]
	statsCache   *cache.Cache[model.GameStats]
	recentCache  *cache.Cache[[]model.RankedEntry]
	totalsCache  *cache.Cache[model.TotalGameStats]
	countCache   *cache.Cache[int]
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for gateway round-trips.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.transport.client = client
		}
	}
}

// WithCacheTTL overrides the shared TTL applied to every cache line.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a ledger client for the process behind the gateway at baseURL.
func New(baseURL, processID string, opts ...Option) *Client {
	c := &Client{
		transport: &transport{
			baseURL:   baseURL,
			processID: processID,
			client:    http.DefaultClient,
		},
		cacheTTL: DefaultCacheTTL,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logger.Get().Named("ledger")
	}

	ttl := c.cacheTTL
	c.topCache = cache.New(cache.WithTTL[[]model.RankedEntry](ttl))
	c.historyCache = cache.New(cache.WithTTL[model.PlayerAggregate](ttl))
	c.statsCache = cache.New(cache.WithTTL[model.GameStats](ttl))
	c.recentCache = cache.New(cache.WithTTL[[]model.RankedEntry](ttl))
	c.totalsCache = cache.New(cache.WithTTL[model.TotalGameStats](ttl))
	c.countCache = cache.New(cache.WithTTL[int](ttl))

	return c
}

// TopPlayers returns at most pageSize ranked entries for gameID starting at
// the 1-based page. The full record set is fetched, grouped and ranked
// locally, then paged: per-player aggregation needs every record, so
// server-side paging tags are never sent — a process that honored them
// would hand back a pre-sliced window and the page would be cut twice.
// One cache line per game serves every page within the TTL.
func (c *Client) TopPlayers(ctx context.Context, gameID string, page, pageSize int) ([]model.RankedEntry, error) {
	key := fmt.Sprintf("topPlayers-%s", gameID)
	ranked, err := cached(ctx, c.topCache, key, func(ctx context.Context) ([]model.RankedEntry, error) {
		data, err := c.transport.query(ctx, actionTopPlayers, []Tag{
			{Name: "GameId", Value: gameID},
		})
		if err != nil {
			return nil, err
		}

		records, err := decodeRecordList(data)
		if err != nil {
			return nil, newQueryError(actionTopPlayers, err)
		}

		return rank.Rank(rank.Collect(rank.Aggregate(records))), nil
	})
	if err != nil {
		return nil, err
	}
	return rank.Page(ranked, page, pageSize), nil
}

// PlayerHistory returns the aggregate of every record one address has
// written, optionally scoped to gameID (empty means all games). An address
// with no records yields a zero-valued aggregate, not an error.
func (c *Client) PlayerHistory(ctx context.Context, address model.PlayerID, gameID string) (model.PlayerAggregate, error) {
	key := fmt.Sprintf("playerHistory-%s-%s", address, gameID)
	return cached(ctx, c.historyCache, key, func(ctx context.Context) (model.PlayerAggregate, error) {
		tags := []Tag{
			{Name: "WalletAddress", Value: string(address)},
			{Name: "SortBy", Value: defaultHistorySort},
		}
		if gameID != "" {
			tags = append(tags, Tag{Name: "GameId", Value: gameID})
		}

		data, err := c.transport.query(ctx, actionPlayerHistory, tags)
		if err != nil {
			return model.PlayerAggregate{}, err
		}

		records, err := decodeRecordMap(data)
		if err != nil {
			return model.PlayerAggregate{}, newQueryError(actionPlayerHistory, err)
		}

		return historyAggregate(address, records), nil
	})
}

// historyAggregate reduces history records into one aggregate. History
// payloads omit the wallet address per record, so it is stamped from the
// query argument before aggregation.
func historyAggregate(address model.PlayerID, records []model.ScoreRecord) model.PlayerAggregate {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	for i := range records {
		records[i].Address = address
	}

	aggregates := rank.Aggregate(records)
	if agg, ok := aggregates[address]; ok {
		return *agg
	}
	return model.PlayerAggregate{Address: address, Username: rank.AnonymousUsername}
}

// GameStats returns the ledger-computed totals for one game.
func (c *Client) GameStats(ctx context.Context, gameID string) (model.GameStats, error) {
	key := fmt.Sprintf("gameStats-%s", gameID)
	return cached(ctx, c.statsCache, key, func(ctx context.Context) (model.GameStats, error) {
		data, err := c.transport.query(ctx, actionGameStats, []Tag{{Name: "GameId", Value: gameID}})
		if err != nil {
			return model.GameStats{}, err
		}

		var stats model.GameStats
		if err := decodeInto(data, &stats); err != nil {
			return model.GameStats{}, newQueryError(actionGameStats, err)
		}
		return stats, nil
	})
}

// TotalGameStats returns totals across all games the process tracks.
func (c *Client) TotalGameStats(ctx context.Context, gameID string) (model.TotalGameStats, error) {
	key := fmt.Sprintf("totalStats-%s", gameID)
	return cached(ctx, c.totalsCache, key, func(ctx context.Context) (model.TotalGameStats, error) {
		data, err := c.transport.query(ctx, actionGameStats, []Tag{{Name: "GameId", Value: gameID}})
		if err != nil {
			return model.TotalGameStats{}, err
		}

		var stats model.TotalGameStats
		if err := decodeInto(data, &stats); err != nil {
			return model.TotalGameStats{}, newQueryError(actionGameStats, err)
		}
		return stats, nil
	})
}

// TotalPlayers returns the number of distinct players for one game.
func (c *Client) TotalPlayers(ctx context.Context, gameID string) (int, error) {
	key := fmt.Sprintf("totalPlayers-%s", gameID)
	return cached(ctx, c.countCache, key, func(ctx context.Context) (int, error) {
		data, err := c.transport.query(ctx, actionTotalPlayers, []Tag{{Name: "GameId", Value: gameID}})
		if err != nil {
			return 0, err
		}

		var out struct {
			TotalPlayers int `json:"totalPlayers"`
		}
		if err := decodeInto(data, &out); err != nil {
			return 0, newQueryError(actionTotalPlayers, err)
		}
		return out.TotalPlayers, nil
	})
}

// RecentPlayers returns the newest raw submissions for gameID, most recent
// first. Entries are not grouped by address and carry no rank or tier.
func (c *Client) RecentPlayers(ctx context.Context, gameID string, limit int) ([]model.RankedEntry, error) {
	key := fmt.Sprintf("recentPlayers-%s-%d", gameID, limit)
	return cached(ctx, c.recentCache, key, func(ctx context.Context) ([]model.RankedEntry, error) {
		data, err := c.transport.query(ctx, actionRecentPlayers, []Tag{
			{Name: "GameId", Value: gameID},
			{Name: "Limit", Value: fmt.Sprint(limit)},
		})
		if err != nil {
			return nil, err
		}

		records, err := decodeRecordMap(data)
		if err != nil {
			return nil, newQueryError(actionRecentPlayers, err)
		}

		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Timestamp.After(records[j].Timestamp)
		})
		if limit > 0 && len(records) > limit {
			records = records[:limit]
		}

		entries := make([]model.RankedEntry, len(records))
		for i, r := range records {
			username := r.Username
			if username == "" {
				username = rank.AnonymousUsername
			}
			entries[i] = model.RankedEntry{
				Address:   r.Address,
				Username:  username,
				Score:     r.Score,
				Timestamp: r.Timestamp,
			}
		}
		return entries, nil
	})
}

// BoardState returns the ledger-side leaderboard state. It is deliberately
// uncached: lock transitions must be visible before the next TTL expiry.
func (c *Client) BoardState(ctx context.Context) (model.BoardState, error) {
	data, err := c.transport.query(ctx, actionBoardState, nil)
	if err != nil {
		return model.BoardState{}, err
	}

	var state model.BoardState
	if err := decodeInto(data, &state); err != nil {
		return model.BoardState{}, newQueryError(actionBoardState, err)
	}
	return state, nil
}

// ClearCache drops every cached read result. Used after a confirmed
// submission when the caller wants the next read to hit the ledger.
func (c *Client) ClearCache() {
	c.topCache.Clear()
	c.historyCache.Clear()
	c.statsCache.Clear()
	c.recentCache.Clear()
	c.totalsCache.Clear()
	c.countCache.Clear()
}

// cached routes compute through one cache line, recording hit/miss metrics.
func cached[T any](ctx context.Context, c *cache.Cache[T], key string, compute func(context.Context) (T, error)) (T, error) {
	missed := false
	value, err := c.GetOrCompute(ctx, key, func(ctx context.Context) (T, error) {
		missed = true
		metrics.RecordCacheMiss()
		return compute(ctx)
	})
	if !missed && err == nil {
		metrics.RecordCacheHit()
	}
	return value, err
}

// decodeInto unmarshals an envelope payload, folding the error into the
// malformed-response kind.
func decodeInto(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}
