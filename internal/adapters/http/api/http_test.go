package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/arcboard/internal/adapters/http/api"
	"github.com/okian/arcboard/internal/app/refresh"
	"github.com/okian/arcboard/internal/domain/model"
	"github.com/okian/arcboard/internal/domain/submit"
	"github.com/okian/arcboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// stubDeps implements api.Dependencies with canned values.
type stubDeps struct {
	top       []model.RankedEntry
	recent    []model.RankedEntry
	player    model.PlayerAggregate
	stats     model.GameStats
	totals    model.TotalGameStats
	count     int
	board     model.BoardState
	snapshot  refresh.Snapshot
	hasSnap   bool
	submitRef model.LedgerRef
	submitErr error

	lastGame  string
	lastScore int64
}

func (s *stubDeps) TopPlayers(ctx context.Context, gameID string, page, pageSize int) []model.RankedEntry {
	s.lastGame = gameID
	return s.top
}

func (s *stubDeps) RecentPlayers(ctx context.Context, gameID string, limit int) []model.RankedEntry {
	return s.recent
}

func (s *stubDeps) PlayerHistory(ctx context.Context, address model.PlayerID, gameID string) model.PlayerAggregate {
	agg := s.player
	agg.Address = address
	return agg
}

func (s *stubDeps) GameStats(ctx context.Context, gameID string) model.GameStats {
	return s.stats
}

func (s *stubDeps) TotalGameStats(ctx context.Context, gameID string) model.TotalGameStats {
	return s.totals
}

func (s *stubDeps) TotalPlayers(ctx context.Context, gameID string) int {
	return s.count
}

func (s *stubDeps) BoardState(ctx context.Context) model.BoardState {
	return s.board
}

func (s *stubDeps) SubmitScore(ctx context.Context, gameID string, score int64, username string) (model.LedgerRef, error) {
	s.lastGame = gameID
	s.lastScore = score
	if s.submitErr != nil {
		return "", s.submitErr
	}
	return s.submitRef, nil
}

func (s *stubDeps) Snapshot() (refresh.Snapshot, bool) {
	return s.snapshot, s.hasSnap
}

func (s *stubDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestMux(deps *stubDeps) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, deps, 100).Register(context.Background(), mux)
	return mux
}

func TestLeaderboardEndpoints(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &stubDeps{
			top: []model.RankedEntry{
				{Rank: 1, Address: "addrA", Username: "ana", Score: 300, Tier: model.TierGold},
			},
			recent: []model.RankedEntry{
				{Address: "addrB", Username: "bo", Score: 50},
			},
		}
		mux := newTestMux(deps)

		Convey("When fetching the leaderboard", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leaderboard?game=tetris&page=1&limit=10", nil))

			Convey("Then ranked entries should come back as JSON", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var entries []model.RankedEntry
				So(json.Unmarshal(rec.Body.Bytes(), &entries), ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].Tier, ShouldEqual, model.TierGold)
				So(deps.lastGame, ShouldEqual, "tetris")
			})
		})

		Convey("When fetching the leaderboard without parameters", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leaderboard", nil))

			Convey("Then defaults should apply", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When the limit exceeds the maximum", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leaderboard?limit=500", nil))

			Convey("Then the request should be rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(rec.Body.String(), ShouldContainSubstring, "limit_exceeded")
			})
		})

		Convey("When the page is not a number", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leaderboard?page=abc", nil))

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When posting to the leaderboard route", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/leaderboard", nil))

			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When fetching recent submissions", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recent?limit=5", nil))

			Convey("Then raw entries should come back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var entries []model.RankedEntry
				So(json.Unmarshal(rec.Body.Bytes(), &entries), ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].Rank, ShouldEqual, 0)
			})
		})
	})
}

func TestPlayerAndStatsEndpoints(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &stubDeps{
			player: model.PlayerAggregate{Username: "ana", TotalScore: 150, SubmissionCount: 2, BestScore: 100},
			stats:  model.GameStats{TotalScore: 450, TotalPlayers: 2, SubmissionCount: 3},
			totals: model.TotalGameStats{TotalGames: 3, TotalPlayers: 10, TotalScore: 9000},
			count:  10,
			board:  model.BoardState{Locked: true, ScoreCount: 7},
		}
		mux := newTestMux(deps)

		Convey("When fetching a player's history", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/players/addrA?game=tetris", nil))

			Convey("Then the aggregate should come back for that address", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var agg model.PlayerAggregate
				So(json.Unmarshal(rec.Body.Bytes(), &agg), ShouldBeNil)
				So(agg.Address, ShouldEqual, model.PlayerID("addrA"))
				So(agg.TotalScore, ShouldEqual, 150)
			})
		})

		Convey("When the player address is missing", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/players/", nil))

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When fetching game stats", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats?game=tetris", nil))

			Convey("Then the totals should come back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var stats model.GameStats
				So(json.Unmarshal(rec.Body.Bytes(), &stats), ShouldBeNil)
				So(stats.TotalPlayers, ShouldEqual, 2)
			})
		})

		Convey("When fetching global stats", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats/global", nil))

			Convey("Then totals, player count and board state should bundle", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var resp struct {
					Totals       model.TotalGameStats `json:"totals"`
					TotalPlayers int                  `json:"totalPlayers"`
					Board        model.BoardState     `json:"board"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Totals.TotalGames, ShouldEqual, 3)
				So(resp.TotalPlayers, ShouldEqual, 10)
				So(resp.Board.Locked, ShouldBeTrue)
			})
		})

		Convey("When probing the health endpoint", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			Convey("Then it should answer ok with introspection data", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"status":"ok"`)
				So(rec.Body.String(), ShouldContainSubstring, `"started":true`)
			})
		})

		Convey("When scraping metrics", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			So(rec.Code, ShouldEqual, http.StatusOK)
		})
	})
}

func TestSnapshotEndpoint(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &stubDeps{}
		mux := newTestMux(deps)

		Convey("When no refresh pass has settled", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot", nil))

			So(rec.Code, ShouldEqual, http.StatusNoContent)
		})

		Convey("When a snapshot is available", func() {
			deps.hasSnap = true
			deps.snapshot = refresh.Snapshot{
				Epoch:   3,
				Top:     []model.RankedEntry{{Rank: 1, Address: "addrA", Score: 100}},
				TakenAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			}

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot", nil))

			Convey("Then the whole snapshot should come back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var snap refresh.Snapshot
				So(json.Unmarshal(rec.Body.Bytes(), &snap), ShouldBeNil)
				So(snap.Epoch, ShouldEqual, 3)
				So(snap.Top, ShouldHaveLength, 1)
			})
		})
	})
}

func TestScoresEndpoint(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &stubDeps{submitRef: "ref-123"}
		mux := newTestMux(deps)

		post := func(body string) *httptest.ResponseRecorder {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/scores", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			mux.ServeHTTP(rec, req)
			return rec
		}

		Convey("When submitting a valid score", func() {
			rec := post(`{"game_id":"tetris","score":420,"username":"ana"}`)

			Convey("Then the dispatch reference should come back as 202", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(rec.Body.String(), ShouldContainSubstring, "ref-123")
				So(deps.lastGame, ShouldEqual, "tetris")
				So(deps.lastScore, ShouldEqual, 420)
			})
		})

		Convey("When the body is not JSON", func() {
			rec := post(`{not json`)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When validation rejects the score", func() {
			deps.submitErr = submit.ErrInvalidScore

			rec := post(`{"game_id":"tetris","score":-5}`)

			Convey("Then the API should answer 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(rec.Body.String(), ShouldContainSubstring, "invalid_score")
			})
		})

		Convey("When the signer rejects the submission", func() {
			deps.submitErr = &submit.SubmissionError{GameID: "tetris", Err: context.DeadlineExceeded}

			rec := post(`{"game_id":"tetris","score":10}`)

			Convey("Then the API should answer 502", func() {
				So(rec.Code, ShouldEqual, http.StatusBadGateway)
				So(rec.Body.String(), ShouldContainSubstring, "submission_failed")
			})
		})

		Convey("When fetching scores with GET", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scores", nil))

			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
