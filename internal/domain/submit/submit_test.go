package submit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/arcboard/internal/adapters/wallet"
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

func newSigner(opts ...wallet.Option) *wallet.InMemorySigner {
	base := []wallet.Option{
		wallet.WithAddress("wallet-abc"),
		wallet.WithLatencyRange(time.Millisecond, 2*time.Millisecond),
	}
	return wallet.NewInMemorySigner(append(base, opts...)...)
}

func TestSubmit(t *testing.T) {
	Convey("Given a submission pipeline and a connected signer", t, func() {
		ctx := context.Background()
		fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		pipeline := submit.New("proc-1",
			submit.WithAppName("arcade"),
			submit.WithClock(func() time.Time { return fixed }),
		)
		signer := newSigner()
		So(signer.Connect(ctx, wallet.PermAccessAddress, wallet.PermDispatch), ShouldBeNil)

		Convey("When submitting a valid score", func() {
			ref, err := pipeline.Submit(ctx, signer, "tetris", 420, "ana")

			Convey("Then the dispatch should succeed with a reference id", func() {
				So(err, ShouldBeNil)
				So(ref, ShouldNotBeEmpty)
			})

			Convey("And the dispatched message should carry the full tag set", func() {
				So(err, ShouldBeNil)
				dispatched := signer.Dispatched()
				So(dispatched, ShouldHaveLength, 1)

				msg := dispatched[0]
				So(msg.Target, ShouldEqual, "proc-1")
				So(msg.Data, ShouldEqual, "Submit score")

				tags := make(map[string]string, len(msg.Tags))
				for _, tag := range msg.Tags {
					tags[tag.Name] = tag.Value
				}
				So(tags["App-Name"], ShouldEqual, "arcade")
				So(tags["Type"], ShouldEqual, "game-score")
				So(tags["Action"], ShouldEqual, "submit-score")
				So(tags["Score"], ShouldEqual, "420")
				So(tags["GameId"], ShouldEqual, "tetris")
				So(tags["Username"], ShouldEqual, "ana")
				So(tags["WalletAddress"], ShouldEqual, "wallet-abc")
				So(tags["Timestamp"], ShouldEqual, fixed.Format(time.RFC3339))
			})
		})

		Convey("When submitting without a username", func() {
			_, err := pipeline.Submit(ctx, signer, "tetris", 10, "")

			Convey("Then the record should fall back to Anonymous", func() {
				So(err, ShouldBeNil)
				tags := signer.Dispatched()[0].Tags
				var username string
				for _, tag := range tags {
					if tag.Name == "Username" {
						username = tag.Value
					}
				}
				So(username, ShouldEqual, "Anonymous")
			})
		})

		Convey("When submitting a negative score", func() {
			_, err := pipeline.Submit(ctx, signer, "tetris", -1, "ana")

			Convey("Then validation should fail before the signer is touched", func() {
				So(errors.Is(err, submit.ErrInvalidScore), ShouldBeTrue)
				So(signer.Dispatched(), ShouldBeEmpty)
			})
		})

		Convey("When submitting without a game id", func() {
			_, err := pipeline.Submit(ctx, signer, "", 10, "ana")

			Convey("Then validation should fail before the signer is touched", func() {
				So(errors.Is(err, submit.ErrMissingGame), ShouldBeTrue)
				So(signer.Dispatched(), ShouldBeEmpty)
			})
		})

		Convey("When the signer is not connected", func() {
			cold := newSigner()

			_, err := pipeline.Submit(ctx, cold, "tetris", 10, "ana")

			Convey("Then the failure should surface as a SubmissionError", func() {
				var subErr *submit.SubmissionError
				So(errors.As(err, &subErr), ShouldBeTrue)
				So(subErr.GameID, ShouldEqual, "tetris")
				So(errors.Is(err, wallet.ErrNotConnected), ShouldBeTrue)
			})
		})

		Convey("When the signer rejects the dispatch", func() {
			declined := newSigner(wallet.WithDispatchError(errors.New("user declined")))
			So(declined.Connect(ctx, wallet.PermDispatch), ShouldBeNil)

			_, err := pipeline.Submit(ctx, declined, "tetris", 10, "ana")

			Convey("Then the rejection should wrap the wallet sentinel", func() {
				var subErr *submit.SubmissionError
				So(errors.As(err, &subErr), ShouldBeTrue)
				So(errors.Is(err, wallet.ErrRejected), ShouldBeTrue)
			})

			Convey("And the pipeline should not retry on its own", func() {
				So(declined.Dispatched(), ShouldBeEmpty)
			})
		})

		Convey("When a zero score is submitted", func() {
			_, err := pipeline.Submit(ctx, signer, "tetris", 0, "ana")

			Convey("Then it should be accepted", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestMerge(t *testing.T) {
	Convey("Given a held ranked view", t, func() {
		base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		view := []model.RankedEntry{
			{Rank: 1, Address: "addrB", Username: "bo", Score: 300, Timestamp: base, Tier: model.TierGold},
			{Rank: 2, Address: "addrA", Username: "ana", Score: 150, Timestamp: base.Add(time.Minute), Tier: model.TierSilver},
		}

		Convey("When merging a submission from a player already on the board", func() {
			merged := submit.Merge(view, model.SubmissionRequest{
				SignerAddress: "addrA",
				GameID:        "tetris",
				Score:         200,
				Username:      "ana",
				Timestamp:     base.Add(2 * time.Minute),
			})

			Convey("Then the player should move up with an updated total", func() {
				So(merged, ShouldHaveLength, 2)
				So(merged[0].Address, ShouldEqual, model.PlayerID("addrA"))
				So(merged[0].Score, ShouldEqual, 350)
				So(merged[0].Rank, ShouldEqual, 1)
				So(merged[0].Tier, ShouldEqual, model.TierGold)
				So(merged[1].Address, ShouldEqual, model.PlayerID("addrB"))
				So(merged[1].Rank, ShouldEqual, 2)
			})
		})

		Convey("When merging a submission from a new player", func() {
			merged := submit.Merge(view, model.SubmissionRequest{
				SignerAddress: "addrC",
				GameID:        "tetris",
				Score:         500,
				Username:      "cleo",
				Timestamp:     base.Add(2 * time.Minute),
			})

			Convey("Then the new player should join at the right rank", func() {
				So(merged, ShouldHaveLength, 3)
				So(merged[0].Address, ShouldEqual, model.PlayerID("addrC"))
				So(merged[0].Score, ShouldEqual, 500)
			})
		})

		Convey("When merging into an empty view", func() {
			merged := submit.Merge(nil, model.SubmissionRequest{
				SignerAddress: "addrC",
				Score:         10,
				Username:      "cleo",
				Timestamp:     base,
			})

			Convey("Then the submission should stand alone at rank one", func() {
				So(merged, ShouldHaveLength, 1)
				So(merged[0].Rank, ShouldEqual, 1)
				So(merged[0].Tier, ShouldEqual, model.TierGold)
			})
		})
	})
}
