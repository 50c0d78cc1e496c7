package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tradevalue/internal/adapters/http/api"
	"github.com/okian/tradevalue/internal/adapters/repository"
	service "github.com/okian/tradevalue/internal/app"
	"github.com/okian/tradevalue/internal/domain/model"
	"github.com/okian/tradevalue/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithLevel("error")); err != nil {
		panic(err)
	}
}

func catalog() []model.Player {
	return []model.Player{
		{ID: "p1", Name: "One", Value: 9000},
		{ID: "p2", Name: "Two", Value: 8500},
		{ID: "p3", Name: "Three", Value: 8000},
		{ID: "p4", Name: "Four", Value: 7000},
		{ID: "p5", Name: "Five", Value: 6000},
		{ID: "p6", Name: "Six", Value: 5000},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := repository.NewMemoryStore(catalog())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	svc := service.New(store, service.WithQueueSize(1024))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	srv := api.NewServer(svc)
	mux := http.NewServeMux()
	srv.Register(context.Background(), mux)
	ts := httptest.NewServer(srv.Handler(mux))
	t.Cleanup(func() {
		ts.Close()
		_ = svc.Stop(context.Background())
	})
	return ts
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		ts := newTestServer(t)
		out := filepath.Join(t.TempDir(), "out", "rounds.json")

		Convey("A seeded simulation applies every round and sees a consistent leaderboard", func() {
			stats, err := Run(context.Background(), Config{
				BaseURL:    ts.URL,
				Rounds:     40,
				Duplicates: 5,
				TopN:       4,
				Workers:    4,
				Timeout:    5 * time.Second,
				Settle:     10 * time.Second,
				Seed:       7,
				OutputFile: out,
			})
			So(err, ShouldBeNil)
			So(stats.PlayersLoaded, ShouldEqual, 6)
			So(stats.RoundsGenerated, ShouldEqual, 40)
			So(stats.RoundsSubmitted, ShouldEqual, 45)
			So(stats.RoundsAccepted, ShouldEqual, 40)
			So(stats.RoundsDuplicate, ShouldEqual, 5)
			So(stats.RoundsFailed, ShouldEqual, 0)
			So(stats.RoundsApplied, ShouldEqual, 40)
			So(stats.RoundsRejected, ShouldEqual, 0)
			So(stats.RoundsPending, ShouldEqual, 0)
			So(stats.LeaderboardEntries, ShouldEqual, 4)

			data, err := os.ReadFile(out)
			So(err, ShouldBeNil)
			var saved []Round
			So(json.Unmarshal(data, &saved), ShouldBeNil)
			So(saved, ShouldHaveLength, 40)
		})
	})

	Convey("Given no service", t, func() {
		ts := httptest.NewServer(http.NotFoundHandler())
		url := ts.URL
		ts.Close()

		Convey("Run fails the health check", func() {
			_, err := Run(context.Background(), Config{BaseURL: url, Rounds: 1, Timeout: time.Second})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestGenerateRounds(t *testing.T) {
	Convey("Given a small catalog", t, func() {
		rng := rand.New(rand.NewPCG(1, 2))
		players := []Player{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}

		Convey("Each round votes three distinct players once per tier", func() {
			rounds, err := generateRounds(context.Background(), rng, players, 25)
			So(err, ShouldBeNil)
			So(rounds, ShouldHaveLength, 25)
			for _, r := range rounds {
				So(r.RoundID, ShouldNotBeEmpty)
				So(r.Ballots, ShouldHaveLength, 3)
				ids := map[string]bool{}
				votes := map[string]bool{}
				for _, b := range r.Ballots {
					ids[b.ID] = true
					votes[b.Vote] = true
				}
				So(ids, ShouldHaveLength, 3)
				So(votes, ShouldHaveLength, 3)
			}
		})

		Convey("Two players are not enough", func() {
			_, err := generateRounds(context.Background(), rng, players[:2], 1)
			So(err, ShouldEqual, ErrNotEnoughPlayers)
		})

		Convey("Duplicates reuse ids already generated", func() {
			rounds, _ := generateRounds(context.Background(), rng, players, 3)
			batch := withDuplicates(rng, rounds, 4)
			So(batch, ShouldHaveLength, 7)
			known := map[string]bool{}
			for _, r := range rounds {
				known[r.RoundID] = true
			}
			for _, r := range batch[3:] {
				So(known[r.RoundID], ShouldBeTrue)
			}
		})
	})
}

func TestCheckOrdering(t *testing.T) {
	Convey("Leaderboard ordering", t, func() {
		Convey("Dense ranks with a tie pass", func() {
			err := checkOrdering([]Entry{
				{Rank: 1, ID: "a", Value: 9000},
				{Rank: 2, ID: "b", Value: 8000},
				{Rank: 2, ID: "c", Value: 8000},
				{Rank: 3, ID: "d", Value: 7000},
			})
			So(err, ShouldBeNil)
		})

		Convey("A higher value below a lower one fails", func() {
			err := checkOrdering([]Entry{{Rank: 1, ID: "a", Value: 10}, {Rank: 2, ID: "b", Value: 20}})
			So(errors.Is(err, ErrInconsistent), ShouldBeTrue)
		})

		Convey("A skipped rank fails", func() {
			err := checkOrdering([]Entry{{Rank: 1, ID: "a", Value: 20}, {Rank: 3, ID: "b", Value: 10}})
			So(errors.Is(err, ErrInconsistent), ShouldBeTrue)
		})

		Convey("An empty leaderboard passes", func() {
			So(checkOrdering(nil), ShouldBeNil)
		})
	})
}

func TestConfigDefaults(t *testing.T) {
	Convey("Zero config gets defaults", t, func() {
		c := Config{Duplicates: -3}.withDefaults()
		So(c.BaseURL, ShouldEqual, DefaultBaseURL)
		So(c.Rounds, ShouldEqual, DefaultRounds)
		So(c.Duplicates, ShouldEqual, 0)
		So(c.TopN, ShouldEqual, DefaultTopN)
		So(c.Workers, ShouldBeGreaterThan, 0)
		So(c.Timeout, ShouldEqual, DefaultTimeout)
		So(c.Settle, ShouldEqual, DefaultSettle)
	})
}
