package simulate

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/okian/tradevalue/pkg/logger"
)

// ErrInconsistent is returned when the leaderboard disagrees with itself or
// with the per-player rank endpoint.
var ErrInconsistent = errors.New("inconsistent leaderboard")

// awaitRounds polls every accepted round until none is pending or settle
// elapses.
func awaitRounds(ctx context.Context, cfg *Config, client *Client, ids []string, stats *Stats) error {
	deadline := time.Now().Add(cfg.Settle)
	pending := ids
	for {
		var still []string
		for _, id := range pending {
			st, err := getJSON[RoundStatus](ctx, client, "/votes/"+url.PathEscape(id))
			if err != nil {
				return fmt.Errorf("round %s: %w", id, err)
			}
			switch st.Status {
			case "applied":
				stats.RoundsApplied++
			case "failed":
				stats.RoundsRejected++
				if cfg.Verbose {
					logger.Get().Warn(ctx, "round failed",
						logger.String("roundID", id),
						logger.String("reason", st.Error))
				}
			default:
				still = append(still, id)
			}
		}
		pending = still
		stats.RoundsPending = len(pending)
		if len(pending) == 0 || time.Now().After(deadline) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// verifyLeaderboard fetches the top entries and checks ordering, rank
// numbering and agreement with GET /rank/{id}.
func verifyLeaderboard(ctx context.Context, cfg *Config, client *Client, stats *Stats) ([]Entry, error) {
	entries, err := getJSON[[]Entry](ctx, client, "/leaderboard?limit="+strconv.Itoa(cfg.TopN))
	if err != nil {
		return nil, err
	}
	stats.LeaderboardEntries = len(entries)
	if err := checkOrdering(entries); err != nil {
		return entries, err
	}
	if len(entries) > 0 {
		top := entries[0]
		got, err := getJSON[Entry](ctx, client, "/rank/"+url.PathEscape(top.ID))
		if err != nil {
			return entries, err
		}
		if got.Rank != top.Rank || got.Value != top.Value {
			return entries, fmt.Errorf("%w: leaderboard has %s at #%d (%d), rank endpoint says #%d (%d)",
				ErrInconsistent, top.ID, top.Rank, top.Value, got.Rank, got.Value)
		}
	}
	return entries, nil
}

// checkOrdering expects dense ranks: equal values share a rank and the next
// lower value takes the following one.
func checkOrdering(entries []Entry) error {
	for i, e := range entries {
		if i == 0 {
			if e.Rank != 1 {
				return fmt.Errorf("%w: top entry has rank %d", ErrInconsistent, e.Rank)
			}
			continue
		}
		prev := entries[i-1]
		switch {
		case e.Value > prev.Value:
			return fmt.Errorf("%w: %s (%d) ranked below %s (%d)",
				ErrInconsistent, e.ID, e.Value, prev.ID, prev.Value)
		case e.Value == prev.Value && e.Rank != prev.Rank:
			return fmt.Errorf("%w: %s and %s share a value but not a rank", ErrInconsistent, e.ID, prev.ID)
		case e.Value < prev.Value && e.Rank != prev.Rank+1:
			return fmt.Errorf("%w: %s has rank %d after rank %d", ErrInconsistent, e.ID, e.Rank, prev.Rank)
		}
	}
	return nil
}
