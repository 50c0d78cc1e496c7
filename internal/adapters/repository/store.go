// Package repository holds the authoritative player values together with value
// snapshots and trade submissions.
package repository

import (
	"context"

	"github.com/okian/tradevalue/internal/domain/model"
)

// Entry is a leaderboard row: a player and its dense rank by value.
type Entry struct {
	Rank     int    `json:"rank"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	Value    int    `json:"value"`
	Team     string `json:"team,omitempty"`
	Position string `json:"position,omitempty"`
}

func entryOf(rank int, p model.Player) Entry {
	return Entry{Rank: rank, ID: p.ID, Name: p.Name, Value: p.Value, Team: p.Team, Position: p.Position}
}

// ApplyResult reports how many updates matched a stored player.
type ApplyResult struct {
	UpdatedCount int `json:"updatedCount"`
}

// Store provides read/write access to the player values.
type Store interface {
	// All returns every player in catalog order.
	All(ctx context.Context) ([]model.Player, error)
	// Get returns a player by id or ErrNotFound.
	Get(ctx context.Context, id string) (model.Player, error)
	// Resolve looks a player up by id, falling back to an exact name match.
	Resolve(ctx context.Context, ref model.PlayerRef) (model.Player, error)
	// ApplyUpdates writes NewValue of each update to the player matched by id,
	// or by name when the id is unknown. Unmatched updates are skipped.
	ApplyUpdates(ctx context.Context, updates []model.ValueUpdate) (ApplyResult, error)
	// Seed inserts players whose id is not stored yet and returns how many were added.
	Seed(ctx context.Context, players []model.Player) (int, error)

	// TopN returns the n most valuable players.
	TopN(ctx context.Context, n int) ([]Entry, error)
	// Rank returns the leaderboard row of a player.
	Rank(ctx context.Context, id string) (Entry, error)
	// Count returns the number of players.
	Count(ctx context.Context) int

	// SaveSnapshot stores snap, replacing any snapshot of the same day.
	SaveSnapshot(ctx context.Context, snap model.Snapshot) error
	// SnapshotDays lists stored snapshot days, oldest first.
	SnapshotDays(ctx context.Context) ([]string, error)
	// Snapshot returns the snapshot of day or ErrNoSnapshot.
	Snapshot(ctx context.Context, day string) (model.Snapshot, error)

	// AddSubmission records a trade submission and returns the running total.
	AddSubmission(ctx context.Context, s model.Submission) (int, error)
	// Submissions returns up to limit submissions, newest first.
	Submissions(ctx context.Context, limit int) ([]model.Submission, error)

	Close() error
}
