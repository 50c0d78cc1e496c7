// Package catalog answers read-only questions over the player list: autocomplete,
// random vote triads and expert rankings.
package catalog

import (
	"cmp"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/okian/tradevalue/internal/domain/model"
)

const (
	// MinQueryLen is the shortest query Search answers.
	MinQueryLen = 2
	// SearchLimit caps the matches Search returns.
	SearchLimit = 5
	// TriadSize is the default number of players in a vote round.
	TriadSize = 3
)

// ErrNotEnoughPlayers is returned when Random is asked for more players than exist.
var ErrNotEnoughPlayers = errors.New("not enough players")

// Search returns up to SearchLimit players whose name or team contains query,
// ignoring case. Queries shorter than MinQueryLen match nothing.
func Search(players []model.Player, query string) []model.Player {
	q := strings.ToLower(strings.TrimSpace(query))
	if len([]rune(q)) < MinQueryLen {
		return nil
	}

	var out []model.Player
	for _, p := range players {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Team), q) {
			out = append(out, p)
			if len(out) == SearchLimit {
				break
			}
		}
	}
	return out
}

// Random picks count distinct players. A nil r uses the global source.
func Random(players []model.Player, count int, r *rand.Rand) ([]model.Player, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}
	if count > len(players) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrNotEnoughPlayers, count, len(players))
	}

	perm := rand.Perm
	if r != nil {
		perm = r.Perm
	}

	out := make([]model.Player, 0, count)
	for _, i := range perm(len(players))[:count] {
		out = append(out, players[i])
	}
	return out, nil
}

// Rankings returns the players carrying an expert rank, best first.
func Rankings(players []model.Player) []model.Player {
	var out []model.Player
	for _, p := range players {
		if p.Rank > 0 {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Player) int {
		return cmp.Compare(a.Rank, b.Rank)
	})
	return out
}
