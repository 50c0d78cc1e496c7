// Package movers compares current player values with a baseline snapshot to find
// risers and fallers.
package movers

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/okian/tradevalue/internal/domain/model"
)

// DefaultWindowDays is how far back the baseline snapshot is looked for.
const DefaultWindowDays = 30

// Order selects the sort direction of Compare.
type Order string

// Orders.
const (
	Risers  Order = "risers"
	Fallers Order = "fallers"
)

// ParseOrder parses "risers" or "fallers"; empty means Risers.
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case "", Risers:
		return Risers, nil
	case Fallers:
		return Fallers, nil
	default:
		return "", fmt.Errorf("unknown sort order %q", s)
	}
}

// Baseline picks the baseline day: the oldest snapshot taken within windowDays of
// now, or the oldest snapshot at all when none is that recent. ok is false when
// days is empty.
func Baseline(days []string, now time.Time, windowDays int) (day string, ok bool) {
	if len(days) == 0 {
		return "", false
	}
	sorted := slices.Clone(days)
	slices.Sort(sorted)

	cutoff := now.AddDate(0, 0, -windowDays).Format(model.SnapshotDayLayout)
	for _, d := range sorted {
		if d >= cutoff {
			return d, true
		}
	}
	return sorted[0], true
}

// Compare returns one Mover per current player present in baseline, filtered by
// position when it is not empty or "all", ordered by change.
func Compare(current, baseline []model.Player, position string, order Order) []model.Mover {
	old := make(map[string]int, len(baseline))
	for _, p := range baseline {
		old[p.ID] = p.Value
	}

	filter := position != "" && !strings.EqualFold(position, "all")
	var out []model.Mover
	for _, p := range current {
		was, ok := old[p.ID]
		if !ok {
			continue
		}
		if filter && !strings.EqualFold(p.Position, position) {
			continue
		}
		change := p.Value - was
		out = append(out, model.Mover{
			Player:        p,
			OldValue:      was,
			Change:        change,
			PercentChange: percent(change, was),
		})
	}

	slices.SortStableFunc(out, func(a, b model.Mover) int {
		if order == Fallers {
			return cmp.Compare(a.Change, b.Change)
		}
		return cmp.Compare(b.Change, a.Change)
	})
	return out
}

// percent is change relative to base, rounded to one decimal. A zero base has no
// meaningful ratio and reports 0.
func percent(change, base int) float64 {
	if base == 0 {
		return 0
	}
	return math.Round(float64(change)/float64(base)*1000) / 10
}
