// Package model contains domain models passed between layers.
package model

import "time"

// Player is a rated entity: a catalog entry carrying a scalar trade value.
type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Value    int    `json:"value"`
	Team     string `json:"team,omitempty"`
	Position string `json:"position,omitempty"`
	Age      string `json:"age,omitempty"`
	Hand     string `json:"hand,omitempty"`
	Number   string `json:"number,omitempty"`
	Headshot string `json:"headshot,omitempty"`
	Rank     int    `json:"rank,omitempty"` // expert ranking, 0 when unranked
}

// PlayerRef identifies a player by id, with the name as a fallback key.
type PlayerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Ref returns the reference used to look the player up again.
func (p Player) Ref() PlayerRef {
	return PlayerRef{ID: p.ID, Name: p.Name}
}

// ValueUpdate is the outcome of a voting round for one player.
type ValueUpdate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	OldValue int    `json:"oldValue"`
	NewValue int    `json:"newValue"`
}

// Delta returns NewValue - OldValue.
func (u ValueUpdate) Delta() int {
	return u.NewValue - u.OldValue
}

// Snapshot is a point-in-time copy of every player's value.
type Snapshot struct {
	Day     string    `json:"day"` // YYYY-MM-DD
	TakenAt time.Time `json:"taken_at"`
	Players []Player  `json:"players"`
}

// SnapshotDayLayout is the time layout of Snapshot.Day.
const SnapshotDayLayout = "2006-01-02"

// Submission records a trade proposal a user submitted for evaluation.
type Submission struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	SideA      []string  `json:"side_a"`
	SideB      []string  `json:"side_b"`
	Status     string    `json:"status"`
	FinalA     int       `json:"final_a"`
	FinalB     int       `json:"final_b"`
	Difference int       `json:"difference"`
}

// Mover describes how a player's value moved against a baseline snapshot.
type Mover struct {
	Player
	OldValue      int     `json:"old_value"`
	Change        int     `json:"change"`
	PercentChange float64 `json:"percent_change"`
}
