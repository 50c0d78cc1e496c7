// Package simulate drives a running trade-value service with synthetic vote
// rounds and checks the resulting leaderboard.
package simulate

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Rounds     int           // Number of vote rounds to submit
	Duplicates int           // Rounds resubmitted with an id already sent
	TopN       int           // Leaderboard size to verify
	Workers    int           // Number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Settle     time.Duration // How long to wait for rounds to be applied
	Seed       uint64        // Seed for round generation, 0 picks one
	OutputFile string        // Where to write the generated rounds, empty to skip
	Verbose    bool
}

// Ballot is one vote of a generated round.
type Ballot struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Vote string `json:"vote"`
}

// Round is the POST /votes request body.
type Round struct {
	RoundID string   `json:"round_id"`
	Ballots []Ballot `json:"ballots"`
}

// Player is the subset of the catalog the simulator needs.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Entry is a leaderboard row.
type Entry struct {
	Rank  int    `json:"rank"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// AckResponse is the POST /votes reply.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	RoundID   string `json:"round_id"`
}

// RoundStatus is the GET /votes/{round_id} reply.
type RoundStatus struct {
	RoundID string `json:"round_id"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// Stats holds run statistics.
type Stats struct {
	PlayersLoaded      int
	RoundsGenerated    int
	RoundsSubmitted    int
	RoundsAccepted     int
	RoundsDuplicate    int
	RoundsBackpressure int
	RoundsFailed       int
	RoundsApplied      int
	RoundsRejected     int
	RoundsPending      int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
