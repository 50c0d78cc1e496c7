package model

import "time"

// RoundBallot is one vote of a submitted round. The player's value is read from
// the store when the round is applied, not taken from the client.
type RoundBallot struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Vote string `json:"vote"`
}

// Round is a vote round waiting to be applied.
type Round struct {
	ID          string        `json:"round_id"`
	Ballots     []RoundBallot `json:"ballots"`
	SubmittedAt time.Time     `json:"submitted_at"`
}

// RoundStatus is the processing state of a round.
type RoundStatus string

// Round states.
const (
	RoundPending RoundStatus = "pending"
	RoundApplied RoundStatus = "applied"
	RoundFailed  RoundStatus = "failed"
)

// RoundResult is what clients see when they poll a round.
type RoundResult struct {
	ID           string        `json:"round_id"`
	Status       RoundStatus   `json:"status"`
	Updates      []ValueUpdate `json:"updates,omitempty"`
	UpdatedCount int           `json:"updated_count"`
	Error        string        `json:"error,omitempty"`
	SubmittedAt  time.Time     `json:"submitted_at"`
	FinishedAt   *time.Time    `json:"finished_at,omitempty"`
}
