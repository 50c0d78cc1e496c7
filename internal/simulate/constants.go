package simulate

import "time"

// Defaults used when the Config leaves a field zero.
const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultRounds  = 1000
	DefaultTopN    = 10
	DefaultTimeout = 10 * time.Second
	DefaultSettle  = 30 * time.Second
)

// Tuning for the submit and poll loops.
const (
	workerChannelMultiplier = 2
	ballotsPerRound         = 3
	maxBackpressureRetries  = 5
	backpressureDelay       = 50 * time.Millisecond
	pollInterval            = 100 * time.Millisecond
	percentageMultiplier    = 100
)

// Submission outcomes.
const (
	outcomeAccepted     = "accepted"
	outcomeDuplicate    = "duplicate"
	outcomeBackpressure = "backpressure"
	outcomeFailed       = "failed"
)

var voteTiers = [ballotsPerRound]string{"Start", "Bench", "Cut"}
