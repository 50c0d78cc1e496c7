package simulate

import (
	"io"
)

// ShowHelp prints usage information for the simulator.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Trade Value Vote Simulator
==========================

Submits random three-player vote rounds to a running service, waits for them
to be applied and checks the leaderboard afterwards.

Usage:
  simulate [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -rounds int
        Number of vote rounds to submit (default 1000)
  -duplicates int
        Extra submissions reusing an earlier round id (default 0)
  -top int
        Leaderboard size to verify (default 10)
  -workers int
        Number of concurrent submitters (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 10s)
  -settle duration
        How long to wait for rounds to be applied (default 30s)
  -seed uint
        Seed for round generation (default random)
  -output string
        Write the generated rounds to this JSON file
  -log-level string
        Log level (default "info")
  -verbose
        Log every submission
  -help
        Show this help message

Examples:
  simulate -rounds 5000 -workers 16 -url http://localhost:8080
  simulate -rounds 200 -duplicates 20 -seed 42 -output rounds.json
`)
}
