// Command simulate submits synthetic vote rounds to a running service and
// verifies the leaderboard afterwards.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/tradevalue/internal/simulate"
	"github.com/okian/tradevalue/pkg/logger"
)

const (
	defaultWorkers = 2 // multiplier for runtime.NumCPU()
	defaultRunTime = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", simulate.DefaultBaseURL, "Base URL of the service")
		rounds     = flag.Int("rounds", simulate.DefaultRounds, "Number of vote rounds to submit")
		duplicates = flag.Int("duplicates", 0, "Extra submissions reusing an earlier round id")
		topN       = flag.Int("top", simulate.DefaultTopN, "Leaderboard size to verify")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		timeout    = flag.Duration("timeout", simulate.DefaultTimeout, "HTTP request timeout")
		settle     = flag.Duration("settle", simulate.DefaultSettle, "How long to wait for rounds to be applied")
		seed       = flag.Uint64("seed", 0, "Seed for round generation (0 picks one)")
		outputFile = flag.String("output", "", "Write the generated rounds to this JSON file")
		logLevel   = flag.String("log-level", "info", "Log level")
		verbose    = flag.Bool("verbose", false, "Log every submission")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp(os.Stdout)
		return
	}

	level := *logLevel
	if *verbose {
		level = "debug"
	}
	if err := logger.Init(logger.WithLevel(level)); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTime)
	defer cancel()

	_, err := simulate.Run(ctx, simulate.Config{
		BaseURL:    *baseURL,
		Rounds:     *rounds,
		Duplicates: *duplicates,
		TopN:       *topN,
		Workers:    *workers,
		Timeout:    *timeout,
		Settle:     *settle,
		Seed:       *seed,
		OutputFile: *outputFile,
		Verbose:    *verbose,
	})
	if err != nil {
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		os.Exit(1)
	}
}
