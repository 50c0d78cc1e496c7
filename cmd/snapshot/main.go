// Command snapshot takes one value snapshot with the service configuration and
// exits. It is meant for cron jobs when the server runs without its own
// snapshot schedule.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	app "github.com/okian/tradevalue/internal/app"
	"github.com/okian/tradevalue/internal/config"
	"github.com/okian/tradevalue/pkg/logger"
)

// summary is printed to stdout after the snapshot is saved.
type summary struct {
	Day     string   `json:"day"`
	TakenAt string   `json:"taken_at"`
	Players int      `json:"players"`
	Days    []string `json:"days"`
}

func main() {
	var (
		configFile = flag.String("config", "", "YAML config file (overrides TRADEVALUE_CONFIG)")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		flag.Usage()
		return
	}
	if *configFile != "" {
		if err := os.Setenv("TRADEVALUE_CONFIG", *configFile); err != nil {
			fmt.Fprintln(os.Stderr, "failed to set config file:", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	if err := logger.Init(logger.WithLevel(cfg.LogLevel), logger.WithFormat(cfg.LogFormat), logger.WithOutput(os.Stderr)); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		os.Exit(1)
	}
	log := logger.Get()

	if err := run(ctx, cfg, log, os.Stdout); err != nil {
		log.Error(ctx, "snapshot failed", logger.Error(err))
		os.Exit(1)
	}
}

// run opens the configured store and broker, saves today's snapshot and
// writes a JSON summary to out.
func run(ctx context.Context, cfg *config.Config, log logger.Logger, out io.Writer) (err error) {
	if cfg.Store == config.StoreMemory && cfg.SnapshotDir == "" {
		return fmt.Errorf("%w: the memory store needs snapshot_dir to keep snapshots", config.ErrInvalidConfig)
	}

	store, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, store.Close()) }()

	broker, err := app.OpenBroker(cfg, log)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, broker.Close()) }()

	svc := app.New(store, app.WithLogger(log), app.WithPublisher(broker))
	snap, err := svc.TakeSnapshot(ctx)
	if err != nil {
		return err
	}
	days, err := svc.SnapshotDays(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(summary{
		Day:     snap.Day,
		TakenAt: snap.TakenAt.Format("2006-01-02T15:04:05Z07:00"),
		Players: len(snap.Players),
		Days:    days,
	})
}
