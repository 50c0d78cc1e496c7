package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/okian/tradevalue/internal/adapters/mq/events"
	"github.com/okian/tradevalue/internal/adapters/repository"
	"github.com/okian/tradevalue/internal/config"
	"github.com/okian/tradevalue/internal/domain/model"
	"github.com/okian/tradevalue/pkg/logger"
)

// OpenStore opens the configured store. The memory store is loaded from the
// players file; the sqlite store is seeded from it with players it lacks.
func OpenStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	players, err := readCatalog(cfg.PlayersFile)
	if err != nil {
		return nil, err
	}

	switch cfg.Store {
	case config.StoreSQLite:
		store, err := repository.NewSQLiteStore(ctx, cfg.DBPath, log)
		if err != nil {
			return nil, err
		}
		added, err := store.Seed(ctx, players)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		log.Info(ctx, "sqlite store ready",
			logger.String("path", cfg.DBPath),
			logger.Int("seeded", added),
			logger.Int("players", store.Count(ctx)),
		)
		return store, nil

	default:
		var opts []repository.Option
		if cfg.PersistPlayers {
			opts = append(opts, repository.WithPlayersFile(cfg.PlayersFile))
		}
		if cfg.SnapshotDir != "" {
			opts = append(opts, repository.WithSnapshotDir(cfg.SnapshotDir))
		}
		store, err := repository.NewMemoryStore(players, opts...)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, "memory store ready",
			logger.Int("players", len(players)),
			logger.Bool("persist", cfg.PersistPlayers),
		)
		return store, nil
	}
}

// readCatalog loads the players file. A missing file is an empty catalog.
func readCatalog(path string) ([]model.Player, error) {
	if path == "" {
		return nil, nil
	}
	players, err := repository.LoadPlayersFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return players, err
}

// Broker is the event publisher together with the embedded server it may own.
type Broker struct {
	events.Publisher
	server *events.EmbeddedServer
}

// OpenBroker picks where events go: an embedded NATS server, an external one,
// or an in-process bus when neither is configured.
func OpenBroker(cfg *config.Config, log logger.Logger) (*Broker, error) {
	url := cfg.NATSURL
	var srv *events.EmbeddedServer
	if cfg.NATSEmbedded {
		var err error
		if srv, err = events.StartEmbedded(log.Named("nats")); err != nil {
			return nil, err
		}
		url = srv.ClientURL()
	}
	if url == "" {
		return &Broker{Publisher: events.NewLocalBus()}, nil
	}

	pub, err := events.ConnectNATS(url,
		events.WithSubjectPrefix(cfg.NATSSubject),
		events.WithLogger(log),
	)
	if err != nil {
		if srv != nil {
			srv.Shutdown()
		}
		return nil, fmt.Errorf("open broker: %w", err)
	}
	log.Info(context.Background(), "publishing events to nats",
		logger.String("url", url),
		logger.Bool("embedded", srv != nil),
	)
	return &Broker{Publisher: pub, server: srv}, nil
}

// Close closes the publisher and stops the embedded server.
func (b *Broker) Close() error {
	err := b.Publisher.Close()
	if b.server != nil {
		b.server.Shutdown()
	}
	return err
}
