package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tradevalue/internal/config"
	"github.com/okian/tradevalue/pkg/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.New(context.Background())
	cfg.PlayersFile = filepath.Join(dir, "players.json")
	cfg.SnapshotDir = filepath.Join(dir, "snapshots")
	cfg.DBPath = filepath.Join(dir, "tradevalue.db")
	catalog := `[{"id":"1","Name":"Alpha","Value":5000},{"id":"2","Name":"Bravo","Value":4000}]`
	if err := os.WriteFile(cfg.PlayersFile, []byte(catalog), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return cfg
}

func TestRun(t *testing.T) {
	Convey("Given a memory store with a snapshot dir", t, func() {
		cfg := testConfig(t)
		var out bytes.Buffer

		Convey("run saves one snapshot file and prints a summary", func() {
			So(run(context.Background(), cfg, logger.Nop(), &out), ShouldBeNil)

			var s summary
			So(json.Unmarshal(out.Bytes(), &s), ShouldBeNil)
			So(s.Players, ShouldEqual, 2)
			So(s.Days, ShouldContain, s.Day)

			_, err := os.Stat(filepath.Join(cfg.SnapshotDir, s.Day+".json"))
			So(err, ShouldBeNil)
		})
	})

	Convey("Given the sqlite store", t, func() {
		cfg := testConfig(t)
		cfg.Store = config.StoreSQLite
		var out bytes.Buffer

		Convey("run stores the snapshot in the database", func() {
			So(run(context.Background(), cfg, logger.Nop(), &out), ShouldBeNil)
			var s summary
			So(json.Unmarshal(out.Bytes(), &s), ShouldBeNil)
			So(s.Players, ShouldEqual, 2)
			So(s.Days, ShouldResemble, []string{s.Day})
		})
	})

	Convey("Given a memory store without a snapshot dir", t, func() {
		cfg := testConfig(t)
		cfg.SnapshotDir = ""

		Convey("run refuses to take a snapshot it would lose", func() {
			err := run(context.Background(), cfg, logger.Nop(), &bytes.Buffer{})
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
