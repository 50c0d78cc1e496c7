package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smartystreets/goconvey/convey"

	app "github.com/okian/tradevalue/internal/app"
	"github.com/okian/tradevalue/internal/config"
	"github.com/okian/tradevalue/pkg/logger"
	"github.com/okian/tradevalue/pkg/metrics"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().String()
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.New(context.Background())
	cfg.Addr = freeAddr(t)
	cfg.PlayersFile = filepath.Join(dir, "players.json")
	cfg.SnapshotDir = filepath.Join(dir, "snapshots")
	cfg.SnapshotIntervalMinutes = 0
	catalog := `[{"id":"1","Name":"Alpha","Value":5000},{"id":"2","Name":"Bravo","Value":4000}]`
	if err := os.WriteFile(cfg.PlayersFile, []byte(catalog), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return cfg
}

func TestRun(t *testing.T) {
	convey.Convey("Given a running server", t, func() {
		cfg := testConfig(t)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- run(ctx, cfg, logger.Nop()) }()

		var resp *http.Response
		var err error
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			resp, err = http.Get("http://" + cfg.Addr + "/players")
			if err == nil {
				break
			}
			time.Sleep(10 * time.Millisecond)
		}

		convey.Convey("Then the API answers and shutdown is clean", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			_ = resp.Body.Close()

			docs, err := http.Get("http://" + cfg.Addr + "/openapi.yaml")
			convey.So(err, convey.ShouldBeNil)
			convey.So(docs.StatusCode, convey.ShouldEqual, http.StatusOK)
			_ = docs.Body.Close()

			cancel()
			select {
			case err := <-done:
				convey.So(err, convey.ShouldBeNil)
			case <-time.After(10 * time.Second):
				convey.So("run did not return", convey.ShouldBeEmpty)
			}
		})
	})
}

func TestRun_BadStore(t *testing.T) {
	convey.Convey("Given a corrupt players file run fails fast", t, func() {
		cfg := testConfig(t)
		convey.So(os.WriteFile(cfg.PlayersFile, []byte("{"), 0o600), convey.ShouldBeNil)
		err := run(context.Background(), cfg, logger.Nop())
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestNewHandler(t *testing.T) {
	convey.Convey("Given the handler tree", t, func() {
		cfg := testConfig(t)
		store, err := app.OpenStore(context.Background(), cfg, logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		svc := app.New(store)
		h := newHandler(context.Background(), cfg, svc)
		convey.So(h, convey.ShouldNotBeNil)
	})
}

func TestUpdateSystemMetrics(t *testing.T) {
	convey.Convey("Updating system metrics publishes the goroutine gauge", t, func() {
		updateSystemMetrics()
		n, err := testutil.GatherAndCount(metrics.GetRegistry(), "tradevalue_system_goroutine_count")
		convey.So(err, convey.ShouldBeNil)
		convey.So(n, convey.ShouldEqual, 1)
	})
}
