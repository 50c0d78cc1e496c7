package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/tradevalue/internal/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	convey.Convey("Given no file and no environment", t, func() {
		cfg, err := config.Load(context.Background())

		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
		convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
		convey.So(cfg.CORSOrigins, convey.ShouldBeNil)
	})
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("TRADEVALUE_ADDR", ":8080")
	t.Setenv("TRADEVALUE_QUEUE_SIZE", "64")
	t.Setenv("TRADEVALUE_STORE", "sqlite")
	t.Setenv("TRADEVALUE_PERSIST_PLAYERS", "true")
	t.Setenv("TRADEVALUE_CORS_ORIGINS", "https://a.example, https://b.example")

	convey.Convey("Given TRADEVALUE_ variables", t, func() {
		cfg, err := config.Load(context.Background())

		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
		convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
		convey.So(cfg.Store, convey.ShouldEqual, config.StoreSQLite)
		convey.So(cfg.PersistPlayers, convey.ShouldBeTrue)
		convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
	})
}

func TestLoad_EnvList(t *testing.T) {
	convey.Convey("Given comma separated origins with blanks", t, func() {
		t.Setenv("TRADEVALUE_CORS_ORIGINS", " https://a.example ,, https://b.example,")
		cfg, err := config.Load(context.Background())

		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
	})

	convey.Convey("Given a single origin", t, func() {
		t.Setenv("TRADEVALUE_CORS_ORIGINS", "https://only.example")
		cfg, err := config.Load(context.Background())

		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"https://only.example"})
	})
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, "config.yaml", "addr: \":7000\"\nqueue_size: 32\nlog_format: json\nmover_window_days: 14\n")
	t.Setenv("TRADEVALUE_CONFIG", path)
	t.Setenv("TRADEVALUE_QUEUE_SIZE", "16")

	convey.Convey("Given a YAML file and an env override", t, func() {
		cfg, err := config.Load(context.Background())

		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":7000")
		convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
		convey.So(cfg.MoverWindowDays, convey.ShouldEqual, 14)
		convey.So(cfg.QueueSize, convey.ShouldEqual, 16)
	})
}

func TestLoad_EnvFile(t *testing.T) {
	path := writeFile(t, "test.env", "TRADEVALUE_DEDUPE_SIZE=99\nTRADEVALUE_ADDR=:6000\n")
	t.Setenv("TRADEVALUE_ENV_FILE", path)
	// already-set variables win over the file
	t.Setenv("TRADEVALUE_ADDR", ":5000")
	t.Cleanup(func() { _ = os.Unsetenv("TRADEVALUE_DEDUPE_SIZE") })

	convey.Convey("Given a dotenv file", t, func() {
		cfg, err := config.Load(context.Background())

		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.DedupeSize, convey.ShouldEqual, 99)
		convey.So(cfg.Addr, convey.ShouldEqual, ":5000")
	})
}

func TestLoad_Errors(t *testing.T) {
	convey.Convey("Given a missing explicit env file", t, func() {
		t.Setenv("TRADEVALUE_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
		_, err := config.Load(context.Background())
		convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
	})
}

func TestLoad_BadFile(t *testing.T) {
	t.Setenv("TRADEVALUE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	convey.Convey("Given a config file that does not exist", t, func() {
		_, err := config.Load(context.Background())
		convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
	})
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("TRADEVALUE_STORE", "redis")

	convey.Convey("Given an invalid store", t, func() {
		_, err := config.Load(context.Background())
		convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
	})
}
