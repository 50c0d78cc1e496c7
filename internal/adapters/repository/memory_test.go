package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/tradevalue/internal/domain/model"
)

func TestMemoryStore_DuplicateIDs(t *testing.T) {
	_, err := NewMemoryStore([]model.Player{{ID: "1", Name: "A"}, {ID: "1", Name: "B"}})
	if err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestMemoryStore_WritesPlayersFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "players.json")

	s, err := NewMemoryStore(fixture(), WithPlayersFile(path))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	// Nothing matched, nothing written.
	if _, err := s.ApplyUpdates(ctx, []model.ValueUpdate{{ID: "x", NewValue: 1}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file after a no-op update, got %v", err)
	}

	if _, err := s.ApplyUpdates(ctx, []model.ValueUpdate{{ID: "2", NewValue: 8216}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	players, err := LoadPlayersFile(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(players) != 5 || players[2].Value != 8216 || players[0].Rank != 2 {
		t.Errorf("file does not reflect the update: %+v", players)
	}
}

func TestMemoryStore_FailedFileWriteKeepsValues(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	// A regular file where the players file's directory should be.
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	s, err := NewMemoryStore(fixture(), WithPlayersFile(filepath.Join(blocker, "players.json")))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	res, err := s.ApplyUpdates(ctx, []model.ValueUpdate{{ID: "2", NewValue: 9999}})
	if err == nil {
		t.Fatal("expected the players file write to fail")
	}
	if res.UpdatedCount != 0 {
		t.Errorf("expected nothing applied, got %d", res.UpdatedCount)
	}

	p, err := s.Get(ctx, "2")
	if err != nil || p.Value != 8200 {
		t.Fatalf("expected value 8200 unchanged, got %+v err=%v", p, err)
	}
	top, err := s.TopN(ctx, 1)
	if err != nil || top[0].ID != "0" {
		t.Fatalf("expected leaderboard unchanged, got %+v err=%v", top, err)
	}
	e, err := s.Rank(ctx, "2")
	if err != nil || e.Value != 8200 || e.Rank != 3 {
		t.Errorf("expected rank 3 at 8200, got %+v err=%v", e, err)
	}
}

func TestMemoryStore_SnapshotDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewMemoryStore(fixture(), WithSnapshotDir(dir))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	snap := model.Snapshot{Day: "2025-02-14", TakenAt: time.Now(), Players: fixture()}
	if err := s.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "2025-02-14.json")); err != nil {
		t.Fatalf("expected snapshot file: %v", err)
	}
	// Files that are not snapshots are ignored on load.
	if err := os.WriteFile(filepath.Join(dir, "index.json"), []byte("[]"), 0o600); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewMemoryStore(fixture(), WithSnapshotDir(dir))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	days, _ := reopened.SnapshotDays(ctx)
	if len(days) != 1 || days[0] != "2025-02-14" {
		t.Fatalf("expected the saved day, got %v", days)
	}
	got, err := reopened.Snapshot(ctx, "2025-02-14")
	if err != nil || len(got.Players) != 5 || got.Players[4].Name != "Sam LaPorta" {
		t.Errorf("snapshot not reloaded: %+v err=%v", got, err)
	}
}

func TestLoadPlayersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "players.json")
	raw := `[
  {"Name": "Josh Allen", "Value": 9900, "Team": "BUF", "Position": "QB", "Age": 28, "Number": "17", "Rank": 2},
  {"id": "custom", "Name": "Bijan Robinson", "Value": 9500.4, "Age": "22", "Rank": null},
  {"id": 7, "Name": "Puka Nacua", "Value": 8200}
]`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	players, err := LoadPlayersFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if players[0].ID != "0" || players[0].Age != "28" || players[0].Rank != 2 {
		t.Errorf("first record: %+v", players[0])
	}
	if players[1].ID != "custom" || players[1].Value != 9500 || players[1].Rank != 0 {
		t.Errorf("second record: %+v", players[1])
	}
	if players[2].ID != "7" {
		t.Errorf("numeric id: %+v", players[2])
	}

	if _, err := LoadPlayersFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for a missing file")
	}
	if err := os.WriteFile(path, []byte(`{"not":"an array"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPlayersFile(path); err == nil {
		t.Error("expected decode error")
	}
}
