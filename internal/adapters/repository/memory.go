package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/okian/tradevalue/internal/domain/model"
	"github.com/okian/tradevalue/pkg/metrics"
)

// MemoryStore keeps players in memory with a treap index for the leaderboard.
// Optionally it writes the catalog and snapshots back to disk.
type MemoryStore struct {
	mu          sync.RWMutex
	players     map[string]model.Player
	order       []string          // catalog order
	byName      map[string]string // name -> first id with that name
	index       valueIndex
	snapshots   map[string]model.Snapshot
	submissions []model.Submission

	playersFile string
	snapshotDir string
}

// NewMemoryStore returns a store seeded with players.
func NewMemoryStore(players []model.Player, opts ...Option) (*MemoryStore, error) {
	s := &MemoryStore{
		players:   make(map[string]model.Player, len(players)),
		byName:    make(map[string]string, len(players)),
		snapshots: make(map[string]model.Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, p := range players {
		if _, dup := s.players[p.ID]; dup {
			return nil, fmt.Errorf("duplicate player id %q", p.ID)
		}
		s.add(p)
	}
	if s.snapshotDir != "" {
		if err := s.loadSnapshotDir(); err != nil {
			return nil, err
		}
	}
	metrics.UpdatePlayersTotal(len(s.players))
	return s, nil
}

// add inserts p; the caller holds the write lock.
func (s *MemoryStore) add(p model.Player) {
	s.players[p.ID] = p
	s.order = append(s.order, p.ID)
	if _, ok := s.byName[p.Name]; !ok {
		s.byName[p.Name] = p.ID
	}
	s.index.insert(p.ID, p.Value)
}

// All returns every player in catalog order.
func (s *MemoryStore) All(_ context.Context) ([]model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allLocked(), nil
}

func (s *MemoryStore) allLocked() []model.Player {
	out := make([]model.Player, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.players[id])
	}
	return out
}

// Get returns the player with id or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, id string) (model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return model.Player{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

// Resolve finds a player by id, falling back to an exact name match.
func (s *MemoryStore) Resolve(_ context.Context, ref model.PlayerRef) (model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.resolveLocked(ref)
	if !ok {
		return model.Player{}, fmt.Errorf("%w: id=%q name=%q", ErrNotFound, ref.ID, ref.Name)
	}
	return s.players[id], nil
}

func (s *MemoryStore) resolveLocked(ref model.PlayerRef) (string, bool) {
	if _, ok := s.players[ref.ID]; ok {
		return ref.ID, true
	}
	if ref.Name == "" {
		return "", false
	}
	id, ok := s.byName[ref.Name]
	return id, ok
}

// ApplyUpdates sets new values, matching by id and falling back to name.
// Updates naming no known player are skipped. With a players file configured
// the file is written first; if that fails nothing is applied.
func (s *MemoryStore) ApplyUpdates(_ context.Context, updates []model.ValueUpdate) (ApplyResult, error) {
	defer metrics.ObserveStore("apply_updates", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	var res ApplyResult
	staged := make(map[string]int, len(updates))
	for _, u := range updates {
		id, ok := s.resolveLocked(model.PlayerRef{ID: u.ID, Name: u.Name})
		if !ok {
			continue
		}
		staged[id] = u.NewValue
		res.UpdatedCount++
	}
	if res.UpdatedCount == 0 {
		return res, nil
	}

	if s.playersFile != "" {
		next := s.allLocked()
		for i := range next {
			if v, ok := staged[next[i].ID]; ok {
				next[i].Value = v
			}
		}
		if err := WritePlayersFile(s.playersFile, next); err != nil {
			return ApplyResult{}, err
		}
	}

	for id, v := range staged {
		p := s.players[id]
		s.index.remove(p.ID, p.Value)
		p.Value = v
		s.players[id] = p
		s.index.insert(p.ID, p.Value)
	}
	return res, nil
}

// Seed adds players whose ids are not stored yet and reports how many were added.
func (s *MemoryStore) Seed(_ context.Context, players []model.Player) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, p := range players {
		if _, ok := s.players[p.ID]; ok {
			continue
		}
		s.add(p)
		added++
	}
	metrics.UpdatePlayersTotal(len(s.players))
	return added, nil
}

// TopN returns the n most valuable players with dense ranks.
func (s *MemoryStore) TopN(_ context.Context, n int) ([]Entry, error) {
	defer metrics.ObserveStore("top_n", time.Now())
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, s.index.len()))
	s.index.denseRanks(func(rank int, id string) bool {
		out = append(out, entryOf(rank, s.players[id]))
		return len(out) < n
	})
	return out, nil
}

// Rank returns the current dense rank and value of a player.
func (s *MemoryStore) Rank(_ context.Context, id string) (Entry, error) {
	defer metrics.ObserveStore("rank", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.players[id]; !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	var e Entry
	s.index.denseRanks(func(rank int, cur string) bool {
		if cur != id {
			return true
		}
		e = entryOf(rank, s.players[cur])
		return false
	})
	return e, nil
}

// Count returns the number of stored players.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// SaveSnapshot stores snap under its day, replacing an earlier one of that day.
func (s *MemoryStore) SaveSnapshot(_ context.Context, snap model.Snapshot) error {
	if _, err := time.Parse(model.SnapshotDayLayout, snap.Day); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDay, snap.Day)
	}
	snap.Players = slices.Clone(snap.Players)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshotDir != "" {
		if err := s.writeSnapshotFile(snap); err != nil {
			return err
		}
	}
	s.snapshots[snap.Day] = snap
	return nil
}

// SnapshotDays lists stored snapshot days, oldest first.
func (s *MemoryStore) SnapshotDays(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	days := make([]string, 0, len(s.snapshots))
	for d := range s.snapshots {
		days = append(days, d)
	}
	slices.Sort(days)
	return days, nil
}

// Snapshot returns the snapshot of day or ErrNoSnapshot.
func (s *MemoryStore) Snapshot(_ context.Context, day string) (model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[day]
	if !ok {
		return model.Snapshot{}, fmt.Errorf("%w: %s", ErrNoSnapshot, day)
	}
	snap.Players = slices.Clone(snap.Players)
	return snap, nil
}

// AddSubmission records a trade submission and returns the new total.
func (s *MemoryStore) AddSubmission(_ context.Context, sub model.Submission) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, sub)
	return len(s.submissions), nil
}

// Submissions returns up to limit submissions, newest first.
func (s *MemoryStore) Submissions(_ context.Context, limit int) ([]model.Submission, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Submission, 0, min(limit, len(s.submissions)))
	for i := len(s.submissions) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.submissions[i])
	}
	return out, nil
}

// Close is a no-op; every write already reached disk.
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) writeSnapshotFile(snap model.Snapshot) error {
	raw, err := encodePlayers(snap.Players)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return writeFileAtomic(filepath.Join(s.snapshotDir, snap.Day+".json"), raw)
}

// loadSnapshotDir reads every <day>.json in the snapshot directory.
func (s *MemoryStore) loadSnapshotDir() error {
	entries, err := os.ReadDir(s.snapshotDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot dir: %w", err)
	}

	for _, e := range entries {
		day, ok := strings.CutSuffix(e.Name(), ".json")
		if e.IsDir() || !ok {
			continue
		}
		if _, err := time.Parse(model.SnapshotDayLayout, day); err != nil {
			continue
		}
		path := filepath.Join(s.snapshotDir, e.Name())
		players, err := LoadPlayersFile(path)
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", day, err)
		}
		info, err := e.Info()
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", day, err)
		}
		s.snapshots[day] = model.Snapshot{Day: day, TakenAt: info.ModTime().UTC(), Players: players}
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
