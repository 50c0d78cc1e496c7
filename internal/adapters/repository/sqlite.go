package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/okian/tradevalue/internal/domain/model"
	"github.com/okian/tradevalue/pkg/logger"
	"github.com/okian/tradevalue/pkg/metrics"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const playerColumns = "id, name, value, team, position, age, hand, number, headshot, expert_rank"

// SQLiteStore persists players, snapshots and submissions in a SQLite file.
// Catalog order is insertion order (rowid).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens path, applies pragmas and runs the embedded migrations.
// A nil log silences migration output.
func NewSQLiteStore(ctx context.Context, path string, log logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection serializes writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(ctx, db, log); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	metrics.UpdatePlayersTotal(s.Count(ctx))
	return s, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []struct{ name, value string }{
		{"journal_mode", "WAL"},
		{"synchronous", "NORMAL"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "ON"},
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return fmt.Errorf("set PRAGMA %s: %w", p.name, err)
		}
	}
	return nil
}

// migrate runs the embedded migrations through a goose Provider owned by this
// store, so opening several stores at once shares no goose state.
func migrate(ctx context.Context, db *sql.DB, log logger.Logger) error {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys,
		goose.WithDisableGlobalRegistry(true),
	)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if log != nil {
		for _, r := range results {
			log.Info(ctx, "migration applied",
				logger.String("path", r.Source.Path),
				logger.Duration("duration", r.Duration))
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(r rowScanner) (model.Player, error) {
	var p model.Player
	err := r.Scan(&p.ID, &p.Name, &p.Value, &p.Team, &p.Position, &p.Age, &p.Hand, &p.Number, &p.Headshot, &p.Rank)
	return p, err
}

// All returns every player in insertion order.
func (s *SQLiteStore) All(ctx context.Context) ([]model.Player, error) {
	defer metrics.ObserveStore("all", time.Now())

	rows, err := s.db.QueryContext(ctx, "SELECT "+playerColumns+" FROM players ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	var out []model.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get returns the player with id or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (model.Player, error) {
	p, err := scanPlayer(s.db.QueryRowContext(ctx, "SELECT "+playerColumns+" FROM players WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Player{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Player{}, fmt.Errorf("get player %s: %w", id, err)
	}
	return p, nil
}

// Resolve finds a player by id, falling back to an exact name match.
func (s *SQLiteStore) Resolve(ctx context.Context, ref model.PlayerRef) (model.Player, error) {
	p, err := s.Get(ctx, ref.ID)
	if err == nil || !errors.Is(err, ErrNotFound) || ref.Name == "" {
		return p, err
	}
	p, err = scanPlayer(s.db.QueryRowContext(ctx,
		"SELECT "+playerColumns+" FROM players WHERE name = ? ORDER BY rowid LIMIT 1", ref.Name))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Player{}, fmt.Errorf("%w: id=%q name=%q", ErrNotFound, ref.ID, ref.Name)
	}
	if err != nil {
		return model.Player{}, fmt.Errorf("resolve player %q: %w", ref.Name, err)
	}
	return p, nil
}

// ApplyUpdates sets new values in one transaction, matching by id and falling
// back to name. Updates naming no known player are skipped.
func (s *SQLiteStore) ApplyUpdates(ctx context.Context, updates []model.ValueUpdate) (ApplyResult, error) {
	defer metrics.ObserveStore("apply_updates", time.Now())

	var res ApplyResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, u := range updates {
			n, err := execCount(ctx, tx, "UPDATE players SET value = ? WHERE id = ?", u.NewValue, u.ID)
			if err != nil {
				return err
			}
			if n == 0 && u.Name != "" {
				n, err = execCount(ctx, tx, `UPDATE players SET value = ?
					WHERE rowid = (SELECT rowid FROM players WHERE name = ? ORDER BY rowid LIMIT 1)`,
					u.NewValue, u.Name)
				if err != nil {
					return err
				}
			}
			res.UpdatedCount += int(n)
		}
		return nil
	})
	if err != nil {
		return ApplyResult{}, err
	}
	return res, nil
}

// Seed inserts players whose ids are not stored yet and reports how many were added.
func (s *SQLiteStore) Seed(ctx context.Context, players []model.Player) (int, error) {
	added := 0
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, p := range players {
			n, err := execCount(ctx, tx,
				"INSERT OR IGNORE INTO players ("+playerColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
				p.ID, p.Name, p.Value, p.Team, p.Position, p.Age, p.Hand, p.Number, p.Headshot, p.Rank)
			if err != nil {
				return err
			}
			added += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	metrics.UpdatePlayersTotal(s.Count(ctx))
	return added, nil
}

const rankedPlayers = `SELECT DENSE_RANK() OVER (ORDER BY value DESC) AS rk,
	id, name, value, team, position FROM players`

func scanEntry(r rowScanner) (Entry, error) {
	var e Entry
	err := r.Scan(&e.Rank, &e.ID, &e.Name, &e.Value, &e.Team, &e.Position)
	return e, err
}

// TopN returns the n most valuable players with dense ranks.
func (s *SQLiteStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	defer metrics.ObserveStore("top_n", time.Now())
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(ctx, rankedPlayers+" ORDER BY value DESC, id ASC LIMIT ?", n)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0, n)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Rank returns the current dense rank and value of a player.
func (s *SQLiteStore) Rank(ctx context.Context, id string) (Entry, error) {
	defer metrics.ObserveStore("rank", time.Now())

	e, err := scanEntry(s.db.QueryRowContext(ctx, "SELECT * FROM ("+rankedPlayers+") WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("rank %s: %w", id, err)
	}
	return e, nil
}

// Count returns the number of players, or 0 when the query fails.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM players").Scan(&n); err != nil {
		metrics.RecordErrorByComponent("repository", "count")
		return 0
	}
	return n
}

// SaveSnapshot stores snap under its day, replacing an earlier one of that day.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	if _, err := time.Parse(model.SnapshotDayLayout, snap.Day); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDay, snap.Day)
	}
	raw, err := json.Marshal(snap.Players)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (day, taken_at, players) VALUES (?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET taken_at = excluded.taken_at, players = excluded.players`,
		snap.Day, snap.TakenAt.UTC().Format(time.RFC3339Nano), string(raw))
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.Day, err)
	}
	return nil
}

// SnapshotDays lists stored snapshot days, oldest first.
func (s *SQLiteStore) SnapshotDays(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT day FROM snapshots ORDER BY day")
	if err != nil {
		return nil, fmt.Errorf("query snapshot days: %w", err)
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan snapshot day: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// Snapshot returns the snapshot of day or ErrNoSnapshot.
func (s *SQLiteStore) Snapshot(ctx context.Context, day string) (model.Snapshot, error) {
	var takenAt, raw string
	err := s.db.QueryRowContext(ctx, "SELECT taken_at, players FROM snapshots WHERE day = ?", day).Scan(&takenAt, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, fmt.Errorf("%w: %s", ErrNoSnapshot, day)
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("load snapshot %s: %w", day, err)
	}

	snap := model.Snapshot{Day: day}
	if snap.TakenAt, err = time.Parse(time.RFC3339Nano, takenAt); err != nil {
		return model.Snapshot{}, fmt.Errorf("snapshot %s taken_at: %w", day, err)
	}
	if err := json.Unmarshal([]byte(raw), &snap.Players); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", day, err)
	}
	return snap, nil
}

// AddSubmission records a trade submission and returns the new total.
func (s *SQLiteStore) AddSubmission(ctx context.Context, sub model.Submission) (int, error) {
	sideA, err := json.Marshal(sub.SideA)
	if err != nil {
		return 0, fmt.Errorf("encode side a: %w", err)
	}
	sideB, err := json.Marshal(sub.SideB)
	if err != nil {
		return 0, fmt.Errorf("encode side b: %w", err)
	}

	var total int
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO submissions (id, created_at, side_a, side_b, status, final_a, final_b, difference)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			sub.ID, sub.CreatedAt.UTC().Format(time.RFC3339Nano), string(sideA), string(sideB),
			sub.Status, sub.FinalA, sub.FinalB, sub.Difference); err != nil {
			return fmt.Errorf("insert submission: %w", err)
		}
		return tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM submissions").Scan(&total)
	})
	return total, err
}

// Submissions returns up to limit submissions, newest first.
func (s *SQLiteStore) Submissions(ctx context.Context, limit int) ([]model.Submission, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, side_a, side_b, status, final_a, final_b, difference
		FROM submissions ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var out []model.Submission
	for rows.Next() {
		var (
			sub                     model.Submission
			createdAt, sideA, sideB string
		)
		if err := rows.Scan(&sub.ID, &createdAt, &sideA, &sideB, &sub.Status, &sub.FinalA, &sub.FinalB, &sub.Difference); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if sub.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("submission %s created_at: %w", sub.ID, err)
		}
		if err := json.Unmarshal([]byte(sideA), &sub.SideA); err != nil {
			return nil, fmt.Errorf("submission %s side a: %w", sub.ID, err)
		}
		if err := json.Unmarshal([]byte(sideB), &sub.SideB); err != nil {
			return nil, fmt.Errorf("submission %s side b: %w", sub.ID, err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func execCount(ctx context.Context, tx *sql.Tx, query string, args ...any) (int64, error) {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	return res.RowsAffected()
}

var _ Store = (*SQLiteStore)(nil)
