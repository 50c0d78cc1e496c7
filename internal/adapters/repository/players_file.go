package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/okian/tradevalue/internal/domain/model"
)

// playerRecord is one entry of a players.json catalog file.
type playerRecord struct {
	ID       flexString `json:"id"`
	Name     string     `json:"Name"`
	Value    float64    `json:"Value"`
	Team     string     `json:"Team,omitempty"`
	Position string     `json:"Position,omitempty"`
	Age      flexString `json:"Age,omitempty"`
	Hand     string     `json:"Hand,omitempty"`
	Number   flexString `json:"Number,omitempty"`
	Headshot string     `json:"Headshot,omitempty"`
	Rank     *int       `json:"Rank,omitempty"`
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("want string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

// LoadPlayersFile reads a players.json catalog. Records without an id get their
// index as id.
func LoadPlayersFile(path string) ([]model.Player, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read players file: %w", err)
	}
	return decodePlayers(raw)
}

func decodePlayers(raw []byte) ([]model.Player, error) {
	var records []playerRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode players: %w", err)
	}

	players := make([]model.Player, 0, len(records))
	for i, r := range records {
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			return nil, fmt.Errorf("decode players: record %d has a non-finite value", i)
		}
		id := string(r.ID)
		if id == "" {
			id = strconv.Itoa(i)
		}
		p := model.Player{
			ID:       id,
			Name:     r.Name,
			Value:    int(math.Round(r.Value)),
			Team:     r.Team,
			Position: r.Position,
			Age:      string(r.Age),
			Hand:     r.Hand,
			Number:   string(r.Number),
			Headshot: r.Headshot,
		}
		if r.Rank != nil {
			p.Rank = *r.Rank
		}
		players = append(players, p)
	}
	return players, nil
}

func encodePlayers(players []model.Player) ([]byte, error) {
	records := make([]playerRecord, 0, len(players))
	for _, p := range players {
		r := playerRecord{
			ID:       flexString(p.ID),
			Name:     p.Name,
			Value:    float64(p.Value),
			Team:     p.Team,
			Position: p.Position,
			Age:      flexString(p.Age),
			Hand:     p.Hand,
			Number:   flexString(p.Number),
			Headshot: p.Headshot,
		}
		if p.Rank > 0 {
			rank := p.Rank
			r.Rank = &rank
		}
		records = append(records, r)
	}
	return json.MarshalIndent(records, "", "  ")
}

// WritePlayersFile writes players to path in catalog format, replacing the file
// atomically.
func WritePlayersFile(path string, players []model.Player) error {
	raw, err := encodePlayers(players)
	if err != nil {
		return fmt.Errorf("encode players: %w", err)
	}
	return writeFileAtomic(path, raw)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
