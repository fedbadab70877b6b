// Package records holds the reference points totals a live performance is
// measured against: the league's all-time single-game record and each
// player's season high.
package records

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/charleschow/topnum/internal/core/probability"
)

//go:embed records.yaml
var defaultRecords []byte

type League struct {
	AllTimeHigh   float64 `yaml:"all_time_high"`
	AllTimeHolder string  `yaml:"all_time_holder"`
	// Fallback for players without an entry; zero means unknown.
	SeasonHigh float64 `yaml:"season_high"`
}

type Player struct {
	SeasonHigh float64 `yaml:"season_high"`
}

// Table is read-only once loaded.
type Table struct {
	League  League            `yaml:"league"`
	Players map[string]Player `yaml:"players"`
}

// Default parses the embedded table.
func Default() (*Table, error) {
	t, err := Parse(defaultRecords)
	if err != nil {
		return nil, fmt.Errorf("embedded records: %w", err)
	}
	return t, nil
}

func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse records: %w", err)
	}
	if t.League.AllTimeHigh < 0 || t.League.SeasonHigh < 0 {
		return nil, fmt.Errorf("parse records: league highs must be non-negative")
	}

	players := make(map[string]Player, len(t.Players))
	for name, p := range t.Players {
		key := normalize(name)
		if key == "" {
			return nil, fmt.Errorf("parse records: empty player name")
		}
		if p.SeasonHigh <= 0 {
			return nil, fmt.Errorf("parse records: %s: season_high must be positive", name)
		}
		players[key] = p
	}
	t.Players = players
	return &t, nil
}

// LoadWithDefaults overlays the file at path, if any, on the embedded table.
func LoadWithDefaults(path string) (*Table, error) {
	base, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return base, nil
	}
	override, err := Load(path)
	if err != nil {
		return nil, err
	}
	return base.Merge(override), nil
}

// Merge returns a new table with other's non-zero league values and player
// entries taking precedence.
func (t *Table) Merge(other *Table) *Table {
	out := &Table{League: t.League, Players: make(map[string]Player, len(t.Players)+len(other.Players))}
	for k, v := range t.Players {
		out.Players[k] = v
	}
	for k, v := range other.Players {
		out.Players[normalize(k)] = v
	}
	if other.League.AllTimeHigh > 0 {
		out.League.AllTimeHigh = other.League.AllTimeHigh
		out.League.AllTimeHolder = other.League.AllTimeHolder
	}
	if other.League.SeasonHigh > 0 {
		out.League.SeasonHigh = other.League.SeasonHigh
	}
	return out
}

// Thresholds returns the targets for player. The season high falls back to
// the league value; ok is false when neither the season high nor the
// all-time high is known.
func (t *Table) Thresholds(player string) (probability.Thresholds, bool) {
	season := t.League.SeasonHigh
	if p, ok := t.Players[normalize(player)]; ok {
		season = p.SeasonHigh
	}
	if season <= 0 || t.League.AllTimeHigh <= 0 {
		return probability.Thresholds{}, false
	}
	return probability.Thresholds{SeasonHigh: season, AllTimeHigh: t.League.AllTimeHigh}, true
}

func (t *Table) Len() int { return len(t.Players) }

func normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
