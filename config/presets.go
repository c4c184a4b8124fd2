package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/bellapacxx/bingo-engine/game"
)

// Preset describes one auto-calling lobby: every round it runs is a new
// game with these settings. A zero PrizePool takes the engine default.
type Preset struct {
	Name       string `toml:"name"`
	EntryFee   int64  `toml:"entry_fee"`
	MaxPlayers int    `toml:"max_players"`
	PrizePool  int64  `toml:"prize_pool"`
	Rules      string `toml:"rules"`
}

// Presets is the layout of PRESETS_FILE.
type Presets struct {
	Lobbies []Preset         `toml:"lobby"`
	Prices  *game.PriceTable `toml:"prices"`
}

// DefaultPresets are the four stakes lobbies.
func DefaultPresets() Presets {
	var out Presets
	for _, stake := range []int64{10, 20, 50, 100} {
		out.Lobbies = append(out.Lobbies, Preset{
			Name:       fmt.Sprintf("stake-%d", stake),
			EntryFee:   stake,
			MaxPlayers: 100,
			Rules:      "classic",
		})
	}
	return out
}

// LoadPresets reads lobby presets from a TOML file. An empty path gives
// the defaults.
func LoadPresets(path string) (Presets, error) {
	if path == "" {
		return DefaultPresets(), nil
	}
	var p Presets
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return Presets{}, fmt.Errorf("read presets %s: %w", path, err)
	}
	return p, p.Validate()
}

// DecodePresets parses presets from TOML text.
func DecodePresets(data string) (Presets, error) {
	var p Presets
	if _, err := toml.Decode(data, &p); err != nil {
		return Presets{}, fmt.Errorf("decode presets: %w", err)
	}
	return p, p.Validate()
}

// Validate checks names are unique and rules and prices are known.
func (p Presets) Validate() error {
	seen := make(map[string]bool, len(p.Lobbies))
	for _, l := range p.Lobbies {
		if l.Name == "" {
			return fmt.Errorf("lobby preset without name")
		}
		if seen[l.Name] {
			return fmt.Errorf("lobby preset %q defined twice", l.Name)
		}
		seen[l.Name] = true
		if l.EntryFee < 0 || l.MaxPlayers < 0 || l.PrizePool < 0 {
			return fmt.Errorf("lobby preset %q has negative settings", l.Name)
		}
		if _, err := RulesFor(l); err != nil {
			return fmt.Errorf("lobby preset %q: %w", l.Name, err)
		}
	}
	if p.Prices != nil {
		if err := p.Prices.Validate(); err != nil {
			return fmt.Errorf("prices: %w", err)
		}
	}
	return nil
}

// RulesFor resolves the preset's named rules, classic when unset.
func RulesFor(l Preset) (game.Rules, error) {
	if l.Rules == "" {
		return game.DefaultRules(), nil
	}
	return game.PresetRules(l.Rules)
}
