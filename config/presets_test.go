package config

import (
	"go/format"
	"os"
	"path/filepath"
	"testing"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const presetsTOML = `
[[lobby]]
name = "quick"
entry_fee = 5
max_players = 20
rules = "any-line"

[[lobby]]
name = "jackpot"
entry_fee = 50
max_players = 200
prize_pool = 10000
rules = "line-then-house"

[prices]
unit_price = 5
max_cards = 10
tiers = [{ min_cards = 5, price = 20 }]
`

func TestDecodePresets(t *testing.T) {
	p, err := DecodePresets(presetsTOML)
	require.NoError(t, err)
	require.Len(t, p.Lobbies, 2)
	assert.Equal(t, Preset{Name: "quick", EntryFee: 5, MaxPlayers: 20, Rules: "any-line"}, p.Lobbies[0])
	assert.Equal(t, int64(10000), p.Lobbies[1].PrizePool)

	require.NotNil(t, p.Prices)
	price, err := p.Prices.Price(6)
	require.NoError(t, err)
	assert.Equal(t, int64(20), price)

	rules, err := RulesFor(p.Lobbies[1])
	require.NoError(t, err)
	assert.Len(t, rules.Prizes, 2)
}

func TestDecodePresetsRejects(t *testing.T) {
	cases := map[string]string{
		"syntax":    `[[lobby]`,
		"unnamed":   "[[lobby]]\nentry_fee = 5\n",
		"duplicate": "[[lobby]]\nname = \"a\"\n[[lobby]]\nname = \"a\"\n",
		"rules":     "[[lobby]]\nname = \"a\"\nrules = \"blackout-bonanza\"\n",
		"negative":  "[[lobby]]\nname = \"a\"\nentry_fee = -1\n",
		"prices":    "[prices]\nunit_price = 10\nmax_cards = 5\ntiers = [{ min_cards = 3, price = 40 }]\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodePresets(doc)
			assert.Error(t, err)
		})
	}
}

func TestLoadPresets(t *testing.T) {
	p, err := LoadPresets("")
	require.NoError(t, err)
	assert.Len(t, p.Lobbies, 4)
	assert.Nil(t, p.Prices)
	for _, l := range p.Lobbies {
		rules, err := RulesFor(l)
		require.NoError(t, err)
		assert.Equal(t, game.DefaultRules(), rules)
	}

	path := filepath.Join(t.TempDir(), "presets.toml")
	require.NoError(t, os.WriteFile(path, []byte(presetsTOML), 0o600))
	p, err = LoadPresets(path)
	require.NoError(t, err)
	assert.Equal(t, "quick", p.Lobbies[0].Name)

	_, err = LoadPresets(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestPresetsSourceFormatted(t *testing.T) {
	src, err := os.ReadFile("presets.go")
	require.NoError(t, err)
	out, err := format.Source(src)
	require.NoError(t, err)
	assert.Equal(t, string(out), string(src))
}
