package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/bellapacxx/bingo-engine/services"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedInto(t *testing.T) {
	store := services.NewMemoryCards(nil)
	n, err := seedInto(context.Background(), store, game.NewGenerator(game.NewRand(1), clock.NewMock()), 12)
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	_, total, err := store.List(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
}

func TestPriceCommand(t *testing.T) {
	cmd := PriceCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 21)
	assert.Equal(t, []string{"CARDS", "PRICE", "DISCOUNT"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"3", "27", "10%"}, strings.Fields(lines[3]))
	assert.Equal(t, []string{"20", "75", "62%"}, strings.Fields(lines[20]))
}

func TestSeedCardsRejectsCount(t *testing.T) {
	cmd := SeedCardsCmd()
	cmd.SetArgs([]string{"--count", "0"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	assert.ErrorContains(t, cmd.Execute(), "count must be positive")
}
