package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// Rand is the randomness the generator and sequencer draw from.
type Rand interface {
	Intn(n int) int
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a goroutine-safe Rand seeded with seed.
func NewRand(seed int64) Rand {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Generator produces fresh cards.
type Generator struct {
	rng   Rand
	clock clock.Clock
	newID func() string
}

// NewGenerator returns a generator drawing from rng.
func NewGenerator(rng Rand, clk clock.Clock) *Generator {
	if clk == nil {
		clk = clock.New()
	}
	return &Generator{rng: rng, clock: clk, newID: uuid.NewString}
}

// Generate builds one card. A card that fails Validate means the generator
// itself is broken, so it panics instead of returning an error.
func (g *Generator) Generate() Card {
	card := Card{
		ID:        g.newID(),
		Theme:     Themes[g.rng.Intn(len(Themes))],
		CreatedAt: g.clock.Now().UTC(),
	}
	for col := 0; col < Size; col++ {
		for r, v := range g.column(col) {
			card.Grid[r][col] = v
		}
	}
	card.Grid[center][center] = Free

	if err := card.Validate(); err != nil {
		panic(fmt.Sprintf("generator produced invalid card: %v", err))
	}
	return card
}

// column rejection-samples five distinct values from the column's range.
func (g *Generator) column(col int) [Size]int {
	lo, _ := ColumnRange(col)
	var out [Size]int
	seen := make(map[int]bool, Size)
	for i := 0; i < Size; {
		v := lo + g.rng.Intn(ColumnSpan)
		if seen[v] {
			continue
		}
		seen[v] = true
		out[i] = v
		i++
	}
	return out
}
