package game

import (
	"fmt"
	"time"
)

const (
	// Size is the width and height of a card grid.
	Size = 5
	// MaxNumber is the highest number that can be drawn.
	MaxNumber = 75
	// ColumnSpan is how many numbers each column range holds.
	ColumnSpan = 15
	// Free marks the center cell, which every pattern treats as covered.
	Free = 0

	center = Size / 2
)

// Themes are the cosmetic card styles. They carry no game meaning.
var Themes = []string{"classic", "ocean", "forest", "space", "neon", "retro"}

const letters = "BINGO"

// Card is an immutable 5x5 bingo card.
type Card struct {
	ID        string          `json:"id"`
	Grid      [Size][Size]int `json:"grid"`
	Theme     string          `json:"theme"`
	CreatedAt time.Time       `json:"created_at"`
}

// ColumnRange returns the inclusive bounds of column col.
func ColumnRange(col int) (lo, hi int) {
	lo = col*ColumnSpan + 1
	return lo, lo + ColumnSpan - 1
}

// Label renders n the way callers announce it, e.g. "B-7" or "O-75".
func Label(n int) string {
	if n < 1 || n > MaxNumber {
		return fmt.Sprintf("?-%d", n)
	}
	return fmt.Sprintf("%c-%d", letters[(n-1)/ColumnSpan], n)
}

// Numbers returns the 24 non-free numbers in row-major order.
func (c Card) Numbers() []int {
	out := make([]int, 0, Size*Size-1)
	for r := 0; r < Size; r++ {
		for col := 0; col < Size; col++ {
			if c.Grid[r][col] != Free {
				out = append(out, c.Grid[r][col])
			}
		}
	}
	return out
}

// Contains reports whether n is printed on the card.
func (c Card) Contains(n int) bool {
	if n < 1 || n > MaxNumber {
		return false
	}
	col := (n - 1) / ColumnSpan
	for r := 0; r < Size; r++ {
		if c.Grid[r][col] == n {
			return true
		}
	}
	return false
}

// Validate checks the layout invariants: every column holds five distinct
// numbers from its own range, the center is free and nothing else is.
func (c Card) Validate() error {
	for col := 0; col < Size; col++ {
		lo, hi := ColumnRange(col)
		seen := make(map[int]bool, Size)
		for r := 0; r < Size; r++ {
			v := c.Grid[r][col]
			if r == center && col == center {
				if v != Free {
					return fmt.Errorf("card %s: center cell is %d, want free", c.ID, v)
				}
				continue
			}
			if v == Free {
				return fmt.Errorf("card %s: cell (%d,%d) is free", c.ID, r, col)
			}
			if v < lo || v > hi {
				return fmt.Errorf("card %s: cell (%d,%d)=%d outside %d-%d", c.ID, r, col, v, lo, hi)
			}
			if seen[v] {
				return fmt.Errorf("card %s: column %c repeats %d", c.ID, letters[col], v)
			}
			seen[v] = true
		}
	}
	return nil
}
