package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Pattern is a named group of card cells that wins when fully covered.
type Pattern uint8

const (
	Row1 Pattern = iota
	Row2
	Row3
	Row4
	Row5
	Col1
	Col2
	Col3
	Col4
	Col5
	Diagonal1
	Diagonal2
	FourCorners
	FullHouse

	patternCount
)

var patternNames = [patternCount]string{
	"row-1", "row-2", "row-3", "row-4", "row-5",
	"col-1", "col-2", "col-3", "col-4", "col-5",
	"diagonal-1", "diagonal-2", "four-corners", "full-house",
}

func (p Pattern) String() string {
	if p >= patternCount {
		return fmt.Sprintf("pattern(%d)", uint8(p))
	}
	return patternNames[p]
}

func (p Pattern) MarshalText() ([]byte, error) {
	if p >= patternCount {
		return nil, fmt.Errorf("unknown pattern %d", uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Pattern) UnmarshalText(text []byte) error {
	parsed, err := ParsePattern(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePattern accepts a pattern name such as "row-3" or "full-house".
func ParsePattern(name string) (Pattern, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range patternNames {
		if n == name {
			return Pattern(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown pattern %q", ErrInvalidRules, name)
}

// PatternSet is a bitmask of patterns.
type PatternSet uint16

// Set builds a PatternSet from individual patterns.
func Set(patterns ...Pattern) PatternSet {
	var s PatternSet
	for _, p := range patterns {
		s = s.With(p)
	}
	return s
}

// Common groups used when configuring prizes.
var (
	AnyRow    = Set(Row1, Row2, Row3, Row4, Row5)
	AnyColumn = Set(Col1, Col2, Col3, Col4, Col5)
	Diagonals = Set(Diagonal1, Diagonal2)
	AnyLine   = AnyRow | AnyColumn | Diagonals
)

var groupNames = map[string]PatternSet{
	"any-line":   AnyLine,
	"any-row":    AnyRow,
	"any-column": AnyColumn,
	"diagonals":  Diagonals,
	"line":       AnyLine,
	"x":          Diagonals,
}

// ParsePatternSet reads pattern and group names, e.g. ["any-row", "full-house"].
func ParsePatternSet(names []string) (PatternSet, error) {
	var s PatternSet
	for _, name := range names {
		if group, ok := groupNames[strings.ToLower(strings.TrimSpace(name))]; ok {
			s |= group
			continue
		}
		p, err := ParsePattern(name)
		if err != nil {
			return 0, err
		}
		s = s.With(p)
	}
	return s, nil
}

func (s PatternSet) With(p Pattern) PatternSet { return s | 1<<p }

func (s PatternSet) Has(p Pattern) bool { return s&(1<<p) != 0 }

// HasAll reports whether every pattern of other is in s.
func (s PatternSet) HasAll(other PatternSet) bool { return s&other == other }

// HasAny reports whether s and other share a pattern.
func (s PatternSet) HasAny(other PatternSet) bool { return s&other != 0 }

func (s PatternSet) Empty() bool { return s == 0 }

// Kinds lists the patterns in canonical order.
func (s PatternSet) Kinds() []Pattern {
	var out []Pattern
	for p := Pattern(0); p < patternCount; p++ {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

func (s PatternSet) String() string {
	kinds := s.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return "{" + strings.Join(names, ",") + "}"
}

func (s PatternSet) MarshalJSON() ([]byte, error) {
	kinds := s.Kinds()
	if kinds == nil {
		kinds = []Pattern{}
	}
	return json.Marshal(kinds)
}

func (s *PatternSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	parsed, err := ParsePatternSet(names)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Evaluate returns every pattern card satisfies against drawn. The free cell
// counts as covered.
func Evaluate(card Card, drawn []int) PatternSet {
	var marked [MaxNumber + 1]bool
	for _, n := range drawn {
		if n >= 1 && n <= MaxNumber {
			marked[n] = true
		}
	}
	covered := func(r, c int) bool {
		v := card.Grid[r][c]
		return v == Free || marked[v]
	}

	var s PatternSet
	full := true
	for i := 0; i < Size; i++ {
		row, col := true, true
		for j := 0; j < Size; j++ {
			if !covered(i, j) {
				row = false
				full = false
			}
			if !covered(j, i) {
				col = false
			}
		}
		if row {
			s = s.With(Row1 + Pattern(i))
		}
		if col {
			s = s.With(Col1 + Pattern(i))
		}
	}

	diag, anti := true, true
	for i := 0; i < Size; i++ {
		diag = diag && covered(i, i)
		anti = anti && covered(i, Size-1-i)
	}
	if diag {
		s = s.With(Diagonal1)
	}
	if anti {
		s = s.With(Diagonal2)
	}
	if covered(0, 0) && covered(0, Size-1) && covered(Size-1, 0) && covered(Size-1, Size-1) {
		s = s.With(FourCorners)
	}
	if full {
		s = s.With(FullHouse)
	}
	return s
}
