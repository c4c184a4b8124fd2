package game

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Prize is one payout position. It is won by the first player whose card
// satisfies Patterns: any of them, or all of them when MatchAll is set.
type Prize struct {
	Name     string          `json:"name"`
	Patterns PatternSet      `json:"patterns"`
	MatchAll bool            `json:"match_all,omitempty"`
	Share    decimal.Decimal `json:"share"`
}

// Satisfied reports which of the prize's patterns the card covers, and
// whether that is enough to win.
func (p Prize) Satisfied(have PatternSet) (Pattern, bool) {
	hit := have & p.Patterns
	if hit == 0 {
		return 0, false
	}
	if p.MatchAll && !have.HasAll(p.Patterns) {
		return 0, false
	}
	// Report the most valuable pattern covered: full-house over lines.
	kinds := hit.Kinds()
	return kinds[len(kinds)-1], true
}

// Rules configure what counts as a win and how the prize pool is split.
type Rules struct {
	Prizes []Prize `json:"prizes"`
	// CloseAtStart rejects purchases once the game is active.
	CloseAtStart bool `json:"close_at_start,omitempty"`
	// PoolContribution is the fraction of each purchase added to the pool.
	PoolContribution decimal.Decimal `json:"pool_contribution"`
}

// Validate checks that there is at least one prize, that every prize names
// a pattern, and that the shares fit inside the pool.
func (r Rules) Validate() error {
	if len(r.Prizes) == 0 {
		return fmt.Errorf("%w: at least one prize is required", ErrInvalidRules)
	}
	total := decimal.Zero
	for i, p := range r.Prizes {
		if p.Patterns.Empty() {
			return fmt.Errorf("%w: prize %d has no patterns", ErrInvalidRules, i+1)
		}
		if !p.Share.IsPositive() {
			return fmt.Errorf("%w: prize %d share must be positive", ErrInvalidRules, i+1)
		}
		total = total.Add(p.Share)
	}
	if total.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: prize shares sum to %s", ErrInvalidRules, total)
	}
	if r.PoolContribution.IsNegative() || r.PoolContribution.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: pool contribution %s outside 0-1", ErrInvalidRules, r.PoolContribution)
	}
	return nil
}

// PrizeAmount is floor(pool * share) for position (1-based).
func (r Rules) PrizeAmount(pool int64, position int) int64 {
	if position < 1 || position > len(r.Prizes) {
		return 0
	}
	return decimal.NewFromInt(pool).Mul(r.Prizes[position-1].Share).Floor().IntPart()
}

// Contribution is the part of a purchase price that grows the pool.
func (r Rules) Contribution(price int64) int64 {
	return decimal.NewFromInt(price).Mul(r.PoolContribution).Floor().IntPart()
}

var one = decimal.NewFromInt(1)

// Preset rule sets by name.
var presets = map[string]Rules{
	"classic": {Prizes: []Prize{
		{Name: "full-house", Patterns: Set(FullHouse), Share: one},
	}},
	"full-house": {Prizes: []Prize{
		{Name: "full-house", Patterns: Set(FullHouse), Share: one},
	}},
	"any-line": {Prizes: []Prize{
		{Name: "line", Patterns: AnyLine, Share: one},
	}},
	"line": {Prizes: []Prize{
		{Name: "line", Patterns: AnyLine, Share: one},
	}},
	"four-corners": {Prizes: []Prize{
		{Name: "four-corners", Patterns: Set(FourCorners), Share: one},
	}},
	"x": {Prizes: []Prize{
		{Name: "x", Patterns: Diagonals, MatchAll: true, Share: one},
	}},
	"line-then-house": {Prizes: []Prize{
		{Name: "line", Patterns: AnyLine, Share: decimal.RequireFromString("0.3")},
		{Name: "full-house", Patterns: Set(FullHouse), Share: decimal.RequireFromString("0.7")},
	}},
}

// PresetRules returns a named rule set.
func PresetRules(name string) (Rules, error) {
	r, ok := presets[name]
	if !ok {
		return Rules{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidRules, name)
	}
	r.Prizes = append([]Prize(nil), r.Prizes...)
	return r, nil
}

// DefaultRules is a single full-house prize taking the whole pool.
func DefaultRules() Rules {
	r, _ := PresetRules("classic")
	return r
}
