package game

import (
	"fmt"
	"sort"
)

// Tier is a flat price charged once a purchase reaches MinCards.
type Tier struct {
	MinCards int   `json:"min_cards" toml:"min_cards"`
	Price    int64 `json:"price" toml:"price"`
}

// PriceTable maps a card count to its total cost.
type PriceTable struct {
	UnitPrice int64  `json:"unit_price" toml:"unit_price"`
	MaxCards  int    `json:"max_cards" toml:"max_cards"`
	Tiers     []Tier `json:"tiers" toml:"tiers"`
}

// DefaultPriceTable is 10 coins per card with bundles at 3, 5 and 10 cards.
func DefaultPriceTable() PriceTable {
	return PriceTable{
		UnitPrice: 10,
		MaxCards:  20,
		Tiers: []Tier{
			{MinCards: 10, Price: 75},
			{MinCards: 5, Price: 40},
			{MinCards: 3, Price: 27},
		},
	}
}

// Validate rejects tables whose tiers do not discount or whose totals shrink
// as the count grows.
func (t PriceTable) Validate() error {
	if t.UnitPrice <= 0 {
		return fmt.Errorf("%w: unit price must be positive", ErrInvalidRules)
	}
	if t.MaxCards < 1 {
		return fmt.Errorf("%w: max cards must be positive", ErrInvalidRules)
	}
	tiers := t.sorted()
	var prev int64
	for i, tier := range tiers {
		if tier.MinCards < 2 || tier.MinCards > t.MaxCards {
			return fmt.Errorf("%w: tier at %d cards outside 2-%d", ErrInvalidRules, tier.MinCards, t.MaxCards)
		}
		if i > 0 && tiers[i-1].MinCards == tier.MinCards {
			return fmt.Errorf("%w: duplicate tier at %d cards", ErrInvalidRules, tier.MinCards)
		}
		if tier.Price >= int64(tier.MinCards)*t.UnitPrice {
			return fmt.Errorf("%w: tier at %d cards is not a discount", ErrInvalidRules, tier.MinCards)
		}
		// The last card count charged at the previous rate must not cost more
		// than entering this tier.
		below := int64(tier.MinCards-1) * t.UnitPrice
		if i > 0 {
			below = prev
		}
		if tier.Price < below {
			return fmt.Errorf("%w: tier at %d cards costs less than fewer cards", ErrInvalidRules, tier.MinCards)
		}
		prev = tier.Price
	}
	return nil
}

// sorted returns the tiers ordered by ascending MinCards.
func (t PriceTable) sorted() []Tier {
	tiers := append([]Tier(nil), t.Tiers...)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinCards < tiers[j].MinCards })
	return tiers
}

// Price returns the total cost of count cards.
func (t PriceTable) Price(count int) (int64, error) {
	if count < 1 || count > t.MaxCards {
		return 0, fmt.Errorf("%w: %d (allowed 1-%d)", ErrInvalidCardCount, count, t.MaxCards)
	}
	tiers := t.sorted()
	for i := len(tiers) - 1; i >= 0; i-- {
		if count >= tiers[i].MinCards {
			return tiers[i].Price, nil
		}
	}
	return int64(count) * t.UnitPrice, nil
}

// Discount returns the whole percentage saved against the unit price.
func (t PriceTable) Discount(count int) (int, error) {
	price, err := t.Price(count)
	if err != nil {
		return 0, err
	}
	full := int64(count) * t.UnitPrice
	return int((full - price) * 100 / full), nil
}

// Bundle is a named card count offered as a one-click purchase.
type Bundle struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Bundles lists the named purchase sizes.
var Bundles = []Bundle{
	{Name: "beginner", Count: 3},
	{Name: "regular", Count: 5},
	{Name: "pro", Count: 10},
	{Name: "mega", Count: 20},
}

// BundleCount resolves a bundle name to its card count.
func BundleCount(name string) (int, bool) {
	for _, b := range Bundles {
		if b.Name == name {
			return b.Count, true
		}
	}
	return 0, false
}

// QuickSelectCounts are the sizes Engine.QuickSelect offers.
var QuickSelectCounts = []int{1, 3, 5}
