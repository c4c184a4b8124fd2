package services

import (
	"fmt"
	"strconv"

	"github.com/bellapacxx/bingo-engine/game"
)

// BingoCard is the column-wise card format of cards.json. N holds either
// five numbers with 0 in the middle or the four numbers around the free
// space.
type BingoCard struct {
	B      []int `json:"B"`
	I      []int `json:"I"`
	N      []int `json:"N"`
	G      []int `json:"G"`
	O      []int `json:"O"`
	CardID int   `json:"card_id"`
}

// Card converts to an engine card and validates it.
func (b BingoCard) Card() (game.Card, error) {
	n := b.N
	if len(n) == game.Size-1 {
		n = []int{n[0], n[1], game.Free, n[2], n[3]}
	}
	cols := [game.Size][]int{b.B, b.I, n, b.G, b.O}
	c := game.Card{ID: strconv.Itoa(b.CardID), Theme: game.Themes[0]}
	for col, nums := range cols {
		if len(nums) != game.Size {
			return game.Card{}, fmt.Errorf("card %d: column %c has %d numbers", b.CardID, "BINGO"[col], len(nums))
		}
		for row, v := range nums {
			c.Grid[row][col] = v
		}
	}
	if err := c.Validate(); err != nil {
		return game.Card{}, fmt.Errorf("card %d: %w", b.CardID, err)
	}
	return c, nil
}

// ColumnsOf renders an engine card in the cards.json format. ids that are
// not numbers get card_id 0.
func ColumnsOf(c game.Card) BingoCard {
	id, _ := strconv.Atoi(c.ID)
	out := BingoCard{CardID: id}
	cols := [game.Size]*[]int{&out.B, &out.I, &out.N, &out.G, &out.O}
	for col, dst := range cols {
		for row := 0; row < game.Size; row++ {
			*dst = append(*dst, c.Grid[row][col])
		}
	}
	return out
}
