package game

import "fmt"

// Sequencer draws numbers for sessions without repetition.
type Sequencer struct {
	rng Rand
}

// NewSequencer returns a sequencer drawing from rng.
func NewSequencer(rng Rand) *Sequencer {
	return &Sequencer{rng: rng}
}

// DrawNext picks uniformly among the numbers not yet drawn in s, appends it
// to s.Drawn and returns it. It is the only place Drawn grows, and callers
// must not run it concurrently for the same session.
func (q *Sequencer) DrawNext(s *Session) (int, error) {
	if len(s.Drawn) >= MaxNumber {
		return 0, ErrNumbersExhausted
	}
	if s.Status != StatusActive {
		return 0, fmt.Errorf("%w: status %s", ErrGameNotActive, s.Status)
	}

	var drawn [MaxNumber + 1]bool
	for _, n := range s.Drawn {
		drawn[n] = true
	}
	remaining := make([]int, 0, MaxNumber-len(s.Drawn))
	for n := 1; n <= MaxNumber; n++ {
		if !drawn[n] {
			remaining = append(remaining, n)
		}
	}
	if len(remaining) == 0 {
		return 0, ErrNumbersExhausted
	}

	n := remaining[q.rng.Intn(len(remaining))]
	s.Drawn = append(s.Drawn, n)
	return n, nil
}
