// Package deck implements the two cyclically drawn card sequences of a
// match. Each deck shuffles uniformly, deals every card exactly once
// per pass, and reshuffles on exhaustion.
package deck

import (
	"fmt"
	"math/rand"
)

// Deck holds one shuffled card sequence and the current draw cursor.
// A Deck is not safe for concurrent use; the owning match serializes
// access.
type Deck struct {
	kind   Kind
	cards  []Card
	order  []int
	cursor int
	rng    *rand.Rand
}

// New creates a shuffled deck of the given kind. The rng is owned by
// the caller's match so draws are reproducible under a fixed seed.
func New(kind Kind, rng *rand.Rand) (*Deck, error) {
	var cards []Card
	switch kind {
	case KindChance:
		cards = chanceCards()
	case KindCommunityChest:
		cards = communityChestCards()
	default:
		return nil, fmt.Errorf("unknown deck kind %q", kind)
	}

	d := &Deck{
		kind:  kind,
		cards: cards,
		order: make([]int, len(cards)),
		rng:   rng,
	}
	for i := range d.order {
		d.order[i] = i
	}
	d.shuffle()
	return d, nil
}

// Cards returns the full card list for a deck kind, in canonical
// order, independent of any shuffle.
func Cards(kind Kind) ([]Card, error) {
	switch kind {
	case KindChance:
		return chanceCards(), nil
	case KindCommunityChest:
		return communityChestCards(), nil
	default:
		return nil, fmt.Errorf("unknown deck kind %q", kind)
	}
}

// Kind returns the deck's kind.
func (d *Deck) Kind() Kind {
	return d.kind
}

// Size returns the number of cards in one full pass.
func (d *Deck) Size() int {
	return len(d.cards)
}

// Remaining returns how many cards are left before the next reshuffle.
func (d *Deck) Remaining() int {
	return len(d.order) - d.cursor
}

// Draw returns the next card. When the pass is exhausted the deck is
// reshuffled and drawing continues, so Draw never fails.
func (d *Deck) Draw() Card {
	if d.cursor >= len(d.order) {
		d.shuffle()
	}
	card := d.cards[d.order[d.cursor]]
	d.cursor++
	return card
}

// shuffle applies a Fisher-Yates permutation and resets the cursor.
func (d *Deck) shuffle() {
	for i := len(d.order) - 1; i > 0; i-- {
		j := d.rng.Intn(i + 1)
		d.order[i], d.order[j] = d.order[j], d.order[i]
	}
	d.cursor = 0
}

// DrawOrder returns the remaining draw order as card ids, front of the
// deck first. Used to persist a match mid-pass.
func (d *Deck) DrawOrder() []string {
	out := make([]string, 0, d.Remaining())
	for _, idx := range d.order[d.cursor:] {
		out = append(out, d.cards[idx].ID)
	}
	return out
}

// Restore rebuilds the remaining draw order from persisted card ids.
// Unknown ids fail rather than silently shrinking the deck.
func (d *Deck) Restore(remaining []string) error {
	byID := make(map[string]int, len(d.cards))
	for i, c := range d.cards {
		byID[c.ID] = i
	}

	seen := make(map[string]bool, len(remaining))
	tail := make([]int, 0, len(remaining))
	for _, id := range remaining {
		idx, ok := byID[id]
		if !ok {
			return fmt.Errorf("deck %s: unknown card id %q", d.kind, id)
		}
		if seen[id] {
			return fmt.Errorf("deck %s: duplicate card id %q", d.kind, id)
		}
		seen[id] = true
		tail = append(tail, idx)
	}

	// Cards already drawn this pass sit in front of the cursor so the
	// next reshuffle sees the full deck again.
	order := make([]int, 0, len(d.cards))
	for i, c := range d.cards {
		if !seen[c.ID] {
			order = append(order, i)
		}
	}
	d.cursor = len(order)
	d.order = append(order, tail...)
	return nil
}
