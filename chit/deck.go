package chit

import (
	"errors"
	"fmt"
	rand "math/rand/v2"

	"github.com/lox/chitgame/internal/randutil"
)

// ErrInvalidSetup is returned when a deal is requested for anything other
// than four distinct players.
var ErrInvalidSetup = errors.New("invalid setup")

// Deck is the 16-chit deck. Cards are drawn from the end.
type Deck struct {
	cards [DeckSize]CardType
	left  int
	rng   *rand.Rand
}

// NewDeck creates a shuffled deck. A nil rng seeds from system entropy.
func NewDeck(rng *rand.Rand) *Deck {
	if rng == nil {
		rng = randutil.New(randutil.Entropy())
	}
	d := &Deck{rng: rng}
	d.Reset()
	return d
}

// BuildDeck returns the shuffled card order for seed.
func BuildDeck(seed int64) []CardType {
	d := NewDeck(randutil.New(seed))
	return d.Cards()
}

// Reset restores all 16 cards in canonical order and shuffles them.
func (d *Deck) Reset() {
	i := 0
	for _, c := range CardTypes {
		for range CopiesPerType {
			d.cards[i] = c
			i++
		}
	}
	d.left = DeckSize
	d.Shuffle()
}

// Shuffle shuffles the remaining cards using Fisher-Yates.
func (d *Deck) Shuffle() {
	for i := d.left - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw removes and returns the last card in the deck.
func (d *Deck) Draw() (CardType, bool) {
	if d.left == 0 {
		return 0, false
	}
	d.left--
	return d.cards[d.left], true
}

// Cards returns a copy of the cards still in the deck, bottom first.
func (d *Deck) Cards() []CardType {
	out := make([]CardType, d.left)
	copy(out, d.cards[:d.left])
	return out
}

// CardsRemaining returns the number of cards left to draw.
func (d *Deck) CardsRemaining() int {
	return d.left
}

// Dealer deals fresh decks to a table of four.
type Dealer struct {
	rng *rand.Rand
}

// NewDealer returns a dealer drawing shuffles from rng. A nil rng seeds from
// system entropy.
func NewDealer(rng *rand.Rand) *Dealer {
	if rng == nil {
		rng = randutil.New(randutil.Entropy())
	}
	return &Dealer{rng: rng}
}

// NewSeededDealer returns a dealer whose deals are reproducible for seed.
func NewSeededDealer(seed int64) *Dealer {
	return NewDealer(randutil.New(seed))
}

// Deal shuffles a new deck and deals it round-robin in the order given until
// the deck is exhausted, so every player receives HandSize cards.
func (d *Dealer) Deal(players []string) (map[string][]CardType, error) {
	if err := checkPlayers(players); err != nil {
		return nil, err
	}

	deck := NewDeck(d.rng)
	hands := make(map[string][]CardType, len(players))
	for _, p := range players {
		hands[p] = make([]CardType, 0, HandSize)
	}
	for deck.CardsRemaining() > 0 {
		for _, p := range players {
			card, ok := deck.Draw()
			if !ok {
				break
			}
			hands[p] = append(hands[p], card)
		}
	}
	return hands, nil
}

func checkPlayers(players []string) error {
	if len(players) != PlayerCount {
		return fmt.Errorf("%w: exactly %d players are required, got %d", ErrInvalidSetup, PlayerCount, len(players))
	}
	seen := make(map[string]bool, len(players))
	for _, p := range players {
		if p == "" {
			return fmt.Errorf("%w: empty player id", ErrInvalidSetup)
		}
		if seen[p] {
			return fmt.Errorf("%w: duplicate player %q", ErrInvalidSetup, p)
		}
		seen[p] = true
	}
	return nil
}
