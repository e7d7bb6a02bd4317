// Package chit defines the cards of the chit passing game and deals them.
package chit

import (
	"fmt"
	"slices"
	"strings"
)

// CardType is one of the four kinds of chit in the deck.
type CardType uint8

// The declaration order is the canonical order used when sorting hands.
const (
	Heart CardType = iota
	Diamond
	Tree
	BlackJack
)

const (
	// CopiesPerType is how many chits of each type the deck holds.
	CopiesPerType = 4
	// PlayerCount is the fixed number of seats at a round.
	PlayerCount = 4
	// HandSize is the number of chits each player is dealt.
	HandSize = 4
	// DeckSize is the total number of chits.
	DeckSize = CopiesPerType * 4
)

// CardTypes lists every card type in canonical order.
var CardTypes = [...]CardType{Heart, Diamond, Tree, BlackJack}

// Valid reports whether c is one of the four card types.
func (c CardType) Valid() bool {
	return c <= BlackJack
}

// Points returns the value of a single chit.
func (c CardType) Points() int {
	switch c {
	case Heart:
		return 250
	case Diamond:
		return 200
	case Tree:
		return 125
	case BlackJack:
		return 75
	default:
		return 0
	}
}

// WinScore is awarded to a player who collects all four copies of c.
func (c CardType) WinScore() int {
	return c.Points() * CopiesPerType
}

// String returns the wire name of the card type.
func (c CardType) String() string {
	switch c {
	case Heart:
		return "heart"
	case Diamond:
		return "diamond"
	case Tree:
		return "tree"
	case BlackJack:
		return "black_jack"
	default:
		return fmt.Sprintf("CardType(%d)", uint8(c))
	}
}

// ParseCardType parses a wire name or short alias, ignoring case.
func ParseCardType(s string) (CardType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "heart", "hearts", "h":
		return Heart, nil
	case "diamond", "diamonds", "d":
		return Diamond, nil
	case "tree", "trees", "t":
		return Tree, nil
	case "black_jack", "blackjack", "black-jack", "bj":
		return BlackJack, nil
	default:
		return 0, fmt.Errorf("chit: unknown card type %q", s)
	}
}

// MustParseCardType parses s and panics on failure. Intended for tests.
func MustParseCardType(s string) CardType {
	c, err := ParseCardType(s)
	if err != nil {
		panic(err)
	}
	return c
}

// MarshalText implements encoding.TextMarshaler.
func (c CardType) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("chit: invalid card type %d", uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CardType) UnmarshalText(text []byte) error {
	parsed, err := ParseCardType(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCards parses a comma separated list such as "heart,tree,bj".
func ParseCards(s string) ([]CardType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []CardType{}, nil
	}
	parts := strings.Split(s, ",")
	cards := make([]CardType, 0, len(parts))
	for _, part := range parts {
		c, err := ParseCardType(part)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// MustParseCards is ParseCards that panics on error.
func MustParseCards(s string) []CardType {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}

// CountOf returns how many copies of c the hand holds.
func CountOf(hand []CardType, c CardType) int {
	n := 0
	for _, card := range hand {
		if card == c {
			n++
		}
	}
	return n
}

// Counts tallies a hand by card type, indexed by CardType.
func Counts(hand []CardType) [len(CardTypes)]int {
	var counts [len(CardTypes)]int
	for _, card := range hand {
		if card.Valid() {
			counts[card]++
		}
	}
	return counts
}

// FourOfAKind returns the first card type, in canonical order, held at least
// CopiesPerType times.
func FourOfAKind(hand []CardType) (CardType, bool) {
	counts := Counts(hand)
	for _, c := range CardTypes {
		if counts[c] >= CopiesPerType {
			return c, true
		}
	}
	return 0, false
}

// SortCards returns a copy of hand in canonical order.
func SortCards(hand []CardType) []CardType {
	sorted := slices.Clone(hand)
	slices.Sort(sorted)
	return sorted
}

// FormatCards joins a hand into the form accepted by ParseCards.
func FormatCards(hand []CardType) string {
	names := make([]string, len(hand))
	for i, c := range hand {
		names[i] = c.String()
	}
	return strings.Join(names, ",")
}
