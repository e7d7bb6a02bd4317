package game

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/lox/chitgame/chit"
)

// Seat assigns a player to a seat position (1-4).
type Seat struct {
	PlayerID string
	Position int
}

// RoundOption configures a round during creation.
type RoundOption func(*roundConfig)

type roundConfig struct {
	starter string
}

// WithStarter lets the given player act first instead of the lowest seat.
func WithStarter(playerID string) RoundOption {
	return func(c *roundConfig) {
		c.starter = playerID
	}
}

// CreateRound deals a fresh deck with dealer and builds the opening state.
// Cards are dealt in turn order.
func CreateRound(roundID, gameID string, seats []Seat, dealer *chit.Dealer, opts ...RoundOption) (*RoundState, error) {
	ordered, err := orderSeats(seats)
	if err != nil {
		return nil, err
	}
	players := make([]string, len(ordered))
	for i, seat := range ordered {
		players[i] = seat.PlayerID
	}
	hands, err := dealer.Deal(players)
	if err != nil {
		return nil, err
	}
	return NewRound(roundID, gameID, ordered, hands, opts...)
}

// NewRound builds the opening state of a round from already dealt hands.
//
// Turn order follows ascending seat position and the lowest seat acts first
// unless WithStarter says otherwise. The opening position is registered as
// the first signature so a later exact repeat counts as its second occurrence.
func NewRound(roundID, gameID string, seats []Seat, hands map[string][]chit.CardType, opts ...RoundOption) (*RoundState, error) {
	cfg := &roundConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	ordered, err := orderSeats(seats)
	if err != nil {
		return nil, err
	}
	if err := checkHands(ordered, hands); err != nil {
		return nil, err
	}

	state := &RoundState{
		RoundID:         roundID,
		GameID:          gameID,
		TurnOrder:       make([]string, 0, len(ordered)),
		Players:         make(map[string]*PlayerRoundState, len(ordered)),
		FinishOrder:     []string{},
		WinnerCards:     make(map[string]chit.CardType),
		LastCardPerPair: make(map[Edge]chit.CardType),
		StateSignatures: make(map[string]struct{}),
		DrawPlayers:     []string{},
	}
	for _, seat := range ordered {
		state.TurnOrder = append(state.TurnOrder, seat.PlayerID)
		state.Players[seat.PlayerID] = &PlayerRoundState{
			PlayerID:     seat.PlayerID,
			SeatPosition: seat.Position,
			Cards:        slices.Clone(hands[seat.PlayerID]),
			IsActive:     true,
		}
	}

	if cfg.starter != "" {
		if err := state.SetActive(cfg.starter); err != nil {
			return nil, fmt.Errorf("%w: starter %q is not seated", ErrInvalidSetup, cfg.starter)
		}
	}

	state.RegisterSignature()
	return state, nil
}

func orderSeats(seats []Seat) ([]Seat, error) {
	if len(seats) != chit.PlayerCount {
		return nil, fmt.Errorf("%w: exactly %d players are required, got %d", ErrInvalidSetup, chit.PlayerCount, len(seats))
	}
	ordered := slices.Clone(seats)
	slices.SortFunc(ordered, func(a, b Seat) int {
		return cmp.Compare(a.Position, b.Position)
	})

	ids := make(map[string]bool, len(ordered))
	for i, seat := range ordered {
		if seat.PlayerID == "" {
			return nil, fmt.Errorf("%w: empty player id", ErrInvalidSetup)
		}
		if ids[seat.PlayerID] {
			return nil, fmt.Errorf("%w: player %q is seated twice", ErrInvalidSetup, seat.PlayerID)
		}
		ids[seat.PlayerID] = true
		// Sorted positions must be exactly 1..4.
		if seat.Position != i+1 {
			return nil, fmt.Errorf("%w: seat positions must be 1-%d without repeats", ErrInvalidSetup, chit.PlayerCount)
		}
	}
	return ordered, nil
}

func checkHands(seats []Seat, hands map[string][]chit.CardType) error {
	if len(hands) != len(seats) {
		return fmt.Errorf("%w: %d hands for %d players", ErrInvalidSetup, len(hands), len(seats))
	}
	var all []chit.CardType
	for _, seat := range seats {
		hand, ok := hands[seat.PlayerID]
		if !ok {
			return fmt.Errorf("%w: no hand dealt to %q", ErrInvalidSetup, seat.PlayerID)
		}
		for _, c := range hand {
			if !c.Valid() {
				return fmt.Errorf("%w: invalid card in %q's hand", ErrInvalidSetup, seat.PlayerID)
			}
		}
		all = append(all, hand...)
	}
	if len(all) != chit.DeckSize {
		return fmt.Errorf("%w: hands hold %d cards, want %d", ErrInvalidSetup, len(all), chit.DeckSize)
	}
	counts := chit.Counts(all)
	for _, c := range chit.CardTypes {
		if counts[c] != chit.CopiesPerType {
			return fmt.Errorf("%w: hands hold %d %s, want %d", ErrInvalidSetup, counts[c], c, chit.CopiesPerType)
		}
	}
	return nil
}
