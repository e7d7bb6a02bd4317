package game

import (
	"fmt"
	"maps"
	"slices"

	"github.com/lox/chitgame/chit"
)

// PlayerRoundState is one seat's view of a round.
type PlayerRoundState struct {
	PlayerID     string
	SeatPosition int
	Cards        []chit.CardType
	IsActive     bool
	// FinishPosition is 0 until the player is eliminated. Drawn players
	// leave the round without one.
	FinishPosition int
	Score          int
}

// Edge is a directed sender to receiver pair.
type Edge struct {
	Sender   string
	Receiver string
}

// RoundState is the complete, serializable state of one round.
type RoundState struct {
	RoundID string
	GameID  string
	// TurnOrder holds the four player ids by ascending seat and never changes.
	TurnOrder         []string
	ActivePlayerIndex int
	Players           map[string]*PlayerRoundState
	// FinishOrder is append-only.
	FinishOrder     []string
	WinnerCards     map[string]chit.CardType
	LastCardPerPair map[Edge]chit.CardType
	TurnCounter     int
	StateSignatures map[string]struct{}
	// DrawPlayers is empty or holds exactly the two players of a draw.
	DrawPlayers []string
}

// ActivePlayer returns the id of the player whose turn it is.
func (s *RoundState) ActivePlayer() string {
	if s.ActivePlayerIndex < 0 || s.ActivePlayerIndex >= len(s.TurnOrder) {
		return ""
	}
	return s.TurnOrder[s.ActivePlayerIndex]
}

// Player returns the per-player state for id.
func (s *RoundState) Player(id string) (*PlayerRoundState, error) {
	p, ok := s.Players[id]
	if !ok || p == nil {
		return nil, fmt.Errorf("%w: player %q is not part of round %s", ErrInvariantViolation, id, s.RoundID)
	}
	return p, nil
}

// PlayerAfter returns the first active player seated strictly after id,
// wrapping around the table.
func (s *RoundState) PlayerAfter(id string) (string, error) {
	idx := slices.Index(s.TurnOrder, id)
	if idx < 0 {
		return "", fmt.Errorf("%w: player %q is not in the turn order", ErrInvariantViolation, id)
	}
	n := len(s.TurnOrder)
	for step := 1; step < n; step++ {
		candidate := s.TurnOrder[(idx+step)%n]
		p, err := s.Player(candidate)
		if err != nil {
			return "", err
		}
		if p.IsActive {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no active player after %q", ErrInvariantViolation, id)
}

// RecordPass remembers card as the last one sent from sender to receiver.
func (s *RoundState) RecordPass(sender, receiver string, card chit.CardType) {
	if s.LastCardPerPair == nil {
		s.LastCardPerPair = make(map[Edge]chit.CardType)
	}
	s.LastCardPerPair[Edge{Sender: sender, Receiver: receiver}] = card
}

// LastCardFor returns the last card sent from sender to receiver, if any.
func (s *RoundState) LastCardFor(sender, receiver string) (chit.CardType, bool) {
	card, ok := s.LastCardPerPair[Edge{Sender: sender, Receiver: receiver}]
	return card, ok
}

// Eliminate takes id out of play with the given finish position.
func (s *RoundState) Eliminate(id string, finishPosition int) error {
	p, err := s.Player(id)
	if err != nil {
		return err
	}
	if !p.IsActive {
		return fmt.Errorf("%w: player %q is already out of the round", ErrInvariantViolation, id)
	}
	p.IsActive = false
	p.FinishPosition = finishPosition
	s.FinishOrder = append(s.FinishOrder, id)
	return nil
}

// RemainingActive returns the players still in play, in turn order.
func (s *RoundState) RemainingActive() []string {
	active := make([]string, 0, len(s.TurnOrder))
	for _, id := range s.TurnOrder {
		if p, ok := s.Players[id]; ok && p.IsActive {
			active = append(active, id)
		}
	}
	return active
}

// IsComplete reports whether at most one player is still in play.
func (s *RoundState) IsComplete() bool {
	return len(s.RemainingActive()) <= 1
}

// IsDrawn reports whether the round ended in a draw.
func (s *RoundState) IsDrawn() bool {
	return len(s.DrawPlayers) > 0
}

// IsTerminal reports whether the round accepts no further moves.
func (s *RoundState) IsTerminal() bool {
	return s.IsComplete() || s.IsDrawn()
}

// SetActive hands the turn to id.
func (s *RoundState) SetActive(id string) error {
	idx := slices.Index(s.TurnOrder, id)
	if idx < 0 {
		return fmt.Errorf("%w: cannot activate %q, not part of round %s", ErrInvariantViolation, id, s.RoundID)
	}
	s.ActivePlayerIndex = idx
	return nil
}

// Clone returns a deep copy of the round.
func (s *RoundState) Clone() *RoundState {
	c := &RoundState{
		RoundID:           s.RoundID,
		GameID:            s.GameID,
		TurnOrder:         slices.Clone(s.TurnOrder),
		ActivePlayerIndex: s.ActivePlayerIndex,
		Players:           make(map[string]*PlayerRoundState, len(s.Players)),
		FinishOrder:       slices.Clone(s.FinishOrder),
		WinnerCards:       maps.Clone(s.WinnerCards),
		LastCardPerPair:   maps.Clone(s.LastCardPerPair),
		TurnCounter:       s.TurnCounter,
		StateSignatures:   maps.Clone(s.StateSignatures),
		DrawPlayers:       slices.Clone(s.DrawPlayers),
	}
	for id, p := range s.Players {
		cp := *p
		cp.Cards = slices.Clone(p.Cards)
		c.Players[id] = &cp
	}
	if c.WinnerCards == nil {
		c.WinnerCards = make(map[string]chit.CardType)
	}
	if c.LastCardPerPair == nil {
		c.LastCardPerPair = make(map[Edge]chit.CardType)
	}
	if c.StateSignatures == nil {
		c.StateSignatures = make(map[string]struct{})
	}
	return c
}

// moveCard moves one copy of card between two hands.
func (s *RoundState) moveCard(from, to string, card chit.CardType) error {
	src, err := s.Player(from)
	if err != nil {
		return err
	}
	dst, err := s.Player(to)
	if err != nil {
		return err
	}
	idx := slices.Index(src.Cards, card)
	if idx < 0 {
		return fmt.Errorf("%w: %s holds no %s", ErrInvariantViolation, from, card)
	}
	src.Cards = slices.Delete(src.Cards, idx, idx+1)
	dst.Cards = append(dst.Cards, card)
	return nil
}

// Outcome names how a round ended.
type Outcome string

const (
	OutcomeInProgress Outcome = "in_progress"
	OutcomeComplete   Outcome = "complete"
	OutcomeDraw       Outcome = "draw"
	// OutcomeStalled marks a round abandoned by its driver before it ended,
	// for example when the active player has no legal card.
	OutcomeStalled Outcome = "stalled"
)

// Outcome reports how the round ended so far. Rounds are never stalled on
// their own; only a driver giving up on a round records that outcome.
func (s *RoundState) Outcome() Outcome {
	switch {
	case s.IsDrawn():
		return OutcomeDraw
	case s.IsComplete():
		return OutcomeComplete
	default:
		return OutcomeInProgress
	}
}
