package game

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/lox/chitgame/chit"
)

// MaxMatchRounds caps the number of rounds in one match.
const MaxMatchRounds = 50

// Match sequencing errors.
var (
	ErrMatchOver       = errors.New("all rounds of the match have been played")
	ErrRoundInProgress = errors.New("current round has not finished")
	ErrWrongStarter    = errors.New("player is not the starter of this round")
)

// StarterForRound returns the player who opens round n (1-based). Starts
// rotate through the seats: round 1 opens at seat 1, round 5 wraps back to
// seat 1.
func StarterForRound(seats []Seat, n int) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("%w: round number %d", ErrInvalidSetup, n)
	}
	ordered, err := orderSeats(seats)
	if err != nil {
		return "", err
	}
	return ordered[(n-1)%len(ordered)].PlayerID, nil
}

// Match runs the rounds of one game in sequence and keeps each player's game
// score as the sum of their round scores.
type Match struct {
	GameID      string
	Seats       []Seat
	TotalRounds int
	// CurrentRound is the 1-based number of the latest round, 0 before the
	// first one starts.
	CurrentRound int
	Scores       map[string]int

	roundOpen bool
}

// NewMatch prepares a match of totalRounds rounds between seats.
func NewMatch(gameID string, seats []Seat, totalRounds int) (*Match, error) {
	if totalRounds < 1 || totalRounds > MaxMatchRounds {
		return nil, fmt.Errorf("%w: total rounds must be 1-%d, got %d", ErrInvalidSetup, MaxMatchRounds, totalRounds)
	}
	ordered, err := orderSeats(seats)
	if err != nil {
		return nil, err
	}
	m := &Match{
		GameID:      gameID,
		Seats:       ordered,
		TotalRounds: totalRounds,
		Scores:      make(map[string]int, len(ordered)),
	}
	for _, seat := range ordered {
		m.Scores[seat.PlayerID] = 0
	}
	return m, nil
}

// NextStarter returns the player who opens the upcoming round.
func (m *Match) NextStarter() (string, error) {
	if m.CurrentRound >= m.TotalRounds {
		return "", ErrMatchOver
	}
	return StarterForRound(m.Seats, m.CurrentRound+1)
}

// StartRound deals the next round. A non-empty starter must be the player
// whose turn it is to open; an empty starter picks them.
func (m *Match) StartRound(roundID, starter string, dealer *chit.Dealer) (*RoundState, error) {
	if m.roundOpen {
		return nil, fmt.Errorf("%w: round %d", ErrRoundInProgress, m.CurrentRound)
	}
	expected, err := m.NextStarter()
	if err != nil {
		return nil, err
	}
	if starter != "" && starter != expected {
		return nil, fmt.Errorf("%w: round %d opens with %q, not %q", ErrWrongStarter, m.CurrentRound+1, expected, starter)
	}

	state, err := CreateRound(roundID, m.GameID, m.Seats, dealer, WithStarter(expected))
	if err != nil {
		return nil, err
	}
	m.CurrentRound++
	m.roundOpen = true
	return state, nil
}

// Apply adds a pass's score updates to the game totals and closes the round
// once the pass ended it.
func (m *Match) Apply(res *PassResult) {
	for id, delta := range res.ScoreUpdates {
		m.Scores[id] += delta
	}
	if res.Complete || res.Draw {
		m.roundOpen = false
	}
}

// EndRound closes the current round without a terminal pass, as when a
// driver abandons a stalled round.
func (m *Match) EndRound() {
	m.roundOpen = false
}

// InRound reports whether a round is being played.
func (m *Match) InRound() bool {
	return m.roundOpen
}

// IsComplete reports whether every round has been played to its end.
func (m *Match) IsComplete() bool {
	return m.CurrentRound >= m.TotalRounds && !m.roundOpen
}

// Leaders returns the players with the highest game score in seat order.
func (m *Match) Leaders() []string {
	if len(m.Scores) == 0 {
		return nil
	}
	best := slices.Max(slices.Collect(maps.Values(m.Scores)))
	var leaders []string
	for _, seat := range m.Seats {
		if m.Scores[seat.PlayerID] == best {
			leaders = append(leaders, seat.PlayerID)
		}
	}
	return leaders
}
