package game

import (
	"errors"

	"github.com/lox/chitgame/chit"
)

// Rule violations. A pass rejected with one of these leaves the round
// untouched and should be shown to the player as a rejected move.
var (
	ErrNotYourTurn  = errors.New("not your turn")
	ErrCardNotHeld  = errors.New("card not held")
	ErrRepeatedCard = errors.New("cannot pass the same card type consecutively to this player")
	ErrRoundOver    = errors.New("round is over")
)

// Integration failures. These mean the caller broke the engine's contract and
// the request should fail without retrying.
var (
	ErrInvalidSetup       = chit.ErrInvalidSetup
	ErrInvariantViolation = errors.New("invariant violation")
)

// IsRuleViolation reports whether err rejects a move for breaking a game rule,
// as opposed to signalling a broken integration.
func IsRuleViolation(err error) bool {
	return errors.Is(err, ErrNotYourTurn) ||
		errors.Is(err, ErrCardNotHeld) ||
		errors.Is(err, ErrRepeatedCard) ||
		errors.Is(err, ErrRoundOver)
}
