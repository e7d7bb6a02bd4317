package game

import (
	"fmt"
	"slices"

	"github.com/lox/chitgame/chit"
	"github.com/rs/zerolog"
)

// Transfer is a card moved from one hand to another.
type Transfer struct {
	Sender   string
	Receiver string
	Card     chit.CardType
}

// PassResult is the outcome of a successful PassCard call.
type PassResult struct {
	// State is the updated round. The state passed to PassCard is not modified.
	State    *RoundState
	Receiver string
	// ScoreUpdates holds the points each player gained during this call.
	ScoreUpdates map[string]int
	// AutoTransfers lists the forced forwards and leftover flushes in the
	// order they happened, for replication into the move log.
	AutoTransfers []Transfer
	// Winners lists the players who completed four of a kind, in order.
	Winners  []string
	Complete bool
	Draw     bool
}

// Engine applies moves to round states. It keeps no per-round data, so one
// Engine can serve any number of rounds; callers must not apply two moves to
// the same round concurrently.
type Engine struct {
	logger zerolog.Logger
}

// NewEngine returns an engine logging through logger.
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{logger: logger}
}

// ValidatePass checks that sender may pass card right now and returns the
// player who would receive it. It never modifies state.
func (e *Engine) ValidatePass(state *RoundState, sender string, card chit.CardType) (string, error) {
	if state.IsTerminal() {
		return "", fmt.Errorf("%w: round %s accepts no more passes", ErrRoundOver, state.RoundID)
	}
	if active := state.ActivePlayer(); sender != active {
		return "", fmt.Errorf("%w: %q tried to pass but it is %q's turn", ErrNotYourTurn, sender, active)
	}
	p, err := state.Player(sender)
	if err != nil {
		return "", err
	}
	if !card.Valid() || !slices.Contains(p.Cards, card) {
		return "", fmt.Errorf("%w: %q holds no %s", ErrCardNotHeld, sender, card)
	}
	receiver, err := state.PlayerAfter(sender)
	if err != nil {
		return "", err
	}
	if last, ok := state.LastCardFor(sender, receiver); ok && last == card {
		return "", fmt.Errorf("%w: %q already sent %s to %q", ErrRepeatedCard, sender, card, receiver)
	}
	return receiver, nil
}

// LegalCards returns the card types player may pass now, in canonical order.
// It is empty when it is not the player's turn or the round is over.
func LegalCards(state *RoundState, player string) []chit.CardType {
	if state.IsTerminal() || state.ActivePlayer() != player {
		return nil
	}
	p, err := state.Player(player)
	if err != nil {
		return nil
	}
	receiver, err := state.PlayerAfter(player)
	if err != nil {
		return nil
	}
	last, hasLast := state.LastCardFor(player, receiver)
	counts := chit.Counts(p.Cards)
	legal := make([]chit.CardType, 0, len(chit.CardTypes))
	for _, c := range chit.CardTypes {
		if counts[c] == 0 || (hasLast && last == c) {
			continue
		}
		legal = append(legal, c)
	}
	return legal
}

// PassCard applies a pass from sender and resolves everything it triggers:
// chained wins, forced forwards, round completion and draws. On error the
// input state is unchanged and no result is returned.
func (e *Engine) PassCard(state *RoundState, sender string, card chit.CardType) (*PassResult, error) {
	receiver, err := e.ValidatePass(state, sender, card)
	if err != nil {
		return nil, err
	}

	next := state.Clone()
	res := &PassResult{
		State:         next,
		Receiver:      receiver,
		ScoreUpdates:  make(map[string]int),
		AutoTransfers: []Transfer{},
	}
	if err := next.moveCard(sender, receiver, card); err != nil {
		return nil, err
	}
	next.RecordPass(sender, receiver, card)

	log := e.logger.With().Str("round_id", next.RoundID).Int("turn", next.TurnCounter).Logger()
	log.Debug().Str("sender", sender).Str("receiver", receiver).Stringer("card", card).Msg("card passed")

	lastWinner, err := e.resolveWins(next, receiver, res, log)
	if err != nil {
		return nil, err
	}

	if next.IsComplete() {
		if err := finishRound(next); err != nil {
			return nil, err
		}
		next.TurnCounter++
		res.Complete = true
		log.Debug().Strs("finish_order", next.FinishOrder).Msg("round complete")
		return res, nil
	}

	var nextActive string
	switch {
	case lastWinner != "":
		nextActive, err = next.PlayerAfter(lastWinner)
	case slices.Contains(next.FinishOrder, receiver):
		nextActive, err = next.PlayerAfter(receiver)
	default:
		nextActive = receiver
	}
	if err != nil {
		return nil, err
	}
	if err := next.SetActive(nextActive); err != nil {
		return nil, err
	}
	next.TurnCounter++

	if next.RegisterSignature() && len(next.RemainingActive()) == 2 && !next.IsDrawn() {
		declareDraw(next)
		res.Draw = true
		log.Debug().Strs("players", next.DrawPlayers).Msg("draw declared")
	}
	return res, nil
}

// finishRound eliminates the last player standing as the round's loser.
func finishRound(state *RoundState) error {
	remaining := state.RemainingActive()
	if len(remaining) == 0 {
		return nil
	}
	return state.Eliminate(remaining[0], len(state.FinishOrder)+1)
}

// declareDraw ends the round with the two remaining players tied. They are
// appended to the finish order without a finish position.
func declareDraw(state *RoundState) {
	remaining := state.RemainingActive()
	for _, id := range remaining {
		p := state.Players[id]
		p.IsActive = false
		p.FinishPosition = 0
	}
	state.FinishOrder = append(state.FinishOrder, remaining...)
	state.DrawPlayers = slices.Clone(remaining)
}
