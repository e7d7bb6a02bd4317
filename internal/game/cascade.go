package game

import (
	"slices"

	"github.com/lox/chitgame/chit"
	"github.com/rs/zerolog"
)

// resolveWins settles every four of a kind created by a pass to first. Wins
// are processed breadth first from a queue: a winner's forced forward can
// complete the next player's hand, who is then queued in turn. Each player is
// evaluated at most once per call. It returns the last winner settled, or ""
// if nobody won.
func (e *Engine) resolveWins(state *RoundState, first string, res *PassResult, log zerolog.Logger) (string, error) {
	queue := []string{first}
	processed := make(map[string]bool)
	var lastWinner string

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if processed[id] {
			continue
		}
		processed[id] = true

		p, err := state.Player(id)
		if err != nil {
			return "", err
		}
		if !p.IsActive {
			continue
		}
		won, ok := chit.FourOfAKind(p.Cards)
		if !ok {
			continue
		}

		nextReceiver, err := e.settleWinner(state, p, won, res)
		if err != nil {
			return "", err
		}
		lastWinner = id
		log.Debug().
			Str("winner", id).
			Stringer("card", won).
			Int("finish_position", p.FinishPosition).
			Str("next_receiver", nextReceiver).
			Msg("four of a kind")

		if nextReceiver == "" {
			continue
		}
		nr, err := state.Player(nextReceiver)
		if err != nil {
			return "", err
		}
		if _, ok := chit.FourOfAKind(nr.Cards); ok {
			queue = append(queue, nextReceiver)
		}
	}
	return lastWinner, nil
}

// settleWinner scores the win, forwards one winning card and every leftover
// card to the next active player, clears the hand and eliminates the winner.
// It returns the player who received the forwarded cards, or "" when only
// one opponent remained and nothing was forwarded.
func (e *Engine) settleWinner(state *RoundState, winner *PlayerRoundState, won chit.CardType, res *PassResult) (string, error) {
	id := winner.PlayerID
	delta := won.WinScore()
	winner.Score += delta
	res.ScoreUpdates[id] += delta
	state.WinnerCards[id] = won

	var nextReceiver string
	if len(state.RemainingActive())-1 > 1 {
		var err error
		nextReceiver, err = state.PlayerAfter(id)
		if err != nil {
			return "", err
		}
		if err := forward(state, id, nextReceiver, won, res); err != nil {
			return "", err
		}
	}

	// The remaining matched copies are discarded.
	leftovers := slices.DeleteFunc(slices.Clone(winner.Cards), func(c chit.CardType) bool {
		return c == won
	})
	if nextReceiver != "" {
		for _, c := range leftovers {
			if err := forward(state, id, nextReceiver, c, res); err != nil {
				return "", err
			}
		}
	}
	winner.Cards = []chit.CardType{}

	if err := state.Eliminate(id, len(state.FinishOrder)+1); err != nil {
		return "", err
	}
	res.Winners = append(res.Winners, id)
	return nextReceiver, nil
}

func forward(state *RoundState, from, to string, card chit.CardType, res *PassResult) error {
	if err := state.moveCard(from, to, card); err != nil {
		return err
	}
	state.RecordPass(from, to, card)
	res.AutoTransfers = append(res.AutoTransfers, Transfer{Sender: from, Receiver: to, Card: card})
	return nil
}
