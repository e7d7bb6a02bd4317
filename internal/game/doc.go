// Package game implements the rules of a four player chit passing round.
//
// A round starts from a dealt RoundState built by NewRound or CreateRound.
// Every move is a call to Engine.PassCard with the latest state, which
// returns an updated copy together with the score changes and the automatic
// transfers the move triggered:
//
//	state, _ := game.CreateRound(roundID, gameID, seats, chit.NewSeededDealer(42))
//	res, err := engine.PassCard(state, state.ActivePlayer(), chit.Heart)
//	if game.IsRuleViolation(err) {
//	    // reject the move, state is unchanged
//	}
//	state = res.State
//
// # Rules
//
// The active player passes one chit to the next active player in seat
// order, but never the same type twice in a row along the same direction.
// A player holding four of one type wins: they score four times the card's
// value, forward one winning chit and all their other chits to the next
// active player, and leave the round. Forwards can complete another hand,
// which is resolved within the same move. When one player is left they
// finish last. If two players are left and the whole table position
// repeats, the round is a draw.
//
// The engine holds no state between calls. Persisting RoundState between
// moves, and serialising moves on the same round, is the caller's job.
package game
