package game

import (
	"testing"

	"github.com/lox/chitgame/chit"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testSeats = []Seat{
	{PlayerID: "a", Position: 1},
	{PlayerID: "b", Position: 2},
	{PlayerID: "c", Position: 3},
	{PlayerID: "d", Position: 4},
}

// newTestRound builds a round for players a-d (seats 1-4) from hands written
// as comma separated card lists.
func newTestRound(t *testing.T, a, b, c, d string, opts ...RoundOption) *RoundState {
	t.Helper()
	hands := map[string][]chit.CardType{
		"a": chit.MustParseCards(a),
		"b": chit.MustParseCards(b),
		"c": chit.MustParseCards(c),
		"d": chit.MustParseCards(d),
	}
	state, err := NewRound("round-1", "game-1", testSeats, hands, opts...)
	require.NoError(t, err)
	return state
}

// balancedRound gives every player one card of each type.
func balancedRound(t *testing.T) *RoundState {
	t.Helper()
	const hand = "heart,diamond,tree,black_jack"
	return newTestRound(t, hand, hand, hand, hand)
}

// sidelined removes players from play as if they had finished earlier, and
// re-registers the resulting position as already seen.
func sidelined(t *testing.T, state *RoundState, hands map[string]string, out ...string) *RoundState {
	t.Helper()
	for _, id := range out {
		state.Players[id].Cards = []chit.CardType{}
		require.NoError(t, state.Eliminate(id, len(state.FinishOrder)+1))
	}
	for id, h := range hands {
		state.Players[id].Cards = chit.MustParseCards(h)
	}
	state.StateSignatures = make(map[string]struct{})
	state.RegisterSignature()
	return state
}

func testEngine() *Engine {
	return NewEngine(zerolog.Nop())
}

func mustPass(t *testing.T, e *Engine, state *RoundState, sender, card string) *PassResult {
	t.Helper()
	res, err := e.PassCard(state, sender, chit.MustParseCardType(card))
	require.NoError(t, err)
	return res
}

func hand(state *RoundState, id string) string {
	return chit.FormatCards(chit.SortCards(state.Players[id].Cards))
}
