package game

import (
	"errors"
	"testing"

	"github.com/lox/chitgame/chit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePass(t *testing.T) {
	t.Parallel()
	e := testEngine()
	state := balancedRound(t)

	receiver, err := e.ValidatePass(state, "a", chit.Tree)
	require.NoError(t, err)
	assert.Equal(t, "b", receiver)

	_, err = e.ValidatePass(state, "b", chit.Tree)
	assert.True(t, errors.Is(err, ErrNotYourTurn), "got %v", err)

	state.Players["a"].Cards = chit.MustParseCards("heart,heart,diamond")
	_, err = e.ValidatePass(state, "a", chit.Tree)
	assert.True(t, errors.Is(err, ErrCardNotHeld), "got %v", err)

	_, err = e.ValidatePass(state, "a", chit.CardType(7))
	assert.True(t, errors.Is(err, ErrCardNotHeld), "got %v", err)

	state.RecordPass("a", "b", chit.Heart)
	_, err = e.ValidatePass(state, "a", chit.Heart)
	assert.True(t, errors.Is(err, ErrRepeatedCard), "got %v", err)
	_, err = e.ValidatePass(state, "a", chit.Diamond)
	assert.NoError(t, err)
}

func TestRuleViolationsLeaveStateUnchanged(t *testing.T) {
	t.Parallel()
	e := testEngine()
	state := balancedRound(t)
	state.RecordPass("a", "b", chit.Heart)
	before := state.Clone()

	tests := []struct {
		name   string
		sender string
		card   chit.CardType
		want   error
	}{
		{"not your turn", "c", chit.Heart, ErrNotYourTurn},
		{"repeated card", "a", chit.Heart, ErrRepeatedCard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.PassCard(state, tt.sender, tt.card)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.True(t, IsRuleViolation(err))
			assert.Equal(t, before, state)
		})
	}

	state.Players["a"].Cards = chit.MustParseCards("heart")
	before = state.Clone()
	_, err := e.PassCard(state, "a", chit.Tree)
	assert.True(t, errors.Is(err, ErrCardNotHeld))
	assert.Equal(t, before, state)
}

func TestPassCardWithoutWin(t *testing.T) {
	t.Parallel()
	e := testEngine()
	state := balancedRound(t)
	before := state.Clone()

	res := mustPass(t, e, state, "a", "heart")
	assert.Equal(t, before, state, "input state is never modified")

	next := res.State
	assert.Equal(t, "b", res.Receiver)
	assert.Empty(t, res.ScoreUpdates)
	assert.Empty(t, res.AutoTransfers)
	assert.Empty(t, res.Winners)
	assert.False(t, res.Complete)
	assert.False(t, res.Draw)

	assert.Equal(t, "diamond,tree,black_jack", hand(next, "a"))
	assert.Equal(t, "heart,heart,diamond,tree,black_jack", hand(next, "b"))
	assert.Equal(t, "b", next.ActivePlayer(), "the receiver acts next")
	assert.Equal(t, 1, next.TurnCounter)
	last, ok := next.LastCardFor("a", "b")
	require.True(t, ok)
	assert.Equal(t, chit.Heart, last)
	assert.Len(t, next.StateSignatures, 2)
}

func TestRepeatedCardAfterFullLap(t *testing.T) {
	t.Parallel()
	e := testEngine()
	state := balancedRound(t)

	state = mustPass(t, e, state, "a", "heart").State
	state = mustPass(t, e, state, "b", "heart").State
	state = mustPass(t, e, state, "c", "heart").State
	state = mustPass(t, e, state, "d", "heart").State
	require.Equal(t, "a", state.ActivePlayer())
	require.Equal(t, "heart,diamond,tree,black_jack", hand(state, "a"))

	_, err := e.PassCard(state, "a", chit.Heart)
	assert.True(t, errors.Is(err, ErrRepeatedCard), "got %v", err)

	res := mustPass(t, e, state, "a", "diamond")
	assert.Equal(t, "b", res.Receiver)

	// A different card in between clears the way for hearts again.
	state = res.State
	for _, sender := range []string{"b", "c", "d"} {
		state = mustPass(t, e, state, sender, "diamond").State
	}
	_, err = e.PassCard(state, "a", chit.Heart)
	assert.NoError(t, err)
}

// A holds three hearts and passes a diamond to B, who completes four
// diamonds, forwards one diamond and a tree to C and finishes first.
func TestPassCardWinWithForcedForward(t *testing.T) {
	t.Parallel()
	e := testEngine()
	state := newTestRound(t,
		"heart,heart,heart,diamond",
		"diamond,diamond,diamond,tree",
		"heart,tree,tree,black_jack",
		"tree,black_jack,black_jack,black_jack",
	)

	res := mustPass(t, e, state, "a", "diamond")
	next := res.State

	assert.Equal(t, "b", res.Receiver)
	assert.Equal(t, map[string]int{"b": 800}, res.ScoreUpdates)
	assert.Equal(t, []string{"b"}, res.Winners)
	assert.Equal(t, []Transfer{
		{Sender: "b", Receiver: "c", Card: chit.Diamond},
		{Sender: "b", Receiver: "c", Card: chit.Tree},
	}, res.AutoTransfers)

	b := next.Players["b"]
	assert.False(t, b.IsActive)
	assert.Equal(t, 1, b.FinishPosition)
	assert.Equal(t, 800, b.Score)
	assert.Empty(t, b.Cards)
	assert.Equal(t, chit.Diamond, next.WinnerCards["b"])
	assert.Equal(t, []string{"b"}, next.FinishOrder)

	assert.Equal(t, "heart,diamond,tree,tree,tree,black_jack", hand(next, "c"))
	assert.Equal(t, "c", next.ActivePlayer(), "play continues after the winner")
	assert.Equal(t, 1, next.TurnCounter)
	assert.False(t, res.Complete)

	last, ok := next.LastCardFor("b", "c")
	require.True(t, ok)
	assert.Equal(t, chit.Tree, last)
}

func TestPassCardChainedWins(t *testing.T) {
	t.Parallel()
	e := testEngine()
	state := newTestRound(t,
		"heart,heart,heart,diamond",
		"diamond,diamond,diamond,tree",
		"tree,tree,tree,black_jack",
		"heart,black_jack,black_jack,black_jack",
	)

	res := mustPass(t, e, state, "a", "diamond")
	next := res.State

	assert.Equal(t, []string{"b", "c", "d"}, res.Winners)
	assert.Equal(t, map[string]int{"b": 800, "c": 500, "d": 300}, res.ScoreUpdates)
	assert.Equal(t, []Transfer{
		{Sender: "b", Receiver: "c", Card: chit.Diamond},
		{Sender: "b", Receiver: "c", Card: chit.Tree},
		{Sender: "c", Receiver: "d", Card: chit.Tree},
		{Sender: "c", Receiver: "d", Card: chit.BlackJack},
		{Sender: "c", Receiver: "d", Card: chit.Diamond},
	}, res.AutoTransfers)

	assert.True(t, res.Complete)
	assert.True(t, next.IsComplete())
	assert.Equal(t, []string{"b", "c", "d", "a"}, next.FinishOrder)
	for i, id := range next.FinishOrder {
		assert.Equal(t, i+1, next.Players[id].FinishPosition, id)
		assert.False(t, next.Players[id].IsActive, id)
	}
	assert.Equal(t, map[string]chit.CardType{"b": chit.Diamond, "c": chit.Tree, "d": chit.BlackJack}, next.WinnerCards)
	assert.Empty(t, next.Players["d"].Cards, "the last winner discards everything")
	assert.Equal(t, 1, next.TurnCounter)

	_, err := e.PassCard(next, next.ActivePlayer(), chit.Heart)
	assert.True(t, errors.Is(err, ErrRoundOver), "got %v", err)
}

func TestWinAgainstLastOpponentCompletesRound(t *testing.T) {
	t.Parallel()
	e := testEngine()
	state := sidelined(t, balancedRound(t), map[string]string{
		"a": "heart,tree",
		"c": "heart,heart,heart,diamond",
	}, "b", "d")

	res := mustPass(t, e, state, "a", "heart")
	next := res.State

	assert.Equal(t, "c", res.Receiver)
	assert.Equal(t, map[string]int{"c": 1000}, res.ScoreUpdates)
	assert.Empty(t, res.AutoTransfers, "nothing is forwarded to the last opponent")
	assert.True(t, res.Complete)
	assert.Equal(t, []string{"b", "d", "c", "a"}, next.FinishOrder)
	assert.Equal(t, 3, next.Players["c"].FinishPosition)
	assert.Equal(t, 4, next.Players["a"].FinishPosition)
	assert.Empty(t, next.Players["c"].Cards)
	assert.Equal(t, "tree", hand(next, "a"))
}

func TestDrawOnRepeatedPositionWithTwoPlayers(t *testing.T) {
	t.Parallel()
	e := testEngine()
	state := sidelined(t, balancedRound(t), map[string]string{
		"c": "heart,tree",
		"d": "heart,tree",
	}, "a", "b")
	require.NoError(t, state.SetActive("c"))
	state.StateSignatures = make(map[string]struct{})
	state.RegisterSignature()

	res := mustPass(t, e, state, "c", "heart")
	assert.False(t, res.Draw)
	res = mustPass(t, e, res.State, "d", "heart")
	next := res.State

	assert.True(t, res.Draw)
	assert.False(t, res.Complete)
	assert.Equal(t, []string{"c", "d"}, next.DrawPlayers)
	assert.Equal(t, []string{"a", "b", "c", "d"}, next.FinishOrder)
	for _, id := range []string{"c", "d"} {
		p := next.Players[id]
		assert.False(t, p.IsActive, id)
		assert.Equal(t, 0, p.FinishPosition, id)
		assert.NotContains(t, next.WinnerCards, id)
	}
	assert.Empty(t, res.ScoreUpdates)
	assert.True(t, next.IsDrawn())
	assert.True(t, next.IsTerminal())

	_, err := e.PassCard(next, next.ActivePlayer(), chit.Tree)
	assert.True(t, errors.Is(err, ErrRoundOver), "got %v", err)
}

func TestNoDrawWithThreePlayers(t *testing.T) {
	t.Parallel()
	e := testEngine()
	state := sidelined(t, balancedRound(t), map[string]string{
		"a": "heart,tree",
		"c": "heart,tree",
		"d": "heart,tree",
	}, "b")

	state = mustPass(t, e, state, "a", "heart").State
	state = mustPass(t, e, state, "c", "heart").State
	res := mustPass(t, e, state, "d", "heart")

	assert.Equal(t, "a", res.State.ActivePlayer())
	assert.Equal(t, "heart,tree", hand(res.State, "a"))
	assert.False(t, res.Draw, "repeats only end the round between two players")
	assert.Empty(t, res.State.DrawPlayers)
	assert.False(t, res.State.IsTerminal())
}

func TestLegalCards(t *testing.T) {
	t.Parallel()
	state := newTestRound(t,
		"heart,heart,tree,black_jack",
		"heart,diamond,tree,black_jack",
		"heart,diamond,tree,black_jack",
		"diamond,diamond,tree,black_jack",
	)
	assert.Equal(t, []chit.CardType{chit.Heart, chit.Tree, chit.BlackJack}, LegalCards(state, "a"))
	assert.Nil(t, LegalCards(state, "b"))

	state.RecordPass("a", "b", chit.Tree)
	assert.Equal(t, []chit.CardType{chit.Heart, chit.BlackJack}, LegalCards(state, "a"))
}

func TestIsRuleViolation(t *testing.T) {
	t.Parallel()
	assert.True(t, IsRuleViolation(ErrNotYourTurn))
	assert.True(t, IsRuleViolation(ErrRoundOver))
	assert.False(t, IsRuleViolation(ErrInvariantViolation))
	assert.False(t, IsRuleViolation(ErrInvalidSetup))
	assert.False(t, IsRuleViolation(nil))
}
