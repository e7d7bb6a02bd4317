package game

import (
	"fmt"
	"testing"

	"github.com/lox/chitgame/chit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStarterForRound(t *testing.T) {
	t.Parallel()

	// Seats given out of order still rotate by seat position.
	shuffled := []Seat{testSeats[2], testSeats[0], testSeats[3], testSeats[1]}
	for n, want := range map[int]string{1: "a", 2: "b", 3: "c", 4: "d", 5: "a", 10: "b"} {
		got, err := StarterForRound(shuffled, n)
		require.NoError(t, err)
		assert.Equal(t, want, got, "round %d", n)
	}

	_, err := StarterForRound(testSeats, 0)
	assert.ErrorIs(t, err, ErrInvalidSetup)
	_, err = StarterForRound(testSeats[:3], 1)
	assert.ErrorIs(t, err, ErrInvalidSetup)
}

func TestNewMatchInvalidSetup(t *testing.T) {
	t.Parallel()

	for _, total := range []int{0, -1, MaxMatchRounds + 1} {
		_, err := NewMatch("g", testSeats, total)
		assert.ErrorIs(t, err, ErrInvalidSetup, "total %d", total)
	}
	_, err := NewMatch("g", testSeats[:2], 3)
	assert.ErrorIs(t, err, ErrInvalidSetup)
}

func TestMatchRotatesStartersAndSumsScores(t *testing.T) {
	t.Parallel()
	const rounds = 5

	m, err := NewMatch("game-9", testSeats, rounds)
	require.NoError(t, err)
	engine := testEngine()

	want := map[string]int{"a": 0, "b": 0, "c": 0, "d": 0}
	var starters []string
	for n := 1; n <= rounds; n++ {
		state, err := m.StartRound(fmt.Sprintf("round-%d", n), "", chit.NewSeededDealer(int64(n)))
		require.NoError(t, err)
		assert.Equal(t, n, m.CurrentRound)
		assert.Equal(t, "game-9", state.GameID)
		assert.True(t, m.InRound())
		starters = append(starters, state.ActivePlayer())

		_, err = m.StartRound("early", "", chit.NewSeededDealer(1))
		require.ErrorIs(t, err, ErrRoundInProgress)

		for turn := 0; !state.IsTerminal() && turn < 400; turn++ {
			active := state.ActivePlayer()
			legal := LegalCards(state, active)
			if len(legal) == 0 {
				break
			}
			res, err := engine.PassCard(state, active, legal[turn%len(legal)])
			require.NoError(t, err)
			m.Apply(res)
			state = res.State
		}
		if m.InRound() {
			m.EndRound()
		}
		for id, p := range state.Players {
			want[id] += p.Score
		}
	}

	assert.Equal(t, []string{"a", "b", "c", "d", "a"}, starters)
	assert.Equal(t, want, m.Scores)
	assert.True(t, m.IsComplete())

	_, err = m.NextStarter()
	assert.ErrorIs(t, err, ErrMatchOver)
	_, err = m.StartRound("extra", "", chit.NewSeededDealer(6))
	assert.ErrorIs(t, err, ErrMatchOver)
}

func TestMatchRejectsWrongStarter(t *testing.T) {
	t.Parallel()
	m, err := NewMatch("g", testSeats, 2)
	require.NoError(t, err)

	_, err = m.StartRound("r1", "b", chit.NewSeededDealer(1))
	require.ErrorIs(t, err, ErrWrongStarter)
	assert.Zero(t, m.CurrentRound)
	assert.False(t, m.InRound())

	state, err := m.StartRound("r1", "a", chit.NewSeededDealer(1))
	require.NoError(t, err)
	assert.Equal(t, "a", state.ActivePlayer())
	m.EndRound()

	starter, err := m.NextStarter()
	require.NoError(t, err)
	assert.Equal(t, "b", starter)
	assert.False(t, m.IsComplete())
}

func TestMatchLeaders(t *testing.T) {
	t.Parallel()
	m, err := NewMatch("g", testSeats, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, m.Leaders())

	m.Apply(&PassResult{ScoreUpdates: map[string]int{"c": 800, "b": 800, "a": 300}})
	assert.Equal(t, []string{"b", "c"}, m.Leaders())
	assert.False(t, m.InRound())
}
