package movelog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/lox/chitgame/chit"
	"github.com/lox/chitgame/internal/game"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSeats = []game.Seat{
	{PlayerID: "a", Position: 1},
	{PlayerID: "b", Position: 2},
	{PlayerID: "c", Position: 3},
	{PlayerID: "d", Position: 4},
}

// cascadeRound is set up so that a's opening heart completes b's hearts and
// the forwarded cards complete c and d in turn.
func cascadeRound(t *testing.T, roundID string) *game.RoundState {
	t.Helper()
	hands := map[string][]chit.CardType{
		"a": chit.MustParseCards("heart,tree,tree,tree"),
		"b": chit.MustParseCards("heart,heart,heart,diamond"),
		"c": chit.MustParseCards("diamond,diamond,diamond,black_jack"),
		"d": chit.MustParseCards("tree,black_jack,black_jack,black_jack"),
	}
	state, err := game.NewRound(roundID, "game-1", testSeats, hands)
	require.NoError(t, err)
	return state
}

func newTestRecorder(t *testing.T, dir string, clock quartz.Clock, flush int) *Recorder {
	t.Helper()
	rec, err := NewRecorder(Config{Dir: dir, FlushRounds: flush, Clock: clock}, zerolog.Nop())
	require.NoError(t, err)
	return rec
}

func playCascade(t *testing.T, rec *Recorder, roundID string) *game.PassResult {
	t.Helper()
	state := cascadeRound(t, roundID)
	rec.Start(state)

	res, err := game.NewEngine(zerolog.Nop()).PassCard(state, "a", chit.Heart)
	require.NoError(t, err)
	rec.Record(res, "a", chit.Heart)
	rec.Finish(res.State, res.State.Outcome())
	return res
}

func TestRecorderWritesRound(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	clock := quartz.NewMock(t)
	stamp := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	clock.Set(stamp)

	rec := newTestRecorder(t, dir, clock, 0)
	res := playCascade(t, rec, "round-1")
	assert.Equal(t, 1, rec.Pending())

	_, err := os.Stat(rec.Path())
	require.True(t, os.IsNotExist(err), "nothing is written before a flush")

	require.NoError(t, rec.Flush())
	assert.Equal(t, 0, rec.Pending())

	logs, err := ReadFile(filepath.Join(dir, "session.toml"))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	log := logs[0]

	assert.Equal(t, "round-1", log.Round)
	assert.Equal(t, "game-1", log.Game)
	assert.Equal(t, []string{"a", "b", "c", "d"}, log.Players)
	assert.Equal(t, []int{1, 2, 3, 4}, log.Seats)
	assert.Equal(t, "heart,tree,tree,tree", log.Dealt[0])

	require.Len(t, log.Moves, 1+len(res.AutoTransfers))
	assert.Equal(t, "p1 > p2 heart", log.Moves[0])
	for _, move := range log.Moves[1:] {
		assert.Contains(t, move, " >> ")
	}
	assert.Equal(t, "p2 >> p3 heart", log.Moves[1])

	assert.Equal(t, res.State.FinishOrder, log.FinishOrder)
	assert.Equal(t, res.State.Players["b"].Score, log.Scores[1])
	assert.Equal(t, "heart", log.WinnerCards[1])
	assert.Equal(t, string(res.State.Outcome()), log.Outcome)
	assert.Equal(t, res.State.TurnCounter, log.Turns)
	assert.True(t, stamp.Equal(log.Time))
}

func TestRecorderContinuesSectionNumbers(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	first := newTestRecorder(t, dir, quartz.NewMock(t), 0)
	playCascade(t, first, "round-1")
	playCascade(t, first, "round-2")
	require.NoError(t, first.Close())

	second := newTestRecorder(t, dir, quartz.NewMock(t), 0)
	playCascade(t, second, "round-3")
	require.NoError(t, second.Close())

	data, err := os.ReadFile(second.Path())
	require.NoError(t, err)
	text := string(data)
	for i := 1; i <= 3; i++ {
		assert.Equal(t, 1, strings.Count(text, fmt.Sprintf("[round_%d]\n", i)))
	}

	logs, err := DecodeBytes(data)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "round-1", logs[0].Round)
	assert.Equal(t, "round-3", logs[2].Round)
}

func TestRecordersSharingDirectory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	// Every recorder opens before any of them writes, as separate
	// "chit pass --history" processes would.
	const writers = 6
	recs := make([]*Recorder, writers)
	for i := range recs {
		recs[i] = newTestRecorder(t, dir, quartz.NewMock(t), 0)
		playCascade(t, recs[i], fmt.Sprintf("round-%d", i))
	}

	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i, rec := range recs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = rec.Close()
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	data, err := os.ReadFile(recs[0].Path())
	require.NoError(t, err)
	for i := 1; i <= writers; i++ {
		assert.Equal(t, 1, strings.Count(string(data), fmt.Sprintf("[round_%d]\n", i)), "section %d", i)
	}
	logs, err := DecodeBytes(data)
	require.NoError(t, err)
	assert.Len(t, logs, writers)
}

func TestRecorderAutoFlush(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	rec := newTestRecorder(t, dir, quartz.NewMock(t), 2)

	playCascade(t, rec, "round-1")
	assert.Equal(t, 1, rec.Pending())
	playCascade(t, rec, "round-2")
	assert.Equal(t, 0, rec.Pending())

	logs, err := ReadFile(rec.Path())
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestRecorderConcurrentRounds(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	rec := newTestRecorder(t, dir, quartz.NewMock(t), 5)

	const rounds = 20
	var wg sync.WaitGroup
	for i := range rounds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			playCascade(t, rec, fmt.Sprintf("round-%02d", i))
		}()
	}
	wg.Wait()
	require.NoError(t, rec.Close())

	logs, err := ReadFile(rec.Path())
	require.NoError(t, err)
	require.Len(t, logs, rounds)

	seen := make(map[string]bool, rounds)
	for _, log := range logs {
		assert.False(t, seen[log.Round], "round %s logged twice", log.Round)
		seen[log.Round] = true
		assert.Equal(t, "p1 > p2 heart", log.Moves[0])
	}
}

func TestRecorderFinishWithoutStart(t *testing.T) {
	t.Parallel()
	rec := newTestRecorder(t, t.TempDir(), quartz.NewMock(t), 0)

	state := cascadeRound(t, "round-x")
	rec.Finish(state, game.OutcomeStalled)
	require.NoError(t, rec.Flush())

	logs, err := ReadFile(rec.Path())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "stalled", logs[0].Outcome)
	assert.Empty(t, logs[0].Moves)
	assert.Empty(t, logs[0].Dealt)
}

func TestNewRecorderRequiresDir(t *testing.T) {
	t.Parallel()
	_, err := NewRecorder(Config{}, zerolog.Nop())
	require.Error(t, err)
}
