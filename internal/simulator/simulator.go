// Package simulator plays many independent chit rounds between bots.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coder/quartz"
	"github.com/lox/chitgame/chit"
	"github.com/lox/chitgame/internal/game"
	"github.com/lox/chitgame/internal/gameid"
	"github.com/lox/chitgame/internal/randutil"
	"github.com/lox/chitgame/internal/statistics"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Recorder receives the moves of every simulated round. *movelog.Recorder
// satisfies it.
type Recorder interface {
	Start(state *game.RoundState)
	Record(res *game.PassResult, sender string, card chit.CardType)
	Finish(state *game.RoundState, outcome game.Outcome)
}

// Config holds configuration for a simulation run.
type Config struct {
	Rounds      int
	Seed        int64
	Concurrency int
	// MaxTurns stops a round that has not ended and records it as stalled.
	MaxTurns int
	Strategy string
	// RoundsPerGame groups consecutive rounds into one match. Zero means one
	// round per seat, so every seat opens once.
	RoundsPerGame int
	Logger        zerolog.Logger
	Clock         quartz.Clock
	// Recorder is optional.
	Recorder Recorder
}

// Summary is the result of a run.
type Summary struct {
	Seed     int64
	Strategy string
	Stats    *statistics.Statistics
	// Results are in round index order.
	Results []statistics.RoundResult
	// Games are in game index order.
	Games   []statistics.GameResult
	Elapsed time.Duration
}

// Simulator runs rounds according to its Config.
type Simulator struct {
	cfg      Config
	strategy Strategy
	engine   *game.Engine
	seats    []game.Seat
}

// New validates cfg and returns a simulator.
func New(cfg Config) (*Simulator, error) {
	if cfg.Rounds < 1 {
		return nil, fmt.Errorf("simulator: rounds must be positive, got %d", cfg.Rounds)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.MaxTurns < 1 {
		return nil, fmt.Errorf("simulator: max turns must be positive, got %d", cfg.MaxTurns)
	}
	if cfg.RoundsPerGame == 0 {
		cfg.RoundsPerGame = chit.PlayerCount
	}
	if cfg.RoundsPerGame < 1 || cfg.RoundsPerGame > game.MaxMatchRounds {
		return nil, fmt.Errorf("simulator: rounds per game must be 1-%d, got %d", game.MaxMatchRounds, cfg.RoundsPerGame)
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	strategy, err := NewStrategy(cfg.Strategy)
	if err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}

	seats := make([]game.Seat, chit.PlayerCount)
	for i := range seats {
		seats[i] = game.Seat{PlayerID: fmt.Sprintf("p%d", i+1), Position: i + 1}
	}
	return &Simulator{
		cfg:      cfg,
		strategy: strategy,
		engine:   game.NewEngine(cfg.Logger),
		seats:    seats,
	}, nil
}

// Games returns the number of matches the run plays. The last one is short
// when Rounds is not a multiple of RoundsPerGame.
func (s *Simulator) Games() int {
	return (s.cfg.Rounds + s.cfg.RoundsPerGame - 1) / s.cfg.RoundsPerGame
}

// gameSpan returns the first round index and round count of game g.
func (s *Simulator) gameSpan(g int) (first, count int) {
	first = g * s.cfg.RoundsPerGame
	return first, min(s.cfg.RoundsPerGame, s.cfg.Rounds-first)
}

// Run plays all games and aggregates their results in index order, so the
// summary depends only on the seed and the strategy. Games run concurrently;
// the rounds of one game run in sequence. Cancelling ctx stops new games from
// starting and returns the context error.
func (s *Simulator) Run(ctx context.Context) (*Summary, error) {
	start := s.cfg.Clock.Now()
	results := make([]statistics.RoundResult, s.cfg.Rounds)
	games := make([]statistics.GameResult, s.Games())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i := range games {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			gr, rounds, err := s.PlayGame(i)
			if err != nil {
				return fmt.Errorf("game %d: %w", i, err)
			}
			first, _ := s.gameSpan(i)
			copy(results[first:], rounds)
			games[i] = gr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats := &statistics.Statistics{}
	for _, r := range results {
		stats.Add(r)
	}
	for _, gr := range games {
		stats.AddGame(gr)
	}
	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}

	summary := &Summary{
		Seed:     s.cfg.Seed,
		Strategy: s.strategy.Name(),
		Stats:    stats,
		Results:  results,
		Games:    games,
		Elapsed:  s.cfg.Clock.Since(start),
	}
	s.cfg.Logger.Info().
		Int("rounds", stats.Rounds).
		Int("games", stats.Games).
		Int("draws", stats.Draws).
		Int("stalled", stats.Stalled).
		Dur("elapsed", summary.Elapsed).
		Msg("simulation finished")
	return summary, nil
}

// PlayGame plays the g-th game of the run as a match over its rounds.
func (s *Simulator) PlayGame(g int) (statistics.GameResult, []statistics.RoundResult, error) {
	first, count := s.gameSpan(g)
	if count < 1 {
		return statistics.GameResult{}, nil, fmt.Errorf("simulator: game %d is out of range", g)
	}
	match, err := game.NewMatch(gameid.Game(s.cfg.Seed, g), s.seats, count)
	if err != nil {
		return statistics.GameResult{}, nil, err
	}

	rounds := make([]statistics.RoundResult, 0, count)
	for index := first; index < first+count; index++ {
		seed := randutil.Derive(s.cfg.Seed, index)
		state, err := match.StartRound(gameid.Round(s.cfg.Seed, index), "", chit.NewSeededDealer(seed))
		if err != nil {
			return statistics.GameResult{}, nil, err
		}
		r, err := s.play(state, seed, index, match)
		if err != nil {
			return statistics.GameResult{}, nil, err
		}
		rounds = append(rounds, r)
	}
	if !match.IsComplete() {
		return statistics.GameResult{}, nil, fmt.Errorf("%w: match %s did not complete", game.ErrInvariantViolation, match.GameID)
	}

	result := statistics.GameResult{ID: match.GameID, Rounds: count}
	for _, seat := range s.seats {
		result.Scores[seat.Position-1] = match.Scores[seat.PlayerID]
	}
	for _, id := range match.Leaders() {
		for _, seat := range s.seats {
			if seat.PlayerID == id {
				result.Leaders = append(result.Leaders, seat.Position)
			}
		}
	}
	s.cfg.Logger.Debug().
		Int("game", g).
		Str("game_id", match.GameID).
		Ints("scores", result.Scores[:]).
		Msg("game finished")
	return result, rounds, nil
}

// PlayRound plays the index-th round of the run on its own. It is dealt and
// opened exactly as when played inside its game.
func (s *Simulator) PlayRound(index int) (statistics.RoundResult, error) {
	if index < 0 || index >= s.cfg.Rounds {
		return statistics.RoundResult{}, fmt.Errorf("simulator: round %d is out of range", index)
	}
	g := index / s.cfg.RoundsPerGame
	starter, err := game.StarterForRound(s.seats, index%s.cfg.RoundsPerGame+1)
	if err != nil {
		return statistics.RoundResult{}, err
	}
	seed := randutil.Derive(s.cfg.Seed, index)
	state, err := game.CreateRound(gameid.Round(s.cfg.Seed, index), gameid.Game(s.cfg.Seed, g),
		s.seats, chit.NewSeededDealer(seed), game.WithStarter(starter))
	if err != nil {
		return statistics.RoundResult{}, err
	}
	return s.play(state, seed, index, nil)
}

// play drives state to its end with the bot strategy. A non-nil match is kept
// up to date with every pass.
func (s *Simulator) play(state *game.RoundState, seed int64, index int, match *game.Match) (statistics.RoundResult, error) {
	if s.cfg.Recorder != nil {
		s.cfg.Recorder.Start(state)
	}

	starter := state.ActivePlayer()
	rng := randutil.New(randutil.Derive(seed, 0))
	stalled := false
	for !state.IsTerminal() && state.TurnCounter < s.cfg.MaxTurns {
		active := state.ActivePlayer()
		legal := game.LegalCards(state, active)
		if len(legal) == 0 {
			// Every card the player holds repeats the last one sent.
			stalled = true
			break
		}
		p, err := state.Player(active)
		if err != nil {
			return statistics.RoundResult{}, err
		}
		card := s.strategy.Choose(p.Cards, legal, rng)

		res, err := s.engine.PassCard(state, active, card)
		if err != nil {
			if game.IsRuleViolation(err) {
				return statistics.RoundResult{}, fmt.Errorf("bot made an illegal pass: %w", err)
			}
			return statistics.RoundResult{}, err
		}
		if s.cfg.Recorder != nil {
			s.cfg.Recorder.Record(res, active, card)
		}
		if match != nil {
			match.Apply(res)
		}
		state = res.State
	}
	if match != nil {
		match.EndRound()
	}

	outcome := state.Outcome()
	if stalled || outcome == game.OutcomeInProgress {
		outcome = game.OutcomeStalled
	}
	if s.cfg.Recorder != nil {
		s.cfg.Recorder.Finish(state, outcome)
	}
	s.cfg.Logger.Debug().
		Int("round", index).
		Int64("seed", seed).
		Str("starter", starter).
		Str("outcome", string(outcome)).
		Int("turns", state.TurnCounter).
		Msg("round finished")

	r := resultFor(state, seed, outcome)
	if p, ok := state.Players[starter]; ok {
		r.Starter = p.SeatPosition
	}
	return r, nil
}

func resultFor(state *game.RoundState, seed int64, outcome game.Outcome) statistics.RoundResult {
	r := statistics.RoundResult{
		Seed:        seed,
		Turns:       state.TurnCounter,
		Outcome:     outcome,
		FinishOrder: make([]int, 0, len(state.FinishOrder)),
		WinnerCards: make(map[int]chit.CardType, len(state.WinnerCards)),
	}
	for _, id := range state.FinishOrder {
		r.FinishOrder = append(r.FinishOrder, state.Players[id].SeatPosition)
	}
	for id, p := range state.Players {
		if p.SeatPosition >= 1 && p.SeatPosition <= statistics.Seats {
			r.Scores[p.SeatPosition-1] = p.Score
		}
		if card, ok := state.WinnerCards[id]; ok {
			r.WinnerCards[p.SeatPosition] = card
		}
	}
	return r
}

// ErrUnknownStrategy is returned by ParseStrategy for names it doesn't know.
var ErrUnknownStrategy = errors.New("unknown strategy")

// ParseStrategy validates a strategy name, as typed on the command line.
func ParseStrategy(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, err := NewStrategy(name); err != nil {
		return "", fmt.Errorf("%w %q (want one of %s)", ErrUnknownStrategy, name, strings.Join(Strategies, ", "))
	}
	return name, nil
}
