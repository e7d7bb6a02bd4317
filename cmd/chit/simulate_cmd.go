package main

import (
	"errors"
	"fmt"

	"github.com/coder/quartz"
	"github.com/lox/chitgame/cmd/chit/shared"
	"github.com/lox/chitgame/internal/movelog"
	"github.com/lox/chitgame/internal/randutil"
	"github.com/lox/chitgame/internal/simulator"
)

// SimulateCmd plays bot rounds. Flags override the config file.
type SimulateCmd struct {
	Rounds      int    `help:"Number of rounds to play"`
	Seed        *int64 `help:"Base seed; every round derives its own seed from it"`
	Concurrency int    `help:"Rounds played at once"`
	MaxTurns    int    `name:"max-turns" help:"Turns after which a round counts as stalled"`
	Strategy    string `help:"Bot strategy (random, greedy)"`
	PerGame     int    `name:"rounds-per-game" help:"Rounds in each match; the opening seat rotates every round"`
	History     string `type:"path" help:"Directory for the move log (enables recording)"`
}

func (cmd *SimulateCmd) Run(g *Globals) (err error) {
	cfg, logger, err := g.load()
	if err != nil {
		return err
	}

	sim := &cfg.Simulation
	if cmd.Rounds != 0 {
		sim.Rounds = cmd.Rounds
	}
	if cmd.Seed != nil {
		sim.Seed = *cmd.Seed
	}
	if cmd.Concurrency != 0 {
		sim.Concurrency = cmd.Concurrency
	}
	if cmd.MaxTurns != 0 {
		sim.MaxTurns = cmd.MaxTurns
	}
	if cmd.PerGame != 0 {
		sim.RoundsPerGame = cmd.PerGame
	}
	if cmd.Strategy != "" {
		name, err := simulator.ParseStrategy(cmd.Strategy)
		if err != nil {
			return err
		}
		sim.Strategy = name
	}
	if cmd.History != "" {
		cfg.History.Enabled = true
		cfg.History.Dir = cmd.History
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if sim.Seed == 0 {
		sim.Seed = randutil.Entropy()
	}

	clock := quartz.NewReal()
	simCfg := simulator.Config{
		Rounds:        sim.Rounds,
		Seed:          sim.Seed,
		Concurrency:   sim.Concurrency,
		MaxTurns:      sim.MaxTurns,
		Strategy:      sim.Strategy,
		RoundsPerGame: sim.RoundsPerGame,
		Logger:        logger,
		Clock:         clock,
	}
	if cfg.History.Enabled {
		rec, err := movelog.NewRecorder(movelog.Config{
			Dir:         cfg.History.Dir,
			FlushRounds: cfg.History.FlushRounds,
			Clock:       clock,
		}, logger)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, rec.Close())
		}()
		simCfg.Recorder = rec
		logger.Info().Str("path", rec.Path()).Msg("recording move log")
	}

	runner, err := simulator.New(simCfg)
	if err != nil {
		return err
	}

	ctx, stop := shared.SetupSignalHandler(logger)
	defer stop()

	logger.Info().
		Int("rounds", sim.Rounds).
		Int64("seed", sim.Seed).
		Int("concurrency", sim.Concurrency).
		Int("rounds_per_game", sim.RoundsPerGame).
		Str("strategy", sim.Strategy).
		Msg("starting simulation")
	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	renderSummary(g.out(), summary)
	return nil
}
