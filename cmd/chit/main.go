package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lox/chitgame/cmd/chit/shared"
	"github.com/lox/chitgame/internal/config"
	"github.com/rs/zerolog"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	Config    string `help:"HCL configuration file" default:"chit.hcl" type:"path"`
	EnvFile   string `name:"env-file" help:"Environment file loaded before CHIT_* overrides" default:".env" type:"path"`
	LogLevel  string `help:"Log level (trace, debug, info, warn, error)" placeholder:"LEVEL"`
	LogFormat string `help:"Log format" enum:"console,json," default:""`

	stdout io.Writer
}

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Deal     DealCmd          `cmd:"" help:"Shuffle and deal a deck to four players"`
	New      NewCmd           `cmd:"" help:"Create a round and write its snapshot"`
	Pass     PassCmd          `cmd:"" help:"Pass a card in a stored round"`
	Show     ShowCmd          `cmd:"" help:"Render a stored round"`
	Simulate SimulateCmd      `cmd:"" help:"Play many bot rounds and report statistics"`
	History  HistoryCmd       `cmd:"" help:"Render a move log session file"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("chit"),
		kong.Description("Four-player chit card game engine and tools"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	cli.Globals.stdout = os.Stdout
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}

func (g *Globals) out() io.Writer {
	if g.stdout == nil {
		return os.Stdout
	}
	return g.stdout
}

// load resolves configuration from the config file, the env file, CHIT_*
// variables and finally the global flags.
func (g *Globals) load() (*config.Config, zerolog.Logger, error) {
	if err := config.LoadDotEnv(g.EnvFile); err != nil {
		return nil, zerolog.Nop(), err
	}
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, zerolog.Nop(), err
	}
	if g.LogLevel != "" {
		cfg.Logging.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Logging.Format = g.LogFormat
	}
	logger, err := shared.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

func (g *Globals) printf(format string, args ...any) {
	fmt.Fprintf(g.out(), format, args...)
}
