package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/chitgame/chit"
	"github.com/lox/chitgame/internal/game"
	"github.com/lox/chitgame/internal/gameid"
	"github.com/lox/chitgame/internal/movelog"
	"github.com/lox/chitgame/internal/randutil"
	"github.com/lox/chitgame/internal/snapshot"
	"github.com/rs/zerolog"
)

// DealCmd shuffles a deck and prints the four hands.
type DealCmd struct {
	Seed    *int64   `help:"Dealer seed (random when unset)"`
	Players []string `arg:"" optional:"" help:"Four player ids in dealing order" default:"p1,p2,p3,p4"`
}

func (cmd *DealCmd) Run(g *Globals) error {
	seed := seedOrEntropy(cmd.Seed)
	hands, err := chit.NewSeededDealer(seed).Deal(cmd.Players)
	if err != nil {
		return err
	}
	g.printf("%s\n", headerStyle.Render(fmt.Sprintf("Deal (seed %d)", seed)))
	renderHands(g.out(), cmd.Players, hands)
	return nil
}

// NewCmd creates a round and stores its snapshot.
type NewCmd struct {
	Players string `required:"" help:"Seats as id:position pairs, e.g. a:1,b:2,c:3,d:4"`
	Starter string `help:"Player who passes first (default: seat 1)"`
	Seed    *int64 `help:"Dealer seed (random when unset)"`
	RoundID string `name:"round-id" help:"Round id (default: new UUID)"`
	GameID  string `name:"game-id" help:"Game id (default: new UUID)"`
	Out     string `required:"" type:"path" help:"Snapshot file to write"`
}

func (cmd *NewCmd) Run(g *Globals) error {
	_, logger, err := g.load()
	if err != nil {
		return err
	}
	seats, err := parseSeats(cmd.Players)
	if err != nil {
		return err
	}

	roundID := cmd.RoundID
	if roundID == "" {
		roundID = gameid.Generate()
	}
	gameID := cmd.GameID
	if gameID == "" {
		gameID = gameid.Generate()
	}

	var opts []game.RoundOption
	if cmd.Starter != "" {
		opts = append(opts, game.WithStarter(cmd.Starter))
	}
	seed := seedOrEntropy(cmd.Seed)
	state, err := game.CreateRound(roundID, gameID, seats, chit.NewSeededDealer(seed), opts...)
	if err != nil {
		return err
	}
	if err := snapshot.Write(cmd.Out, state); err != nil {
		return err
	}
	logger.Info().Str("round_id", roundID).Int64("seed", seed).Str("path", cmd.Out).Msg("round created")
	renderState(g.out(), state)
	return nil
}

// PassCmd applies one pass to a stored round and writes the result back.
type PassCmd struct {
	State   string        `required:"" type:"existingfile" help:"Snapshot file to update"`
	Sender  string        `required:"" help:"Player passing the card"`
	Card    chit.CardType `required:"" help:"Card type: heart, diamond, tree or black_jack"`
	History string        `type:"path" help:"Directory to append the move log to"`
}

// errRejected marks a pass refused for breaking a rule.
var errRejected = errors.New("move rejected")

func (cmd *PassCmd) Run(g *Globals) error {
	_, logger, err := g.load()
	if err != nil {
		return err
	}
	state, err := snapshot.Read(cmd.State)
	if err != nil {
		return err
	}

	engine := game.NewEngine(logger)
	res, err := engine.PassCard(state, cmd.Sender, cmd.Card)
	if err != nil {
		if game.IsRuleViolation(err) {
			g.printf("%s %v\n", errorStyle.Render("rejected:"), err)
			return fmt.Errorf("%w: %w", errRejected, err)
		}
		return err
	}
	if err := snapshot.Write(cmd.State, res.State); err != nil {
		return err
	}

	if cmd.History != "" {
		if err := recordPass(cmd.History, logger, res, cmd.Sender, cmd.Card); err != nil {
			return err
		}
	}
	renderPass(g.out(), cmd.Sender, cmd.Card, res)
	return nil
}

// recordPass appends one section per pass. Each CLI call is stateless, so the
// section carries the standings after this pass rather than a whole round.
func recordPass(dir string, logger zerolog.Logger, res *game.PassResult, sender string, card chit.CardType) error {
	rec, err := movelog.NewRecorder(movelog.Config{Dir: dir}, logger)
	if err != nil {
		return err
	}
	rec.Record(res, sender, card)
	rec.Finish(res.State, res.State.Outcome())
	return rec.Close()
}

// ShowCmd renders a stored round.
type ShowCmd struct {
	State string `required:"" type:"existingfile" help:"Snapshot file to render"`
}

func (cmd *ShowCmd) Run(g *Globals) error {
	state, err := snapshot.Read(cmd.State)
	if err != nil {
		return err
	}
	renderState(g.out(), state)
	if !state.IsTerminal() {
		legal := game.LegalCards(state, state.ActivePlayer())
		g.printf("\nLegal cards for %s: %s\n", state.ActivePlayer(), renderCards(legal))
	}
	return nil
}

// parseSeats reads "id:position" pairs separated by commas.
func parseSeats(s string) ([]game.Seat, error) {
	var seats []game.Seat
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, pos, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("invalid seat %q, want id:position", pair)
		}
		n, err := strconv.Atoi(strings.TrimSpace(pos))
		if err != nil {
			return nil, fmt.Errorf("invalid seat position in %q: %w", pair, err)
		}
		seats = append(seats, game.Seat{PlayerID: strings.TrimSpace(id), Position: n})
	}
	if len(seats) != chit.PlayerCount {
		return nil, fmt.Errorf("%w: want %d seats, got %d", game.ErrInvalidSetup, chit.PlayerCount, len(seats))
	}
	return seats, nil
}

func seedOrEntropy(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return randutil.Entropy()
}
