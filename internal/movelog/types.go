package movelog

import (
	"time"

	"github.com/coder/quartz"
)

// RoundLog is the replayable record of one round. Per-seat slices follow
// the Players order, which is the round's turn order.
type RoundLog struct {
	Round   string   `toml:"round"`
	Game    string   `toml:"game,omitempty"`
	Players []string `toml:"players"`
	Seats   []int    `toml:"seats"`
	// Dealt holds each player's opening hand in the form chit.ParseCards reads.
	Dealt           []string  `toml:"dealt"`
	Moves           []string  `toml:"moves"`
	FinishOrder     []string  `toml:"finish_order,omitempty"`
	FinishPositions []int     `toml:"finish_positions"`
	Scores          []int     `toml:"scores"`
	WinnerCards     []string  `toml:"winner_cards"`
	DrawPlayers     []string  `toml:"draw_players,omitempty"`
	Outcome         string    `toml:"outcome"`
	Turns           int       `toml:"turns"`
	Time            time.Time `toml:"time"`
}

// Config configures a Recorder.
type Config struct {
	// Dir receives the session file. It is created when missing.
	Dir string
	// Filename defaults to session.toml.
	Filename string
	// FlushRounds flushes automatically once this many finished rounds are
	// buffered. Zero keeps everything until Flush or Close.
	FlushRounds int
	// Clock stamps finished rounds. Defaults to the real clock.
	Clock quartz.Clock
}
