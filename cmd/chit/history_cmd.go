package main

import (
	"fmt"

	"github.com/lox/chitgame/internal/movelog"
)

// HistoryCmd renders a move log session file.
type HistoryCmd struct {
	File  string `arg:"" name:"file" type:"existingfile" help:"Path to session.toml"`
	Limit int    `help:"Maximum number of rounds to render (0 = all)"`
	Round string `help:"Only render sections for this round id"`
}

func (cmd *HistoryCmd) Run(g *Globals) error {
	logs, err := movelog.ReadFile(cmd.File)
	if err != nil {
		return err
	}

	shown := 0
	for i, log := range logs {
		if cmd.Round != "" && log.Round != cmd.Round {
			continue
		}
		if cmd.Limit > 0 && shown >= cmd.Limit {
			break
		}
		renderLog(g.out(), i+1, log)
		shown++
	}
	if shown == 0 {
		return fmt.Errorf("no rounds found in %s", cmd.File)
	}
	return nil
}
