package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lox/chitgame/chit"
	"github.com/lox/chitgame/internal/game"
	"github.com/lox/chitgame/internal/movelog"
	"github.com/lox/chitgame/internal/simulator"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	activeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10"))

	outStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	scoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("9"))

	cardStyles = map[chit.CardType]lipgloss.Style{
		chit.Heart:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		chit.Diamond:   lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		chit.Tree:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		chit.BlackJack: lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	}
)

func renderCards(cards []chit.CardType) string {
	if len(cards) == 0 {
		return outStyle.Render("-")
	}
	parts := make([]string, len(cards))
	for i, c := range chit.SortCards(cards) {
		parts[i] = cardStyles[c].Render(c.String())
	}
	return strings.Join(parts, " ")
}

func renderHands(w io.Writer, order []string, hands map[string][]chit.CardType) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, id := range order {
		fmt.Fprintf(tw, "%s\t%s\n", id, renderCards(hands[id]))
	}
	tw.Flush()
}

func renderState(w io.Writer, state *game.RoundState) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Round %s", state.RoundID)))
	if state.GameID != "" {
		fmt.Fprintf(w, "Game:  %s\n", state.GameID)
	}
	fmt.Fprintf(w, "Turn:  %d\n", state.TurnCounter)
	switch state.Outcome() {
	case game.OutcomeComplete:
		fmt.Fprintln(w, "State: complete")
	case game.OutcomeDraw:
		fmt.Fprintf(w, "State: draw between %s\n", strings.Join(state.DrawPlayers, " and "))
	default:
		fmt.Fprintf(w, "State: %s to pass\n", activeStyle.Render(state.ActivePlayer()))
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEAT\tPLAYER\tSCORE\tFINISH\tCARDS")
	for _, id := range state.TurnOrder {
		p := state.Players[id]
		name := id
		switch {
		case !p.IsActive:
			name = outStyle.Render(id)
		case id == state.ActivePlayer() && !state.IsTerminal():
			name = activeStyle.Render(id)
		}
		finish := "-"
		if p.FinishPosition > 0 {
			finish = fmt.Sprintf("%d", p.FinishPosition)
		} else if !p.IsActive {
			finish = "draw"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.SeatPosition, name, scoreStyle.Render(fmt.Sprintf("%d", p.Score)), finish, renderCards(p.Cards))
	}
	tw.Flush()

	if len(state.FinishOrder) > 0 {
		fmt.Fprintf(w, "\nFinish order: %s\n", strings.Join(state.FinishOrder, ", "))
	}
}

func renderPass(w io.Writer, sender string, card chit.CardType, res *game.PassResult) {
	fmt.Fprintf(w, "%s passed %s to %s\n", sender, renderCards([]chit.CardType{card}), res.Receiver)
	for _, t := range res.AutoTransfers {
		fmt.Fprintf(w, "  %s forwarded %s to %s\n", t.Sender, renderCards([]chit.CardType{t.Card}), t.Receiver)
	}
	for _, id := range res.Winners {
		fmt.Fprintf(w, "%s completed four %s: %s\n", activeStyle.Render(id),
			res.State.WinnerCards[id], scoreStyle.Render(fmt.Sprintf("+%d", res.ScoreUpdates[id])))
	}
	switch {
	case res.Draw:
		fmt.Fprintf(w, "Round drawn between %s\n", strings.Join(res.State.DrawPlayers, " and "))
	case res.Complete:
		fmt.Fprintf(w, "Round complete: %s\n", strings.Join(res.State.FinishOrder, ", "))
	default:
		fmt.Fprintf(w, "Next to pass: %s\n", res.State.ActivePlayer())
	}
}

func renderSummary(w io.Writer, summary *simulator.Summary) {
	stats := summary.Stats
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("=== %d rounds, %s strategy, seed %d ===", stats.Rounds, summary.Strategy, summary.Seed)))
	fmt.Fprintf(w, "Completed: %d  Draws: %d (%.1f%%)  Stalled: %d\n",
		stats.Completed, stats.Draws, stats.DrawRate()*100, stats.Stalled)
	fmt.Fprintf(w, "Games: %d\n", stats.Games)
	fmt.Fprintf(w, "Turns: mean %.2f, median %.1f, stddev %.2f, max %d, p95 %.1f\n",
		stats.MeanTurns(), stats.MedianTurns(), stats.StdDev(), stats.MaxTurns, stats.Percentile(0.95))

	fmt.Fprintln(w, headerStyle.Render("\nWins by card"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range chit.CardTypes {
		fmt.Fprintf(tw, "%s\t%d\n", cardStyles[c].Render(c.String()), stats.WinsByCard[c])
	}
	tw.Flush()

	fmt.Fprintln(w, headerStyle.Render("\nSeats"))
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEAT\tPOINTS\tWINS\tFIRST\tLAST\tDRAWS\tGAMES WON")
	for seat := 1; seat <= chit.PlayerCount; seat++ {
		s := stats.SeatResults[seat]
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%d\n", seat, s.Points, s.Wins, s.FirstPlaces, s.LastPlaces, s.DrawsEntered, s.GameWins)
	}
	tw.Flush()
	fmt.Fprintf(w, "\nElapsed: %s\n", summary.Elapsed.Round(time.Millisecond))
}

func renderLog(w io.Writer, index int, log movelog.RoundLog) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("#%d round %s (%s, %d turns)", index, log.Round, log.Outcome, log.Turns)))
	if !log.Time.IsZero() {
		fmt.Fprintf(w, "Time: %s\n", log.Time.UTC().Format("2006-01-02 15:04:05Z"))
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEAT\tPLAYER\tDEALT\tSCORE\tFINISH")
	for i, id := range log.Players {
		dealt, score, finish := "-", 0, "-"
		if i < len(log.Dealt) && log.Dealt[i] != "" {
			if cards, err := chit.ParseCards(log.Dealt[i]); err == nil {
				dealt = renderCards(cards)
			}
		}
		if i < len(log.Scores) {
			score = log.Scores[i]
		}
		if i < len(log.FinishPositions) && log.FinishPositions[i] > 0 {
			finish = fmt.Sprintf("%d", log.FinishPositions[i])
		}
		seat := i + 1
		if i < len(log.Seats) {
			seat = log.Seats[i]
		}
		fmt.Fprintf(tw, "p%d\t%s\t%s\t%d\t%s\n", seat, id, dealt, score, finish)
	}
	tw.Flush()
	for _, move := range log.Moves {
		fmt.Fprintf(w, "  %s\n", move)
	}
	fmt.Fprintln(w)
}
