// Package movelog records card passes as TOML move logs so rounds can be
// replayed or replicated elsewhere.
package movelog

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lox/chitgame/internal/game"
)

const sectionPrefix = "round_"

// Encode writes one round log as bare TOML keys.
func Encode(w io.Writer, log *RoundLog) error {
	if log == nil {
		return fmt.Errorf("movelog: round log is nil")
	}
	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(log)
}

// EncodeSection writes log under a [round_N] table header.
func EncodeSection(w io.Writer, section int, log *RoundLog) error {
	if _, err := fmt.Fprintf(w, "[%s%d]\n", sectionPrefix, section); err != nil {
		return err
	}
	if err := Encode(w, log); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// FormatMove renders a transfer as "p1 > p2 heart" for a player's pass or
// "p2 >> p3 diamond" for an automatic transfer. seats maps player ids to
// seat positions; unknown players are written by id.
func FormatMove(seats map[string]int, t game.Transfer, auto bool) string {
	arrow := ">"
	if auto {
		arrow = ">>"
	}
	return fmt.Sprintf("%s %s %s %s", seatLabel(seats, t.Sender), arrow, seatLabel(seats, t.Receiver), t.Card)
}

func seatLabel(seats map[string]int, id string) string {
	if seat, ok := seats[id]; ok {
		return "p" + strconv.Itoa(seat)
	}
	return strconv.Quote(id)
}

// Decode reads a session file back into round logs ordered by section.
func Decode(r io.Reader) ([]RoundLog, error) {
	sections := make(map[string]RoundLog)
	if _, err := toml.NewDecoder(r).Decode(&sections); err != nil {
		return nil, fmt.Errorf("movelog: decode: %w", err)
	}

	type indexed struct {
		n   int
		log RoundLog
	}
	ordered := make([]indexed, 0, len(sections))
	for key, log := range sections {
		n, err := sectionIndex(key)
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, indexed{n: n, log: log})
	}
	slices.SortFunc(ordered, func(a, b indexed) int { return a.n - b.n })

	logs := make([]RoundLog, len(ordered))
	for i, entry := range ordered {
		logs[i] = entry.log
	}
	return logs, nil
}

// DecodeBytes is Decode over an in-memory session.
func DecodeBytes(data []byte) ([]RoundLog, error) {
	return Decode(bytes.NewReader(data))
}

func sectionIndex(key string) (int, error) {
	rest, ok := strings.CutPrefix(key, sectionPrefix)
	if !ok {
		return 0, fmt.Errorf("movelog: unexpected section %q", key)
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("movelog: bad section number in %q", key)
	}
	return n, nil
}
