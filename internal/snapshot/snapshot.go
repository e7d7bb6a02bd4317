// Package snapshot converts round state to and from its JSON wire form.
//
// The engine is stateless between moves: a caller loads a snapshot, applies
// one pass and stores the resulting snapshot. Documents are validated against
// an embedded JSON schema before they are turned back into a RoundState.
package snapshot

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"cmp"
	"slices"

	"github.com/lox/chitgame/chit"
	"github.com/lox/chitgame/internal/fileutil"
	"github.com/lox/chitgame/internal/game"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Version is the wire format version written by Encode.
const Version = 1

const schemaURL = "https://chitgame.dev/schemas/round-state.json"

//go:embed schema.json
var schemaJSON []byte

// ErrInvalidSnapshot is returned when a document fails schema or structural checks.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Document is the version 1 wire form of a round.
type Document struct {
	Version           int               `json:"version"`
	RoundID           string            `json:"round_id"`
	GameID            string            `json:"game_id"`
	TurnOrder         []string          `json:"turn_order"`
	ActivePlayerIndex int               `json:"active_player_index"`
	Players           []Player          `json:"players"`
	FinishOrder       []string          `json:"finish_order"`
	WinnerCards       map[string]string `json:"winner_cards"`
	LastCardPerPair   []PassRecord      `json:"last_card_per_pair"`
	TurnCounter       int               `json:"turn_counter"`
	StateSignatures   []string          `json:"state_signatures"`
	DrawPlayers       []string          `json:"draw_players"`
}

// Player is one seat in a Document.
type Player struct {
	PlayerID       string   `json:"player_id"`
	SeatPosition   int      `json:"seat_position"`
	Cards          []string `json:"cards"`
	IsActive       bool     `json:"is_active"`
	FinishPosition *int     `json:"finish_position"`
	Score          int      `json:"score"`
}

// PassRecord is the last card sent along one directed edge.
type PassRecord struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Card     string `json:"card"`
}

var compiled = compileSchema()

type compileResult struct {
	schema *jsonschema.Schema
	err    error
}

func compileSchema() compileResult {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return compileResult{err: fmt.Errorf("failed to add snapshot schema: %w", err)}
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return compileResult{err: fmt.Errorf("failed to compile snapshot schema: %w", err)}
	}
	return compileResult{schema: schema}
}

// FromState builds the wire document for state.
func FromState(state *game.RoundState) *Document {
	doc := &Document{
		Version:           Version,
		RoundID:           state.RoundID,
		GameID:            state.GameID,
		TurnOrder:         slices.Clone(state.TurnOrder),
		Players:           make([]Player, 0, len(state.Players)),
		ActivePlayerIndex: state.ActivePlayerIndex,
		FinishOrder:       nonNil(state.FinishOrder),
		WinnerCards:       make(map[string]string, len(state.WinnerCards)),
		LastCardPerPair:   make([]PassRecord, 0, len(state.LastCardPerPair)),
		TurnCounter:       state.TurnCounter,
		StateSignatures:   make([]string, 0, len(state.StateSignatures)),
		DrawPlayers:       nonNil(state.DrawPlayers),
	}

	for _, id := range state.TurnOrder {
		p, ok := state.Players[id]
		if !ok {
			continue
		}
		wp := Player{
			PlayerID:     p.PlayerID,
			SeatPosition: p.SeatPosition,
			Cards:        cardNames(chit.SortCards(p.Cards)),
			IsActive:     p.IsActive,
			Score:        p.Score,
		}
		if p.FinishPosition > 0 {
			pos := p.FinishPosition
			wp.FinishPosition = &pos
		}
		doc.Players = append(doc.Players, wp)
	}

	for id, card := range state.WinnerCards {
		doc.WinnerCards[id] = card.String()
	}
	for edge, card := range state.LastCardPerPair {
		doc.LastCardPerPair = append(doc.LastCardPerPair, PassRecord{
			Sender:   edge.Sender,
			Receiver: edge.Receiver,
			Card:     card.String(),
		})
	}
	slices.SortFunc(doc.LastCardPerPair, func(a, b PassRecord) int {
		return cmp.Or(cmp.Compare(a.Sender, b.Sender), cmp.Compare(a.Receiver, b.Receiver))
	})
	for sig := range state.StateSignatures {
		doc.StateSignatures = append(doc.StateSignatures, sig)
	}
	slices.Sort(doc.StateSignatures)
	return doc
}

// ToState converts a document back into round state after checking its
// structure. Schema validation happens in Decode.
func (d *Document) ToState() (*game.RoundState, error) {
	if err := d.check(); err != nil {
		return nil, err
	}

	state := &game.RoundState{
		RoundID:           d.RoundID,
		GameID:            d.GameID,
		TurnOrder:         slices.Clone(d.TurnOrder),
		ActivePlayerIndex: d.ActivePlayerIndex,
		Players:           make(map[string]*game.PlayerRoundState, len(d.Players)),
		FinishOrder:       nonNil(d.FinishOrder),
		WinnerCards:       make(map[string]chit.CardType, len(d.WinnerCards)),
		LastCardPerPair:   make(map[game.Edge]chit.CardType, len(d.LastCardPerPair)),
		TurnCounter:       d.TurnCounter,
		StateSignatures:   make(map[string]struct{}, len(d.StateSignatures)),
		DrawPlayers:       nonNil(d.DrawPlayers),
	}

	for _, wp := range d.Players {
		cards, err := parseCards(wp.Cards)
		if err != nil {
			return nil, fmt.Errorf("%w: player %q: %v", ErrInvalidSnapshot, wp.PlayerID, err)
		}
		p := &game.PlayerRoundState{
			PlayerID:     wp.PlayerID,
			SeatPosition: wp.SeatPosition,
			Cards:        cards,
			IsActive:     wp.IsActive,
			Score:        wp.Score,
		}
		if wp.FinishPosition != nil {
			p.FinishPosition = *wp.FinishPosition
		}
		state.Players[wp.PlayerID] = p
	}
	for id, name := range d.WinnerCards {
		card, err := chit.ParseCardType(name)
		if err != nil {
			return nil, fmt.Errorf("%w: winner card for %q: %v", ErrInvalidSnapshot, id, err)
		}
		state.WinnerCards[id] = card
	}
	for _, rec := range d.LastCardPerPair {
		card, err := chit.ParseCardType(rec.Card)
		if err != nil {
			return nil, fmt.Errorf("%w: last card %s->%s: %v", ErrInvalidSnapshot, rec.Sender, rec.Receiver, err)
		}
		state.LastCardPerPair[game.Edge{Sender: rec.Sender, Receiver: rec.Receiver}] = card
	}
	for _, sig := range d.StateSignatures {
		state.StateSignatures[sig] = struct{}{}
	}
	return state, nil
}

func (d *Document) check() error {
	if d.Version != Version {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, d.Version)
	}
	if len(d.TurnOrder) != chit.PlayerCount {
		return fmt.Errorf("%w: turn order has %d entries, want %d", ErrInvalidSnapshot, len(d.TurnOrder), chit.PlayerCount)
	}
	if d.ActivePlayerIndex < 0 || d.ActivePlayerIndex >= len(d.TurnOrder) {
		return fmt.Errorf("%w: active player index %d out of range", ErrInvalidSnapshot, d.ActivePlayerIndex)
	}

	byID := make(map[string]Player, len(d.Players))
	seats := make(map[int]bool, len(d.Players))
	for _, p := range d.Players {
		if _, dup := byID[p.PlayerID]; dup {
			return fmt.Errorf("%w: duplicate player %q", ErrInvalidSnapshot, p.PlayerID)
		}
		if seats[p.SeatPosition] {
			return fmt.Errorf("%w: seat %d assigned twice", ErrInvalidSnapshot, p.SeatPosition)
		}
		byID[p.PlayerID] = p
		seats[p.SeatPosition] = true
	}

	prevSeat := 0
	for _, id := range d.TurnOrder {
		p, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: turn order names unknown player %q", ErrInvalidSnapshot, id)
		}
		if p.SeatPosition <= prevSeat {
			return fmt.Errorf("%w: turn order is not ascending by seat at %q", ErrInvalidSnapshot, id)
		}
		prevSeat = p.SeatPosition
	}
	if len(byID) != len(d.TurnOrder) {
		return fmt.Errorf("%w: %d players for %d seats", ErrInvalidSnapshot, len(byID), len(d.TurnOrder))
	}

	if n := len(d.DrawPlayers); n != 0 && n != 2 {
		return fmt.Errorf("%w: a draw has exactly 2 players, got %d", ErrInvalidSnapshot, n)
	}
	drawn := make(map[string]bool, len(d.DrawPlayers))
	for _, id := range d.DrawPlayers {
		if _, ok := byID[id]; !ok {
			return fmt.Errorf("%w: draw names unknown player %q", ErrInvalidSnapshot, id)
		}
		drawn[id] = true
	}

	finished := make(map[string]bool, len(d.FinishOrder))
	for i, id := range d.FinishOrder {
		p, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: finish order names unknown player %q", ErrInvalidSnapshot, id)
		}
		if finished[id] {
			return fmt.Errorf("%w: %q finished twice", ErrInvalidSnapshot, id)
		}
		finished[id] = true
		if p.IsActive {
			return fmt.Errorf("%w: %q finished but is still active", ErrInvalidSnapshot, id)
		}
		switch {
		case drawn[id] && p.FinishPosition != nil:
			return fmt.Errorf("%w: drawn player %q has a finish position", ErrInvalidSnapshot, id)
		case !drawn[id] && (p.FinishPosition == nil || *p.FinishPosition != i+1):
			return fmt.Errorf("%w: %q finished %s but holds a different finish position", ErrInvalidSnapshot, id, ordinal(i+1))
		}
	}
	active := 0
	for _, p := range d.Players {
		if p.IsActive {
			active++
			if p.FinishPosition != nil {
				return fmt.Errorf("%w: active player %q has a finish position", ErrInvalidSnapshot, p.PlayerID)
			}
		} else if !finished[p.PlayerID] {
			return fmt.Errorf("%w: %q is out of the round but missing from the finish order", ErrInvalidSnapshot, p.PlayerID)
		}
	}
	for id := range drawn {
		if !finished[id] {
			return fmt.Errorf("%w: drawn player %q is missing from the finish order", ErrInvalidSnapshot, id)
		}
	}
	return d.checkCards(active)
}

// checkCards verifies the card supply. Copies only leave play when a winner
// discards them: a won type keeps the single forwarded copy while the round
// runs, and a finished round may have dropped more.
func (d *Document) checkCards(active int) error {
	var held [len(chit.CardTypes)]int
	for _, p := range d.Players {
		for _, name := range p.Cards {
			c, err := chit.ParseCardType(name)
			if err != nil {
				return fmt.Errorf("%w: player %q: %v", ErrInvalidSnapshot, p.PlayerID, err)
			}
			held[c]++
		}
	}
	won := make(map[chit.CardType]bool, len(d.WinnerCards))
	for id, name := range d.WinnerCards {
		c, err := chit.ParseCardType(name)
		if err != nil {
			return fmt.Errorf("%w: winner card for %q: %v", ErrInvalidSnapshot, id, err)
		}
		won[c] = true
	}

	running := active >= 2 || len(d.DrawPlayers) == 2
	for _, c := range chit.CardTypes {
		want := chit.CopiesPerType
		if won[c] {
			want = 1
		}
		switch {
		case held[c] > chit.CopiesPerType:
			return fmt.Errorf("%w: %d %s cards in play, at most %d exist", ErrInvalidSnapshot, held[c], c, chit.CopiesPerType)
		case running && held[c] != want:
			return fmt.Errorf("%w: %d %s cards in play, want %d", ErrInvalidSnapshot, held[c], c, want)
		}
	}
	return nil
}

func ordinal(n int) string {
	switch n {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	}
	return fmt.Sprintf("%dth", n)
}

// Encode renders state as indented JSON.
func Encode(state *game.RoundState) ([]byte, error) {
	data, err := json.MarshalIndent(FromState(state), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses and validates a snapshot document.
func Decode(data []byte) (*game.RoundState, error) {
	if compiled.err != nil {
		return nil, compiled.err
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := compiled.schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return doc.ToState()
}

// Write stores state at path, replacing any previous snapshot atomically.
func Write(path string, state *game.RoundState) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// Read loads the snapshot stored at path.
func Read(path string) (*game.RoundState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	state, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return state, nil
}

func cardNames(cards []chit.CardType) []string {
	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = c.String()
	}
	return names
}

func parseCards(names []string) ([]chit.CardType, error) {
	cards := make([]chit.CardType, 0, len(names))
	for _, name := range names {
		c, err := chit.ParseCardType(name)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return slices.Clone(ids)
}
