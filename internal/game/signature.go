package game

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/lox/chitgame/chit"
)

// signatureVersion prefixes every key. Changing the layout below requires a
// new version, otherwise persisted signatures stop matching and loops go
// undetected.
const signatureVersion = "v1"

// SeatHand is one seat's contribution to a Signature.
type SeatHand struct {
	Seat     int
	PlayerID string
	Cards    []chit.CardType // canonical order
}

// Signature identifies a full table position: who acts and what everyone holds.
type Signature struct {
	// Active is empty once the round is over.
	Active string
	Seats  []SeatHand
}

// Key renders the signature in its frozen text form:
//
//	v1|<active>|<seat>=<id>:<card>,<card>|...
//
// Player ids are quoted with strconv.Quote, the active slot is the bare word
// none when nobody is to act, seats ascend and cards use their wire names in
// canonical CardType order.
func (sig Signature) Key() string {
	var b strings.Builder
	b.WriteString(signatureVersion)
	b.WriteByte('|')
	if sig.Active == "" {
		b.WriteString("none")
	} else {
		b.WriteString(strconv.Quote(sig.Active))
	}
	for _, seat := range sig.Seats {
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(seat.Seat))
		b.WriteByte('=')
		b.WriteString(strconv.Quote(seat.PlayerID))
		b.WriteByte(':')
		b.WriteString(chit.FormatCards(seat.Cards))
	}
	return b.String()
}

// Signature captures the current table position.
func (s *RoundState) Signature() Signature {
	sig := Signature{Seats: make([]SeatHand, 0, len(s.Players))}
	if !s.IsComplete() {
		sig.Active = s.ActivePlayer()
	}
	for _, p := range s.Players {
		sig.Seats = append(sig.Seats, SeatHand{
			Seat:     p.SeatPosition,
			PlayerID: p.PlayerID,
			Cards:    chit.SortCards(p.Cards),
		})
	}
	slices.SortFunc(sig.Seats, func(a, b SeatHand) int {
		return cmp.Compare(a.Seat, b.Seat)
	})
	return sig
}

// RegisterSignature records the current position and reports whether it had
// already been seen this round.
func (s *RoundState) RegisterSignature() bool {
	if s.StateSignatures == nil {
		s.StateSignatures = make(map[string]struct{})
	}
	key := s.Signature().Key()
	_, seen := s.StateSignatures[key]
	s.StateSignatures[key] = struct{}{}
	return seen
}
