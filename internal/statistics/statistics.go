package statistics

import (
	"fmt"
	"math"
	"slices"

	"github.com/lox/chitgame/chit"
	"github.com/lox/chitgame/internal/game"
)

// Seats is the number of seats tracked per result.
const Seats = chit.PlayerCount

// RoundResult is the outcome of one simulated round.
type RoundResult struct {
	Seed    int64        // Dealer seed for this round (for replay)
	Turns   int          // Turn counter when play stopped
	Outcome game.Outcome // complete, draw or stalled
	Starter int          // Seat position that made the first pass
	// FinishOrder holds seat positions (1-4) in the order players left.
	FinishOrder []int
	// Scores and WinnerCards are indexed by seat position minus one. A seat
	// without a win has no entry in WinnerCards.
	Scores      [Seats]int
	WinnerCards map[int]chit.CardType
}

// GameResult is the outcome of one simulated match.
type GameResult struct {
	ID     string
	Rounds int
	// Scores holds each seat's game total, indexed by seat position minus one.
	Scores [Seats]int
	// Leaders are the seat positions sharing the top game score.
	Leaders []int
}

// SeatStats tracks one seat across rounds.
type SeatStats struct {
	Points       int
	FirstPlaces  int
	LastPlaces   int
	Wins         int
	DrawsEntered int
	GameWins     int
}

// Statistics aggregates simulated rounds.
type Statistics struct {
	Rounds    int
	Completed int
	Draws     int
	Stalled   int

	SumTurns  float64
	SumTurns2 float64 // Sum of squares for variance calculation
	MaxTurns  int
	Turns     []int // All turn counts for median/percentile calculation

	WinsByCard  [len(chit.CardTypes)]int
	PointsTotal int
	SeatResults [Seats + 1]SeatStats // Index 0 unused, 1-4 for seats

	Games      int
	GameRounds int
	GamePoints int
}

// Add incorporates a round result.
func (s *Statistics) Add(r RoundResult) {
	s.Rounds++
	switch r.Outcome {
	case game.OutcomeComplete:
		s.Completed++
	case game.OutcomeDraw:
		s.Draws++
	default:
		s.Stalled++
	}

	turns := float64(r.Turns)
	s.SumTurns += turns
	s.SumTurns2 += turns * turns
	s.Turns = append(s.Turns, r.Turns)
	if r.Turns > s.MaxTurns {
		s.MaxTurns = r.Turns
	}

	for seat, card := range r.WinnerCards {
		if card.Valid() {
			s.WinsByCard[card]++
		}
		if seat >= 1 && seat <= Seats {
			s.SeatResults[seat].Wins++
		}
	}
	for i, points := range r.Scores {
		s.SeatResults[i+1].Points += points
		s.PointsTotal += points
	}

	if r.Outcome == game.OutcomeComplete && len(r.FinishOrder) > 0 {
		if first := r.FinishOrder[0]; first >= 1 && first <= Seats {
			s.SeatResults[first].FirstPlaces++
		}
		if last := r.FinishOrder[len(r.FinishOrder)-1]; last >= 1 && last <= Seats {
			s.SeatResults[last].LastPlaces++
		}
	}
	if r.Outcome == game.OutcomeDraw && len(r.FinishOrder) >= 2 {
		for _, seat := range r.FinishOrder[len(r.FinishOrder)-2:] {
			if seat >= 1 && seat <= Seats {
				s.SeatResults[seat].DrawsEntered++
			}
		}
	}
}

// AddGame incorporates a finished match. Every seat in Leaders is credited
// with a game win.
func (s *Statistics) AddGame(g GameResult) {
	s.Games++
	s.GameRounds += g.Rounds
	for _, points := range g.Scores {
		s.GamePoints += points
	}
	for _, seat := range g.Leaders {
		if seat >= 1 && seat <= Seats {
			s.SeatResults[seat].GameWins++
		}
	}
}

// MeanTurns returns the average number of turns per round.
func (s *Statistics) MeanTurns() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.SumTurns / float64(s.Rounds)
}

// Variance returns the sample variance of turns per round.
func (s *Statistics) Variance() float64 {
	if s.Rounds < 2 {
		return 0
	}
	mean := s.MeanTurns()
	return (s.SumTurns2 - float64(s.Rounds)*mean*mean) / float64(s.Rounds-1)
}

// StdDev returns the sample standard deviation of turns per round.
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(math.Max(0, s.Variance()))
}

// MedianTurns returns the median turn count.
func (s *Statistics) MedianTurns() float64 {
	if len(s.Turns) == 0 {
		return 0
	}
	sorted := s.sortedTurns()
	n := len(sorted)
	if n%2 == 0 {
		return float64(sorted[n/2-1]+sorted[n/2]) / 2
	}
	return float64(sorted[n/2])
}

// Percentile returns the turn count at percentile p (0.0 to 1.0).
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Turns) == 0 {
		return 0
	}
	sorted := s.sortedTurns()
	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return float64(sorted[len(sorted)-1])
	}
	weight := index - float64(lower)
	return float64(sorted[lower])*(1-weight) + float64(sorted[upper])*weight
}

func (s *Statistics) sortedTurns() []int {
	sorted := slices.Clone(s.Turns)
	slices.Sort(sorted)
	return sorted
}

// DrawRate returns the fraction of rounds that ended in a draw.
func (s *Statistics) DrawRate() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return float64(s.Draws) / float64(s.Rounds)
}

// Validate checks that the counters agree with each other.
func (s *Statistics) Validate() error {
	if s.Completed+s.Draws+s.Stalled != s.Rounds {
		return fmt.Errorf("outcome mismatch: %d completed + %d draws + %d stalled != %d rounds",
			s.Completed, s.Draws, s.Stalled, s.Rounds)
	}
	if len(s.Turns) != s.Rounds {
		return fmt.Errorf("turn samples (%d) don't match rounds (%d)", len(s.Turns), s.Rounds)
	}

	wins, seatWins, points, firsts := 0, 0, 0, 0
	for _, n := range s.WinsByCard {
		wins += n
	}
	for seat := 1; seat <= Seats; seat++ {
		seatWins += s.SeatResults[seat].Wins
		points += s.SeatResults[seat].Points
		firsts += s.SeatResults[seat].FirstPlaces
	}
	if wins != seatWins {
		return fmt.Errorf("win mismatch: %d by card, %d by seat", wins, seatWins)
	}
	if points != s.PointsTotal {
		return fmt.Errorf("points mismatch: seats sum to %d, total %d", points, s.PointsTotal)
	}
	if firsts > s.Completed {
		return fmt.Errorf("%d first places for %d completed rounds", firsts, s.Completed)
	}

	if s.Games > 0 {
		if s.GameRounds != s.Rounds {
			return fmt.Errorf("games cover %d rounds, want %d", s.GameRounds, s.Rounds)
		}
		if s.GamePoints != s.PointsTotal {
			return fmt.Errorf("game points mismatch: games sum to %d, rounds to %d", s.GamePoints, s.PointsTotal)
		}
	}

	// A complete round has at most three winners and a draw at most two.
	maxWins := 3*s.Completed + 2*s.Draws + 3*s.Stalled
	if wins > maxWins {
		return fmt.Errorf("%d wins exceed the %d possible", wins, maxWins)
	}
	return nil
}
