package simulator

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/lox/chitgame/chit"
)

// Strategy picks which card a bot passes.
type Strategy interface {
	Name() string
	// Choose returns one of legal, which is never empty and is in canonical
	// card order.
	Choose(hand, legal []chit.CardType, rng *rand.Rand) chit.CardType
}

// Strategies lists the names accepted by NewStrategy.
var Strategies = []string{"random", "greedy"}

// NewStrategy returns the strategy registered under name.
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case "random", "":
		return randomStrategy{}, nil
	case "greedy":
		return greedyStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// randomStrategy passes a uniformly chosen legal card type.
type randomStrategy struct{}

func (randomStrategy) Name() string { return "random" }

func (randomStrategy) Choose(_, legal []chit.CardType, rng *rand.Rand) chit.CardType {
	return legal[rng.IntN(len(legal))]
}

// greedyStrategy keeps the type it holds most of and sheds the type it holds
// fewest of. Ties go to the earlier type in canonical order.
type greedyStrategy struct{}

func (greedyStrategy) Name() string { return "greedy" }

func (greedyStrategy) Choose(hand, legal []chit.CardType, _ *rand.Rand) chit.CardType {
	counts := chit.Counts(hand)
	best := legal[0]
	for _, c := range legal[1:] {
		if counts[c] < counts[best] {
			best = c
		}
	}
	return best
}
