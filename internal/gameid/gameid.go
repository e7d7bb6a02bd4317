// Package gameid generates game and round identifiers.
//
// Interactive rounds get time-ordered UUIDv7 ids. Simulated rounds get
// name-based ids derived from the run seed, so the same seed always produces
// the same ids and move logs from two runs can be compared line by line.
package gameid

import (
	"fmt"

	"github.com/google/uuid"
)

// Namespace scopes every name-based id.
var Namespace = uuid.MustParse("5b0b6f0e-4c1a-4f4e-9a53-2f1f3c6e8d10")

// Generate returns a new time-ordered id.
func Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does.
		return uuid.NewString()
	}
	return id.String()
}

// Game returns the id of the index-th simulated game played from seed.
func Game(seed int64, index int) string {
	return uuid.NewSHA1(Namespace, fmt.Appendf(nil, "game/%d/%d", seed, index)).String()
}

// Round returns the id of the index-th simulated round played from seed.
func Round(seed int64, index int) string {
	return uuid.NewSHA1(Namespace, fmt.Appendf(nil, "round/%d/%d", seed, index)).String()
}
