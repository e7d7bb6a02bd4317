// Package randutil derives the random sources used for shuffling.
//
// Tests and simulations seed explicitly so every deal is reproducible;
// production callers take a seed from Entropy and record it alongside the
// round so a disputed deal can be replayed.
package randutil

import (
	crand "crypto/rand"
	"encoding/binary"
	rand "math/rand/v2"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from seed. The two PCG
// words are derived with splitmix64 so nearby seeds give unrelated streams.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Entropy returns a seed read from the operating system's random source.
func Entropy() int64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		panic("randutil: reading entropy: " + err.Error())
	}
	return int64(binary.LittleEndian.Uint64(buf[:]))
}

// Derive returns the seed for the index-th sub-stream of base. Simulations
// use it to give every round its own seed while staying reproducible from a
// single base seed.
func Derive(base int64, index int) int64 {
	return int64(mix(uint64(base) + uint64(index+1)*goldenRatio64))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
