package gameid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for range 100 {
		id := Generate()
		parsed, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), parsed.Version())
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestDeterministicIDs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Game(42, 0), Game(42, 0))
	assert.NotEqual(t, Game(42, 0), Game(43, 0))
	assert.NotEqual(t, Game(42, 0), Game(42, 1))
	assert.NotEqual(t, Game(42, 3), Round(42, 3))
	assert.Equal(t, Round(42, 3), Round(42, 3))
	assert.NotEqual(t, Round(42, 3), Round(42, 4))
	assert.NotEqual(t, Round(4, 23), Round(42, 3))

	parsed, err := uuid.Parse(Round(1, 0))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())
}
