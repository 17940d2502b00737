package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/types"
)

func TestObserve_FirstSightingNeverMatures(t *testing.T) {
	trk := New(2)
	pair := types.NewPairKey(0, 2)

	assert.False(t, trk.Observe(pair, 100), "first sighting must only record the baseline")

	first, ok := trk.FirstSeen(pair)
	assert.True(t, ok)
	assert.Equal(t, uint64(100), first)
}

func TestObserve_MaturesAtWindow(t *testing.T) {
	trk := New(2)
	pair := types.NewPairKey(1, 2)

	assert.False(t, trk.Observe(pair, 10))
	assert.False(t, trk.Observe(pair, 11), "one height of persistence is not enough")
	assert.True(t, trk.Observe(pair, 12))
	assert.True(t, trk.Observe(pair, 50), "a matured pair stays matured")
}

func TestObserve_BaselineNeverMoves(t *testing.T) {
	trk := New(2)
	pair := types.NewPairKey(0, 1)

	trk.Observe(pair, 7)
	trk.Observe(pair, 8)
	trk.Observe(pair, 9)

	first, ok := trk.FirstSeen(pair)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), first, "later observations must not reset the baseline")
}

func TestObserve_DistinctPairsTrackedIndependently(t *testing.T) {
	trk := New(2)

	assert.False(t, trk.Observe(types.NewPairKey(0, 1), 5))
	assert.False(t, trk.Observe(types.NewPairKey(0, 2), 5))
	assert.False(t, trk.Observe(types.NewPairKey(1, 2), 5))
	assert.Equal(t, 3, trk.Len())

	assert.True(t, trk.Observe(types.NewPairKey(0, 1), 7))
	assert.Equal(t, 3, trk.Len(), "entries are never evicted")
}
