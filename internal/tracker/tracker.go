package tracker

import (
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/types"
)

// Tracker remembers the logical height at which each extreme source pair
// was first observed. Entries are never evicted, so the map only grows;
// with a fixed source set the key space is bounded by the pair count.
//
// The tracker has a single writer (the evaluator) and is not safe for
// concurrent use.
type Tracker struct {
	window uint64
	seen   map[types.PairKey]uint64
}

func New(window uint64) *Tracker {
	return &Tracker{
		window: window,
		seen:   make(map[types.PairKey]uint64, 8),
	}
}

// Observe records the pair if it has never been seen and reports whether
// it has persisted for at least the configured window. A first sighting
// always returns false: it only establishes the baseline height.
func (t *Tracker) Observe(pair types.PairKey, height uint64) bool {
	first, ok := t.seen[pair]
	if !ok {
		t.seen[pair] = height
		return false
	}
	return height-first >= t.window
}

// FirstSeen returns the baseline height for a pair, if one exists.
func (t *Tracker) FirstSeen(pair types.PairKey) (uint64, bool) {
	h, ok := t.seen[pair]
	return h, ok
}

func (t *Tracker) Window() uint64 { return t.window }

func (t *Tracker) Len() int { return len(t.seen) }
