package types

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func price(units int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(units), Unit)
}

func TestNewPairKey_Unordered(t *testing.T) {
	assert.Equal(t, NewPairKey(2, 0), NewPairKey(0, 2))
	assert.Equal(t, uint8(0), NewPairKey(2, 0).Low)
	assert.Equal(t, uint8(2), NewPairKey(2, 0).High)
}

func TestWidestPair(t *testing.T) {
	var obs Observation
	obs.Sources[0].Price = price(3000)
	obs.Sources[1].Price = price(3200)
	obs.Sources[2].Price = price(2950)

	pair, diff := obs.WidestPair()
	assert.Equal(t, NewPairKey(1, 2), pair)
	assert.Equal(t, price(250), diff)
}

func TestWidestPair_TieIsStable(t *testing.T) {
	var obs Observation
	obs.Sources[0].Price = price(3000)
	obs.Sources[1].Price = price(3100)
	obs.Sources[2].Price = price(3000)

	// (0,1) and (1,2) both span 100; the first pair in scan order wins.
	pair, _ := obs.WidestPair()
	assert.Equal(t, NewPairKey(0, 1), pair)
}
