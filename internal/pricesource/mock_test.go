package pricesource

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/config"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/types"
)

func mockCfg() config.MockCfg {
	var c config.Config
	c.ApplyDefaults()
	return c.Mock
}

func TestMock_NeedsThreeSources(t *testing.T) {
	cfg := mockCfg()
	cfg.Names = []string{"only", "two"}
	_, err := NewMock(cfg)
	assert.Error(t, err)
}

func TestMock_HeightsAreMonotonic(t *testing.T) {
	m, err := NewMock(mockCfg())
	require.NoError(t, err)

	for want := uint64(1); want <= 5; want++ {
		o, err := m.Collect(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, o.Height)
	}
}

func TestMock_SnapshotShape(t *testing.T) {
	cfg := mockCfg()
	m, err := NewMock(cfg)
	require.NoError(t, err)

	o, err := m.Collect(context.Background())
	require.NoError(t, err)

	liq := new(big.Int).Mul(big.NewInt(cfg.Liquidity), types.Unit)
	for i := 0; i < types.SourceCount; i++ {
		s := o.Sources[i]
		assert.Equal(t, uint8(i), s.SourceID)
		assert.Equal(t, cfg.Names[i], s.Name)
		assert.Equal(t, cfg.RefAsset, s.ReferenceAsset)
		assert.Equal(t, 0, liq.Cmp(s.TotalLiquidity))
		assert.Equal(t, o.Height, s.LastUpdate)

		// reserves are derived so the balance guard reads exactly 1000
		quote := new(big.Int).Div(s.ReserveQuote, types.Unit)
		ratio := new(big.Int).Mul(s.ReserveBase, big.NewInt(1000))
		ratio.Div(ratio, quote)
		assert.Equal(t, int64(1000), ratio.Int64())
	}
	assert.True(t, o.GasHint.Sign() > 0)
}

func TestMock_PriceStaysWithinVolatility(t *testing.T) {
	cfg := mockCfg()
	m, err := NewMock(cfg)
	require.NoError(t, err)

	for n := 0; n < 50; n++ {
		o, err := m.Collect(context.Background())
		require.NoError(t, err)
		for i := 0; i < types.SourceCount; i++ {
			base := new(big.Int).Mul(big.NewInt(cfg.BasePrices[i]), types.Unit)
			vol := int64(cfg.VolatilityBps[i])

			lo := new(big.Int).Mul(base, big.NewInt(10_000-vol))
			lo.Div(lo, big.NewInt(10_000))
			hi := new(big.Int).Mul(base, big.NewInt(10_000+vol))
			hi.Div(hi, big.NewInt(10_000))

			p := o.Sources[i].Price
			if p.Cmp(lo) < 0 || p.Cmp(hi) > 0 {
				t.Fatalf("source %d price %s outside ±%d bps of base", i, p, vol)
			}
		}
	}
}

func TestMock_DeterministicForSeed(t *testing.T) {
	a, err := NewMock(mockCfg())
	require.NoError(t, err)
	b, err := NewMock(mockCfg())
	require.NoError(t, err)

	for n := 0; n < 10; n++ {
		oa, err := a.Collect(context.Background())
		require.NoError(t, err)
		ob, err := b.Collect(context.Background())
		require.NoError(t, err)

		assert.Equal(t, oa.Height, ob.Height)
		assert.Equal(t, 0, oa.GasHint.Cmp(ob.GasHint))
		for i := 0; i < types.SourceCount; i++ {
			assert.Equal(t, 0, oa.Sources[i].Price.Cmp(ob.Sources[i].Price))
		}
	}
}

func TestMock_ZeroVolatilityPinsPrices(t *testing.T) {
	cfg := mockCfg()
	cfg.VolatilityBps = []uint32{0, 0, 0}
	m, err := NewMock(cfg)
	require.NoError(t, err)

	for n := 0; n < 5; n++ {
		o, err := m.Collect(context.Background())
		require.NoError(t, err)
		for i := 0; i < types.SourceCount; i++ {
			want := new(big.Int).Mul(big.NewInt(cfg.BasePrices[i]), types.Unit)
			assert.Equal(t, 0, want.Cmp(o.Sources[i].Price))
		}
	}
}
