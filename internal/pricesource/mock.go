package pricesource

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"

	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/config"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/types"
)

// Mock synthesizes three venues around configured base prices. Given the
// same seed it replays the same sequence, so full runs are reproducible.
// Reserves are derived so the balance guard sits mid-range; prices and
// the gas hint are the only jittered inputs.
type Mock struct {
	cfg    config.MockCfg
	rng    *rand.Rand
	height uint64
}

func NewMock(cfg config.MockCfg) (*Mock, error) {
	if len(cfg.Names) != types.SourceCount ||
		len(cfg.BasePrices) != types.SourceCount ||
		len(cfg.VolatilityBps) != types.SourceCount {
		return nil, fmt.Errorf("pricesource: mock needs %d names/prices/volatilities", types.SourceCount)
	}
	return &Mock{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func (m *Mock) Collect(_ context.Context) (types.Observation, error) {
	m.height++

	var obs types.Observation
	obs.Height = m.height
	obs.GasHint = m.gasHint()

	liq := new(big.Int).Mul(big.NewInt(m.cfg.Liquidity), types.Unit)
	for i := 0; i < types.SourceCount; i++ {
		price := m.jitteredPrice(i)
		reserveBase := new(big.Int).Set(liq)
		// reserveBase*1000/(reserveQuote/unit) == 1000 exactly
		reserveQuote := new(big.Int).Mul(reserveBase, types.Unit)

		obs.Sources[i] = types.PriceSnapshot{
			SourceID:       uint8(i),
			Name:           m.cfg.Names[i],
			ReferenceAsset: m.cfg.RefAsset,
			Price:          price,
			ReserveBase:    reserveBase,
			ReserveQuote:   reserveQuote,
			TotalLiquidity: liq,
			LastUpdate:     m.height,
			Volatility:     m.cfg.VolatilityBps[i],
		}
	}
	return obs, nil
}

// jitteredPrice moves the base price by up to ±volatility basis points.
func (m *Mock) jitteredPrice(i int) *big.Int {
	base := new(big.Int).Mul(big.NewInt(m.cfg.BasePrices[i]), types.Unit)
	vol := int64(m.cfg.VolatilityBps[i])
	if vol == 0 {
		return base
	}
	delta := m.rng.Int63n(2*vol+1) - vol
	base.Mul(base, big.NewInt(10_000+delta))
	base.Div(base, big.NewInt(10_000))
	return base
}

// gasHint fluctuates within ±20% of the configured gwei price.
func (m *Mock) gasHint() *big.Int {
	pct := 80 + m.rng.Int63n(41)
	g := big.NewInt(m.cfg.GasGwei * 1_000_000_000)
	g.Mul(g, big.NewInt(pct))
	g.Div(g, big.NewInt(100))
	return g
}

// Height reports the mock's logical clock, mostly for tests.
func (m *Mock) Height() uint64 { return m.height }
