package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SourceCount is the number of price sources sampled each cycle.
const SourceCount = 3

// Unit is one whole token in 18-decimal fixed point.
var Unit = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// PriceSnapshot is one source's market state at a point in logical time.
// Treated as immutable once produced.
type PriceSnapshot struct {
	SourceID       uint8    `json:"sourceId"`
	Name           string   `json:"name"`
	ReferenceAsset string   `json:"referenceAsset"`
	Price          *big.Int `json:"price"` // quote per 1 base, 18-dec
	ReserveBase    *big.Int `json:"reserveBase"`
	ReserveQuote   *big.Int `json:"reserveQuote"`
	TotalLiquidity *big.Int `json:"totalLiquidity"`
	LastUpdate     uint64   `json:"lastUpdate"` // height of the source's own last refresh
	Volatility     uint32   `json:"volatility"` // jitter the venue exhibits, bps
}

// Observation is one cycle's view across all sources.
type Observation struct {
	Sources [SourceCount]PriceSnapshot `json:"sources"`
	Height  uint64                     `json:"height"`
	GasHint *big.Int                   `json:"gasHint"` // wei
}

// PairKey identifies an unordered source pair. Low < High always.
type PairKey struct {
	Low  uint8 `json:"low"`
	High uint8 `json:"high"`
}

func NewPairKey(a, b uint8) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{Low: a, High: b}
}

// WidestPair returns the source pair with the largest absolute price
// difference in the observation, plus that difference. Ties resolve to
// the first pair in (0,1),(0,2),(1,2) order so the result is stable.
func (o Observation) WidestPair() (PairKey, *big.Int) {
	best := PairKey{}
	bestDiff := new(big.Int)
	for i := 0; i < SourceCount; i++ {
		for j := i + 1; j < SourceCount; j++ {
			d := new(big.Int).Sub(o.Sources[i].Price, o.Sources[j].Price)
			d.Abs(d)
			if d.Cmp(bestDiff) > 0 {
				best = NewPairKey(uint8(i), uint8(j))
				bestDiff = d
			}
		}
	}
	return best, bestDiff
}

// OpportunityRecord is one accepted opportunity in the ledger. Immutable
// after creation except Executed/ActualProfit, set once by MarkExecuted.
type OpportunityRecord struct {
	ID           uint64         `json:"id"`
	BuySource    uint8          `json:"buySource"`
	SellSource   uint8          `json:"sellSource"`
	Token        common.Address `json:"token"`
	DiffBps      uint64         `json:"diffBps"`
	Profit       *big.Int       `json:"profit"` // estimate at detection time, 18-dec
	Height       uint64         `json:"height"`
	Detector     common.Address `json:"detector"`
	Executed     bool           `json:"executed"`
	ActualProfit *big.Int       `json:"actualProfit,omitempty"`
}
