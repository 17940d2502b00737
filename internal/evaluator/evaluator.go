package evaluator

import (
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/config"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/tracker"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/types"
)

var (
	// ErrInsufficientHistory means fewer observations were supplied than
	// the persistence window needs; the decision cannot possibly mature.
	ErrInsufficientHistory = errors.New("evaluator: insufficient observation history")
	// ErrInvalidSource means an observation's source set is not the
	// three known feeds in their stable order.
	ErrInvalidSource = errors.New("evaluator: invalid source set")
)

// Reject reasons. Also used as the label values of the rejection counter.
const (
	ReasonPriceGap    = "price_gap"
	ReasonLiquidity   = "liquidity"
	ReasonProfit      = "profitability"
	ReasonImbalance   = "reserve_imbalance"
	ReasonPersistence = "persistence"
)

const bpsDenominator = 10_000

// Report is the outcome of one evaluation cycle. Accepted is the final
// decision; the remaining fields let the caller derive a ledger record
// without recomputing anything. On a reject, fields computed before the
// failing condition are still filled in.
type Report struct {
	Accepted   bool
	Reason     string // empty when accepted
	Pair       types.PairKey
	GapBps     uint64
	BuySource  uint8
	SellSource uint8
	Profit     *big.Int // best-pair estimate, 18-dec
}

// Evaluator applies the five safety conditions to the most recent
// observation of a history window. It is the tracker's only mutator and
// is not safe for concurrent use.
type Evaluator struct {
	trk *tracker.Tracker
	log *zap.Logger

	minGapBps    *big.Int
	minLiquidity *big.Int
	minProfit    *big.Int
	gasUnits     *big.Int
	assetPrice   *big.Int
	minRatio     *big.Int
	maxRatio     *big.Int
}

func New(cfg *config.ThresholdsCfg, trk *tracker.Tracker, log *zap.Logger) *Evaluator {
	return &Evaluator{
		trk:          trk,
		log:          log,
		minGapBps:    big.NewInt(cfg.MinGapBps),
		minLiquidity: scale(cfg.MinLiquidity),
		minProfit:    scale(cfg.MinProfit),
		gasUnits:     big.NewInt(cfg.GasUnits),
		assetPrice:   big.NewInt(cfg.AssetPriceUSD),
		minRatio:     big.NewInt(cfg.MinReserveRatio),
		maxRatio:     big.NewInt(cfg.MaxReserveRatio),
	}
}

// scale converts whole units to 18-decimal fixed point.
func scale(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), types.Unit)
}

// Evaluate runs all five conditions against the newest observation.
// History is oldest first. The conditions run in a fixed order and the
// tracker is only touched by the last one, so a call that rejects or
// errors earlier leaves no state behind.
func (e *Evaluator) Evaluate(history []types.Observation) (Report, error) {
	if uint64(len(history)) < e.trk.Window() {
		return Report{}, ErrInsufficientHistory
	}
	cur := history[len(history)-1]
	if err := validate(cur); err != nil {
		return Report{}, err
	}

	var rep Report

	// 1. Price gap across the three sources, integer basis points
	// against the cheapest price.
	lo, hi := extremes(cur)
	minPrice := cur.Sources[lo].Price
	maxPrice := cur.Sources[hi].Price
	gap := new(big.Int).Sub(maxPrice, minPrice)
	gap.Mul(gap, big.NewInt(bpsDenominator))
	gap.Div(gap, minPrice)
	rep.GapBps = gap.Uint64()
	rep.BuySource = lo
	rep.SellSource = hi
	if gap.Cmp(e.minGapBps) < 0 {
		return e.reject(rep, ReasonPriceGap, cur.Height), nil
	}

	// 2. Every source must carry at least the minimum liquidity.
	for i := range cur.Sources {
		if cur.Sources[i].TotalLiquidity.Cmp(e.minLiquidity) < 0 {
			return e.reject(rep, ReasonLiquidity, cur.Height), nil
		}
	}

	// 3. Best-pair profit estimate must beat both the gas estimate and
	// the absolute floor. Multiplication before division throughout.
	rep.Profit = e.bestProfit(cur)
	gasCost := new(big.Int).Mul(cur.GasHint, e.gasUnits)
	gasCost.Mul(gasCost, e.assetPrice)
	if rep.Profit.Cmp(gasCost) <= 0 || rep.Profit.Cmp(e.minProfit) <= 0 {
		return e.reject(rep, ReasonProfit, cur.Height), nil
	}

	// 4. Reserve balance guard against extreme pool imbalance.
	for i := range cur.Sources {
		if !e.balanced(cur.Sources[i]) {
			return e.reject(rep, ReasonImbalance, cur.Height), nil
		}
	}

	// 5. The extreme pair must have persisted across the window. A
	// first sighting records the baseline and rejects.
	pair, _ := cur.WidestPair()
	rep.Pair = pair
	if !e.trk.Observe(pair, cur.Height) {
		return e.reject(rep, ReasonPersistence, cur.Height), nil
	}

	rep.Accepted = true
	return rep, nil
}

func (e *Evaluator) reject(rep Report, reason string, height uint64) Report {
	rep.Accepted = false
	rep.Reason = reason
	e.log.Debug("observation rejected",
		zap.String("reason", reason),
		zap.Uint64("height", height),
		zap.Uint64("gap_bps", rep.GapBps),
	)
	return rep
}

// bestProfit estimates, for every unordered source pair, how much of the
// gap the thinner pool could capture, and returns the maximum:
//
//	min(liqA, liqB) * |priceA - priceB| / (refPrice * 10)
//
// refPrice is the cheaper leg. The division happens after the full
// multiplication; for extreme liquidity/gap disparities this can still
// truncate to zero, which matches the original detector's behavior.
func (e *Evaluator) bestProfit(obs types.Observation) *big.Int {
	best := new(big.Int)
	for i := 0; i < types.SourceCount; i++ {
		for j := i + 1; j < types.SourceCount; j++ {
			a, b := obs.Sources[i], obs.Sources[j]
			liq := a.TotalLiquidity
			if b.TotalLiquidity.Cmp(liq) < 0 {
				liq = b.TotalLiquidity
			}
			ref := a.Price
			if b.Price.Cmp(ref) < 0 {
				ref = b.Price
			}
			diff := new(big.Int).Sub(a.Price, b.Price)
			diff.Abs(diff)

			p := new(big.Int).Mul(liq, diff)
			den := new(big.Int).Mul(ref, big.NewInt(10))
			p.Div(p, den)
			if p.Cmp(best) > 0 {
				best = p
			}
		}
	}
	return best
}

// balanced checks reserveBase*1000 / (reserveQuote/unit) against the
// configured bounds. An empty quote side counts as imbalanced rather
// than dividing by zero.
func (e *Evaluator) balanced(s types.PriceSnapshot) bool {
	quote := new(big.Int).Div(s.ReserveQuote, types.Unit)
	if quote.Sign() == 0 {
		return false
	}
	ratio := new(big.Int).Mul(s.ReserveBase, big.NewInt(1000))
	ratio.Div(ratio, quote)
	return ratio.Cmp(e.minRatio) >= 0 && ratio.Cmp(e.maxRatio) <= 0
}

// extremes returns the indices of the cheapest and priciest source.
func extremes(obs types.Observation) (lo, hi uint8) {
	for i := 1; i < types.SourceCount; i++ {
		if obs.Sources[i].Price.Cmp(obs.Sources[lo].Price) < 0 {
			lo = uint8(i)
		}
		if obs.Sources[i].Price.Cmp(obs.Sources[hi].Price) > 0 {
			hi = uint8(i)
		}
	}
	return lo, hi
}

func validate(obs types.Observation) error {
	if obs.GasHint == nil {
		return fmt.Errorf("%w: missing gas hint", ErrInvalidSource)
	}
	for i := range obs.Sources {
		s := &obs.Sources[i]
		if s.SourceID != uint8(i) {
			return fmt.Errorf("%w: unexpected source id %d at index %d", ErrInvalidSource, s.SourceID, i)
		}
		if s.Price == nil || s.Price.Sign() <= 0 {
			return fmt.Errorf("%w: source %d has no price", ErrInvalidSource, i)
		}
		if s.TotalLiquidity == nil || s.ReserveBase == nil || s.ReserveQuote == nil {
			return fmt.Errorf("%w: source %d has incomplete reserves", ErrInvalidSource, i)
		}
	}
	return nil
}
