package runner

import (
	"context"
	"errors"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/config"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/dash"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/evaluator"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/feed"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/ledger"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/metrics"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/pricesource"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/types"
)

// Runner drives the detection loop: collect an observation, evaluate it
// against the rolling history, and forward accepted opportunities into
// the ledger and the feed. All core state mutation happens on this one
// goroutine.
type Runner struct {
	cfg   *config.Config
	src   pricesource.Source
	eval  *evaluator.Evaluator
	led   *ledger.Ledger
	pub   *feed.Publisher // nil when redis is not configured
	store *dash.Store     // nil when the dash is disabled
	log   *zap.Logger

	token    common.Address
	detector common.Address
	history  []types.Observation
}

func New(cfg *config.Config, src pricesource.Source, eval *evaluator.Evaluator, led *ledger.Ledger, pub *feed.Publisher, store *dash.Store, log *zap.Logger) *Runner {
	return &Runner{
		cfg:      cfg,
		src:      src,
		eval:     eval,
		led:      led,
		pub:      pub,
		store:    store,
		log:      log,
		token:    common.HexToAddress(cfg.Token),
		detector: common.HexToAddress(cfg.Detector),
		history:  make([]types.Observation, 0, cfg.Timings.HistoryDepth),
	}
}

// Run blocks until the context is cancelled.
func (r *Runner) Run(ctx context.Context) {
	t := time.NewTicker(r.cfg.CycleInterval())
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Cycle(ctx)
		}
	}
}

// Cycle executes one collect/evaluate/record pass. Exported so tests and
// alternative schedulers can drive the loop directly.
func (r *Runner) Cycle(ctx context.Context) {
	start := time.Now()

	obs, err := r.src.Collect(ctx)
	if err != nil {
		r.log.Warn("collect failed", zap.Error(err))
		return
	}
	r.push(obs)

	rep, err := r.eval.Evaluate(r.history)
	switch {
	case errors.Is(err, evaluator.ErrInsufficientHistory):
		r.log.Debug("history not warmed up yet",
			zap.Int("have", len(r.history)),
			zap.Uint64("height", obs.Height),
		)
		return
	case err != nil:
		r.log.Warn("evaluation failed", zap.Uint64("height", obs.Height), zap.Error(err))
		return
	}

	r.observe(obs, rep)

	if rep.Accepted {
		r.record(ctx, obs, rep)
	} else {
		metrics.Rejections.WithLabelValues(rep.Reason).Inc()
	}

	if r.store != nil {
		r.store.Update(obs, rep)
	}
	metrics.CycleLatency.Observe(time.Since(start).Seconds())
}

func (r *Runner) record(ctx context.Context, obs types.Observation, rep evaluator.Report) {
	metrics.Accepted.Inc()

	id, err := r.led.Append(rep.BuySource, rep.SellSource, r.token, rep.GapBps, rep.Profit, r.detector, obs.Height)
	if err != nil {
		metrics.LedgerErrors.Inc()
		r.log.Warn("ledger append failed", zap.Uint64("height", obs.Height), zap.Error(err))
		return
	}

	r.log.Info("opportunity recorded",
		zap.Uint64("id", id),
		zap.Uint8("buy_source", rep.BuySource),
		zap.Uint8("sell_source", rep.SellSource),
		zap.Uint64("gap_bps", rep.GapBps),
		zap.String("profit", rep.Profit.String()),
		zap.Uint64("height", obs.Height),
	)

	if r.pub != nil {
		rec, err := r.led.Get(id)
		if err != nil {
			return
		}
		pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := r.pub.PublishOpportunity(pubCtx, rec); err != nil {
			r.log.Warn("feed publish failed", zap.Uint64("id", id), zap.Error(err))
		}
	}
}

// push appends to the rolling history, keeping at most HistoryDepth
// observations.
func (r *Runner) push(obs types.Observation) {
	r.history = append(r.history, obs)
	if over := len(r.history) - r.cfg.Timings.HistoryDepth; over > 0 {
		r.history = r.history[over:]
	}
}

// History exposes the current window, mostly for tests.
func (r *Runner) History() []types.Observation { return r.history }

func (r *Runner) observe(obs types.Observation, rep evaluator.Report) {
	for i := range obs.Sources {
		metrics.SourcePrice.WithLabelValues(obs.Sources[i].Name).Set(toFloat(obs.Sources[i].Price))
	}
	metrics.GapBps.Set(float64(rep.GapBps))
	if rep.Profit != nil {
		metrics.ProfitEstimate.Set(toFloat(rep.Profit))
	}
}

func toFloat(v *big.Int) float64 {
	f := new(big.Float).SetInt(v)
	f.Quo(f, big.NewFloat(math.Pow10(18)))
	out, _ := f.Float64()
	return out
}
