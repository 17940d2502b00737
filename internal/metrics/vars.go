package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SourcePrice = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arbtrap_source_price",
		Help: "Last observed price per source (whole quote units)",
	}, []string{"source"})

	GapBps = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arbtrap_price_gap_bps",
		Help: "Max/min price gap of the last observation, basis points",
	})

	ProfitEstimate = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arbtrap_profit_estimate",
		Help: "Best-pair profit estimate of the last observation (whole units)",
	})

	Accepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arbtrap_accepted_total",
		Help: "Number of accepted opportunities",
	})

	Rejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arbtrap_rejections_total",
		Help: "Number of rejected observations by failing condition",
	}, []string{"reason"})

	LedgerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arbtrap_ledger_errors_total",
		Help: "Number of failed ledger appends",
	})

	CycleLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "arbtrap_cycle_latency_seconds",
		Help:    "Time to collect and evaluate one cycle",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		SourcePrice,
		GapBps,
		ProfitEstimate,
		Accepted,
		Rejections,
		LedgerErrors,
		CycleLatency,
	)
}
