package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/config"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/dash"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/evaluator"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/feed"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/ledger"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/metrics"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/pricesource"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/runner"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/tracker"
)

func parseFlags() (cfgPath string, cycles int) {
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config file")
	flag.IntVar(&cycles, "cycles", 0, "run this many cycles and exit (0 = run forever)")
	flag.Parse()
	return cfgPath, cycles
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.CallerKey = "caller"
	cfg.EncoderConfig.StacktraceKey = "stacktrace"
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	return cfg.Build()
}

func main() {
	cfgPath, cycles := parseFlags()

	logger, err := newLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Warn("received signal, shutting down...")
		cancel()
	}()

	metrics.Serve(ctx, cfg.Metrics.ListenAddr, nil, logger)

	var src pricesource.Source
	switch cfg.Source {
	case "mock":
		src, err = pricesource.NewMock(cfg.Mock)
	case "onchain":
		src, err = pricesource.NewOnchain(cfg, logger)
	default:
		logger.Fatal("unknown price source", zap.String("source", cfg.Source))
	}
	if err != nil {
		logger.Fatal("failed to initialize price source", zap.Error(err))
	}

	trk := tracker.New(cfg.Thresholds.PersistenceBlocks)
	eval := evaluator.New(&cfg.Thresholds, trk, logger)
	led := ledger.New()

	var pub *feed.Publisher
	if cfg.Redis.Addr != "" {
		pub = feed.NewPublisher(cfg.Redis)
		defer pub.Close()
	}

	var store *dash.Store
	if cfg.Dash.ListenAddr != "" {
		store = dash.NewStore(led)
		dash.StartHTTP(ctx, store, cfg.Dash.ListenAddr, logger)
	}

	r := runner.New(cfg, src, eval, led, pub, store, logger)

	logger.Info("detector started",
		zap.String("source", cfg.Source),
		zap.Int64("min_gap_bps", cfg.Thresholds.MinGapBps),
		zap.Uint64("persistence_blocks", cfg.Thresholds.PersistenceBlocks),
		zap.Duration("cycle", cfg.CycleInterval()),
	)

	if cycles > 0 {
		for i := 0; i < cycles && ctx.Err() == nil; i++ {
			r.Cycle(ctx)
			time.Sleep(cfg.CycleInterval())
		}
	} else {
		r.Run(ctx)
	}

	m := led.PerformanceMetrics()
	logger.Info("detector finished",
		zap.Uint64("opportunities", m.Count),
		zap.String("total_profit", m.TotalProfit.String()),
	)
}
