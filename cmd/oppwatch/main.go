package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/config"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/feed"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/types"
)

// oppwatch tails the redis opportunity stream and logs every record; a
// small companion for watching a running detector.
func main() {
	cfgPath := flag.String("config", "./config.yaml", "path to config file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if cfg.Redis.Addr == "" {
		logger.Fatal("redis addr is empty in config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	consumer := feed.NewConsumer(cfg.Redis)
	defer consumer.Close()

	ch := make(chan types.OpportunityRecord, 64)
	go func() {
		if err := consumer.Tail(ctx, ch); err != nil && ctx.Err() == nil {
			logger.Error("feed tail stopped", zap.Error(err))
			cancel()
		}
	}()

	logger.Info("watching opportunity stream",
		zap.String("addr", cfg.Redis.Addr),
		zap.String("stream", cfg.Redis.Stream),
	)
	for {
		select {
		case <-ctx.Done():
			return
		case rec := <-ch:
			logger.Info("opportunity",
				zap.Uint64("id", rec.ID),
				zap.Uint8("buy_source", rec.BuySource),
				zap.Uint8("sell_source", rec.SellSource),
				zap.Uint64("gap_bps", rec.DiffBps),
				zap.String("profit", rec.Profit.String()),
				zap.Uint64("height", rec.Height),
				zap.String("detector", rec.Detector.Hex()),
			)
		}
	}
}
