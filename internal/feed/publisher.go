package feed

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/config"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/types"
)

// Publisher mirrors every accepted opportunity into Redis: an entry on
// the stream for consumers, plus a hash holding the most recent record.
type Publisher struct {
	rdb     *redis.Client
	stream  string
	lastKey string
}

func NewPublisher(cfg config.RedisCfg) *Publisher {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	return &Publisher{
		rdb:     rdb,
		stream:  cfg.Stream,
		lastKey: cfg.LastKey,
	}
}

func (p *Publisher) PublishOpportunity(ctx context.Context, rec types.OpportunityRecord) error {
	vals := map[string]interface{}{
		"id":       rec.ID,
		"buy":      rec.BuySource,
		"sell":     rec.SellSource,
		"token":    rec.Token.Hex(),
		"diff_bps": rec.DiffBps,
		"profit":   rec.Profit.String(),
		"height":   rec.Height,
		"detector": rec.Detector.Hex(),
		"ts_ms":    time.Now().UnixMilli(),
	}
	if err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: vals,
	}).Err(); err != nil {
		return err
	}
	return p.rdb.HSet(ctx, p.lastKey, vals).Err()
}

func (p *Publisher) Close() error { return p.rdb.Close() }
