package feed

import (
	"context"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/config"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/types"
)

// Consumer tails the opportunity stream published by the detector.
type Consumer struct {
	rdb    *redis.Client
	stream string
	lastID string
}

func NewConsumer(cfg config.RedisCfg) *Consumer {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	return &Consumer{
		rdb:    rdb,
		stream: cfg.Stream,
		lastID: "$", // only new entries
	}
}

// Tail blocks on the stream and forwards decoded records until the
// context is cancelled.
func (c *Consumer) Tail(ctx context.Context, out chan<- types.OpportunityRecord) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		streams, err := c.rdb.XRead(ctx, &redis.XReadArgs{
			Streams: []string{c.stream, c.lastID},
			Count:   100,
			Block:   time.Second,
		}).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			time.Sleep(200 * time.Millisecond)
			continue
		}
		for _, s := range streams {
			for _, m := range s.Messages {
				c.lastID = m.ID
				if rec, ok := decode(m.Values); ok {
					select {
					case out <- rec:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
		}
	}
}

func (c *Consumer) Close() error { return c.rdb.Close() }

func decode(vals map[string]interface{}) (types.OpportunityRecord, bool) {
	var rec types.OpportunityRecord
	rec.ID = parseUint(vals["id"])
	rec.BuySource = uint8(parseUint(vals["buy"]))
	rec.SellSource = uint8(parseUint(vals["sell"]))
	rec.DiffBps = parseUint(vals["diff_bps"])
	rec.Height = parseUint(vals["height"])
	if s, ok := vals["token"].(string); ok {
		rec.Token = common.HexToAddress(s)
	}
	if s, ok := vals["detector"].(string); ok {
		rec.Detector = common.HexToAddress(s)
	}
	s, ok := vals["profit"].(string)
	if !ok {
		return rec, false
	}
	profit, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return rec, false
	}
	rec.Profit = profit
	return rec, true
}

func parseUint(v interface{}) uint64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, _ := strconv.ParseUint(s, 10, 64)
	return n
}
