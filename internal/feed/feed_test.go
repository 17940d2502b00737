package feed

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/config"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/types"
)

func testRecord() types.OpportunityRecord {
	return types.OpportunityRecord{
		ID:         3,
		BuySource:  2,
		SellSource: 1,
		Token:      common.HexToAddress("0x000000000000000000000000000000000000dEaD"),
		DiffBps:    847,
		Profit:     new(big.Int).Mul(big.NewInt(4237), types.Unit),
		Height:     42,
		Detector:   common.HexToAddress("0x0000000000000000000000000000000000000001"),
	}
}

func testCfg(addr string) config.RedisCfg {
	return config.RedisCfg{Addr: addr, Stream: "opp:stream", LastKey: "opp:last"}
}

func TestPublisher_StreamAndLastKey(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testCfg(mr.Addr())

	p := NewPublisher(cfg)
	defer p.Close()

	rec := testRecord()
	require.NoError(t, p.PublishOpportunity(context.Background(), rec))

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	msgs, err := rdb.XRange(context.Background(), cfg.Stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "3", msgs[0].Values["id"])
	assert.Equal(t, "847", msgs[0].Values["diff_bps"])
	assert.Equal(t, rec.Profit.String(), msgs[0].Values["profit"])
	assert.Equal(t, rec.Token.Hex(), msgs[0].Values["token"])

	last, err := rdb.HGetAll(context.Background(), cfg.LastKey).Result()
	require.NoError(t, err)
	assert.Equal(t, "42", last["height"])
	assert.Equal(t, rec.Detector.Hex(), last["detector"])
}

func TestConsumer_TailDecodesRecords(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testCfg(mr.Addr())

	p := NewPublisher(cfg)
	defer p.Close()
	require.NoError(t, p.PublishOpportunity(context.Background(), testRecord()))

	c := NewConsumer(cfg)
	defer c.Close()
	c.lastID = "0" // replay from the start instead of waiting for new entries

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	out := make(chan types.OpportunityRecord, 1)
	go func() { _ = c.Tail(ctx, out) }()

	select {
	case rec := <-out:
		want := testRecord()
		assert.Equal(t, want.ID, rec.ID)
		assert.Equal(t, want.BuySource, rec.BuySource)
		assert.Equal(t, want.SellSource, rec.SellSource)
		assert.Equal(t, want.DiffBps, rec.DiffBps)
		assert.Equal(t, want.Height, rec.Height)
		assert.Equal(t, want.Token, rec.Token)
		assert.Equal(t, 0, want.Profit.Cmp(rec.Profit))
	case <-ctx.Done():
		t.Fatal("no record received from the stream")
	}
}

func TestDecode_RejectsGarbage(t *testing.T) {
	_, ok := decode(map[string]interface{}{"id": "1"})
	assert.False(t, ok, "missing profit")

	_, ok = decode(map[string]interface{}{"id": "1", "profit": "not-a-number"})
	assert.False(t, ok)
}
