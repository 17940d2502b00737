package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// MockCfg drives the synthetic price source. Base prices are whole quote
// units; scaling to 18 decimals happens in the source itself.
type MockCfg struct {
	Seed          int64    `yaml:"seed"`
	Names         []string `yaml:"names"`
	BasePrices    []int64  `yaml:"base_prices"`
	VolatilityBps []uint32 `yaml:"volatility_bps"`
	Liquidity     int64    `yaml:"liquidity"` // whole units per source
	RefAsset      string   `yaml:"reference_asset"`
	GasGwei       int64    `yaml:"gas_gwei"`
}

type ChainCfg struct {
	RPCHTTP string   `yaml:"rpc_http"`
	Pools   []string `yaml:"pools"` // exactly 3 V2-style pair addresses
}

// ThresholdsCfg holds the validation bounds. Fixed at construction; the
// running system never mutates them.
type ThresholdsCfg struct {
	MinGapBps         int64  `yaml:"min_gap_bps"`
	MinLiquidity      int64  `yaml:"min_liquidity"` // whole units
	GasUnits          int64  `yaml:"gas_units"`
	AssetPriceUSD     int64  `yaml:"asset_price_usd"`
	MinProfit         int64  `yaml:"min_profit"` // whole units
	MinReserveRatio   int64  `yaml:"min_reserve_ratio"`
	MaxReserveRatio   int64  `yaml:"max_reserve_ratio"`
	PersistenceBlocks uint64 `yaml:"persistence_blocks"`
}

type TimingsCfg struct {
	CycleMs      int `yaml:"cycle_ms"`
	HistoryDepth int `yaml:"history_depth"`
}

type RedisCfg struct {
	Addr     string `yaml:"addr"`
	DB       int    `yaml:"db"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Stream   string `yaml:"stream"`
	LastKey  string `yaml:"last_key"`
}

type Config struct {
	Token    string `yaml:"token"`    // ERC-20 address of the watched base asset
	Detector string `yaml:"detector"` // identity stamped on ledger records
	Source   string `yaml:"source"`   // "mock" or "onchain"

	Mock       MockCfg       `yaml:"mock"`
	Chain      ChainCfg      `yaml:"chain"`
	Thresholds ThresholdsCfg `yaml:"thresholds"`
	Timings    TimingsCfg    `yaml:"timings"`
	Redis      RedisCfg      `yaml:"redis"`

	Metrics struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`
	Dash struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"dash"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if c.Source == "onchain" && len(c.Chain.Pools) != 3 {
		return nil, fmt.Errorf("config: onchain source needs exactly 3 pools, got %d", len(c.Chain.Pools))
	}
	return &c, nil
}

// ApplyDefaults fills every zero field with the stock setup: three mock
// venues around 3000/3200/2950 and the validation bounds the detector
// shipped with.
func (c *Config) ApplyDefaults() {
	if c.Source == "" {
		c.Source = "mock"
	}
	if c.Mock.Seed == 0 {
		c.Mock.Seed = 42
	}
	if len(c.Mock.Names) == 0 {
		c.Mock.Names = []string{"UniswapV2", "SushiSwap", "PancakeSwap"}
	}
	if len(c.Mock.BasePrices) == 0 {
		c.Mock.BasePrices = []int64{3000, 3200, 2950}
	}
	if len(c.Mock.VolatilityBps) == 0 {
		c.Mock.VolatilityBps = []uint32{30, 50, 20}
	}
	if c.Mock.Liquidity == 0 {
		c.Mock.Liquidity = 500_000
	}
	if c.Mock.RefAsset == "" {
		c.Mock.RefAsset = "USDC"
	}
	if c.Mock.GasGwei == 0 {
		c.Mock.GasGwei = 30
	}

	if c.Thresholds.MinGapBps == 0 {
		c.Thresholds.MinGapBps = 50
	}
	if c.Thresholds.MinLiquidity == 0 {
		c.Thresholds.MinLiquidity = 1000
	}
	if c.Thresholds.GasUnits == 0 {
		c.Thresholds.GasUnits = 300_000
	}
	if c.Thresholds.AssetPriceUSD == 0 {
		c.Thresholds.AssetPriceUSD = 2000
	}
	if c.Thresholds.MinProfit == 0 {
		c.Thresholds.MinProfit = 10
	}
	if c.Thresholds.MinReserveRatio == 0 {
		c.Thresholds.MinReserveRatio = 10
	}
	if c.Thresholds.MaxReserveRatio == 0 {
		c.Thresholds.MaxReserveRatio = 10_000
	}
	if c.Thresholds.PersistenceBlocks == 0 {
		c.Thresholds.PersistenceBlocks = 2
	}

	if c.Timings.CycleMs == 0 {
		c.Timings.CycleMs = 1000
	}
	if c.Timings.HistoryDepth == 0 {
		c.Timings.HistoryDepth = 10
	}

	if c.Redis.Stream == "" {
		c.Redis.Stream = "opp:stream"
	}
	if c.Redis.LastKey == "" {
		c.Redis.LastKey = "opp:last"
	}
}

func (c *Config) CycleInterval() time.Duration {
	return time.Duration(c.Timings.CycleMs) * time.Millisecond
}
