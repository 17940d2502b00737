package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(writeConfig(t, "token: \"0x000000000000000000000000000000000000dEaD\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "mock", c.Source)
	assert.Equal(t, int64(50), c.Thresholds.MinGapBps)
	assert.Equal(t, int64(1000), c.Thresholds.MinLiquidity)
	assert.Equal(t, uint64(2), c.Thresholds.PersistenceBlocks)
	assert.Equal(t, int64(10), c.Thresholds.MinReserveRatio)
	assert.Equal(t, int64(10_000), c.Thresholds.MaxReserveRatio)
	assert.Len(t, c.Mock.BasePrices, 3)
	assert.Equal(t, 10, c.Timings.HistoryDepth)
	assert.Equal(t, "opp:stream", c.Redis.Stream)
}

func TestLoad_OverridesSurvive(t *testing.T) {
	c, err := Load(writeConfig(t, `
source: mock
thresholds:
  min_gap_bps: 75
  persistence_blocks: 5
timings:
  cycle_ms: 250
mock:
  seed: 7
  base_prices: [1000, 1010, 990]
`))
	require.NoError(t, err)

	assert.Equal(t, int64(75), c.Thresholds.MinGapBps)
	assert.Equal(t, uint64(5), c.Thresholds.PersistenceBlocks)
	assert.Equal(t, 250, c.Timings.CycleMs)
	assert.Equal(t, int64(7), c.Mock.Seed)
	assert.Equal(t, []int64{1000, 1010, 990}, c.Mock.BasePrices)
	// untouched sections still get defaults
	assert.Equal(t, int64(300_000), c.Thresholds.GasUnits)
}

func TestLoad_OnchainNeedsThreePools(t *testing.T) {
	_, err := Load(writeConfig(t, `
source: onchain
chain:
  rpc_http: http://localhost:8545
  pools:
    - "0x0000000000000000000000000000000000000001"
`))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
