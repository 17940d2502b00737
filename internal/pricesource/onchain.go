package pricesource

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum" // CallMsg
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/config"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/types"
)

// Minimal ABI for a V2-style pair: reserves only.
const pairABI = `[
  {"inputs":[],"name":"getReserves","outputs":[
     {"internalType":"uint112","name":"reserve0","type":"uint112"},
     {"internalType":"uint112","name":"reserve1","type":"uint112"},
     {"internalType":"uint32","name":"blockTimestampLast","type":"uint32"}],
   "stateMutability":"view","type":"function"}
]`

// Onchain reads three V2-style pair contracts and derives snapshots from
// their reserves: price = reserve1 * 1e18 / reserve0, block number as
// the logical height, node gas price as the gas hint. It is the live
// counterpart of Mock; the pools must share base and quote tokens.
type Onchain struct {
	log   *zap.Logger
	ec    *ethclient.Client
	pabi  abi.ABI
	pools [types.SourceCount]common.Address
	names [types.SourceCount]string
	ref   string
}

func NewOnchain(cfg *config.Config, log *zap.Logger) (*Onchain, error) {
	if len(cfg.Chain.Pools) != types.SourceCount {
		return nil, fmt.Errorf("pricesource: need exactly %d pools, got %d", types.SourceCount, len(cfg.Chain.Pools))
	}
	ec, err := ethclient.Dial(cfg.Chain.RPCHTTP)
	if err != nil {
		return nil, fmt.Errorf("pricesource: dial %s: %w", cfg.Chain.RPCHTTP, err)
	}
	pabi, err := abi.JSON(strings.NewReader(pairABI))
	if err != nil {
		return nil, err
	}

	o := &Onchain{log: log, ec: ec, pabi: pabi, ref: cfg.Mock.RefAsset}
	for i, p := range cfg.Chain.Pools {
		o.pools[i] = common.HexToAddress(p)
		if i < len(cfg.Mock.Names) {
			o.names[i] = cfg.Mock.Names[i]
		} else {
			o.names[i] = o.pools[i].Hex()[:10]
		}
	}
	return o, nil
}

func (o *Onchain) Collect(ctx context.Context) (types.Observation, error) {
	height, err := o.ec.BlockNumber(ctx)
	if err != nil {
		return types.Observation{}, fmt.Errorf("pricesource: block number: %w", err)
	}
	gas, err := o.ec.SuggestGasPrice(ctx)
	if err != nil {
		return types.Observation{}, fmt.Errorf("pricesource: gas price: %w", err)
	}

	obs := types.Observation{Height: height, GasHint: gas}
	for i := range o.pools {
		r0, r1, err := o.reserves(ctx, o.pools[i])
		if err != nil {
			return types.Observation{}, fmt.Errorf("pricesource: pool %s: %w", o.pools[i].Hex(), err)
		}
		if r0.Sign() == 0 {
			return types.Observation{}, fmt.Errorf("pricesource: pool %s has empty base reserve", o.pools[i].Hex())
		}
		price := new(big.Int).Mul(r1, types.Unit)
		price.Div(price, r0)

		obs.Sources[i] = types.PriceSnapshot{
			SourceID:       uint8(i),
			Name:           o.names[i],
			ReferenceAsset: o.ref,
			Price:          price,
			ReserveBase:    r0,
			ReserveQuote:   r1,
			TotalLiquidity: new(big.Int).Set(r1),
			LastUpdate:     height,
		}
	}
	return obs, nil
}

func (o *Onchain) reserves(ctx context.Context, pool common.Address) (*big.Int, *big.Int, error) {
	input, err := o.pabi.Pack("getReserves")
	if err != nil {
		return nil, nil, fmt.Errorf("pack getReserves: %w", err)
	}
	res, err := o.ec.CallContract(ctx, ethereum.CallMsg{To: &pool, Data: input}, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("call getReserves: %w", err)
	}
	outs, err := o.pabi.Methods["getReserves"].Outputs.Unpack(res)
	if err != nil || len(outs) < 2 {
		if err == nil {
			err = fmt.Errorf("short output")
		}
		return nil, nil, fmt.Errorf("decode getReserves: %w", err)
	}
	r0, ok0 := outs[0].(*big.Int)
	r1, ok1 := outs[1].(*big.Int)
	if !ok0 || !ok1 {
		return nil, nil, fmt.Errorf("unexpected reserve types %T/%T", outs[0], outs[1])
	}
	return r0, r1, nil
}
