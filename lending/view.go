package lending

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"aavegate/registry"
)

// ChainReader is the narrow read-only contract the validation engine consumes.
// Implementations own transport, retries and timeouts.
type ChainReader interface {
	// TokenBalance returns the ERC-20 balance of account for token.
	TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error)
	// CallContract executes a read-only call against to with the given
	// calldata and returns the raw return bytes.
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	// ChainID identifies the network the reader is connected to.
	ChainID(ctx context.Context) (*big.Int, error)
}

// StateView exposes the freshly-read chain state the validation engine and the
// façade need. Each method performs its own read; nothing is cached between
// calls, so two sequential reads may observe different blocks. That staleness
// is tolerated: the pool's own checks remain authoritative.
type StateView interface {
	TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error)
	ReserveSnapshot(ctx context.Context, asset common.Address) (*ReserveSnapshot, error)
	ReserveConfiguration(ctx context.Context, asset common.Address) (ReserveConfig, error)
	AccountData(ctx context.Context, account common.Address) (*AccountData, error)
	ScaledBalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error)
	ScaledTotalSupply(ctx context.Context, token common.Address) (*big.Int, error)
	AssetPrice(ctx context.Context, asset common.Address) (*big.Int, error)
}

const poolViewABIJSON = `[
  {"inputs":[],"name":"getReservesList","outputs":[{"internalType":"address[]","name":"","type":"address[]"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"address","name":"user","type":"address"}],"name":"getUserAccountData","outputs":[{"internalType":"uint256","name":"totalCollateralBase","type":"uint256"},{"internalType":"uint256","name":"totalDebtBase","type":"uint256"},{"internalType":"uint256","name":"availableBorrowsBase","type":"uint256"},{"internalType":"uint256","name":"currentLiquidationThreshold","type":"uint256"},{"internalType":"uint256","name":"ltv","type":"uint256"},{"internalType":"uint256","name":"healthFactor","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"address","name":"asset","type":"address"}],"name":"getConfiguration","outputs":[{"internalType":"uint256","name":"data","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

const dataProviderABIJSON = `[
  {"inputs":[{"internalType":"address","name":"asset","type":"address"}],"name":"getReserveConfigurationData","outputs":[{"internalType":"uint256","name":"decimals","type":"uint256"},{"internalType":"uint256","name":"ltv","type":"uint256"},{"internalType":"uint256","name":"liquidationThreshold","type":"uint256"},{"internalType":"uint256","name":"liquidationBonus","type":"uint256"},{"internalType":"uint256","name":"reserveFactor","type":"uint256"},{"internalType":"bool","name":"usageAsCollateralEnabled","type":"bool"},{"internalType":"bool","name":"borrowingEnabled","type":"bool"},{"internalType":"bool","name":"stableBorrowRateEnabled","type":"bool"},{"internalType":"bool","name":"isActive","type":"bool"},{"internalType":"bool","name":"isFrozen","type":"bool"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"address","name":"asset","type":"address"}],"name":"getPaused","outputs":[{"internalType":"bool","name":"isPaused","type":"bool"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"address","name":"asset","type":"address"}],"name":"getReserveCaps","outputs":[{"internalType":"uint256","name":"borrowCap","type":"uint256"},{"internalType":"uint256","name":"supplyCap","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"address","name":"asset","type":"address"}],"name":"getReserveData","outputs":[{"internalType":"uint256","name":"unbacked","type":"uint256"},{"internalType":"uint256","name":"accruedToTreasuryScaled","type":"uint256"},{"internalType":"uint256","name":"totalAToken","type":"uint256"},{"internalType":"uint256","name":"totalStableDebt","type":"uint256"},{"internalType":"uint256","name":"totalVariableDebt","type":"uint256"},{"internalType":"uint256","name":"liquidityRate","type":"uint256"},{"internalType":"uint256","name":"variableBorrowRate","type":"uint256"},{"internalType":"uint256","name":"stableBorrowRate","type":"uint256"},{"internalType":"uint256","name":"averageStableBorrowRate","type":"uint256"},{"internalType":"uint256","name":"liquidityIndex","type":"uint256"},{"internalType":"uint256","name":"variableBorrowIndex","type":"uint256"},{"internalType":"uint40","name":"lastUpdateTimestamp","type":"uint40"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"address","name":"asset","type":"address"}],"name":"getReserveTokensAddresses","outputs":[{"internalType":"address","name":"aTokenAddress","type":"address"},{"internalType":"address","name":"stableDebtTokenAddress","type":"address"},{"internalType":"address","name":"variableDebtTokenAddress","type":"address"}],"stateMutability":"view","type":"function"}
]`

const oracleABIJSON = `[
  {"inputs":[{"internalType":"address","name":"asset","type":"address"}],"name":"getAssetPrice","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

const scaledTokenABIJSON = `[
  {"inputs":[{"internalType":"address","name":"user","type":"address"}],"name":"scaledBalanceOf","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"scaledTotalSupply","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

var (
	poolViewABI     = mustABI(poolViewABIJSON)
	dataProviderABI = mustABI(dataProviderABIJSON)
	oracleABI       = mustABI(oracleABIJSON)
	scaledTokenABI  = mustABI(scaledTokenABIJSON)
)

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid ABI definition: %v", err))
	}
	return parsed
}

// PoolView assembles snapshots and account data from raw contract calls issued
// through a ChainReader against one resolved contract registry.
type PoolView struct {
	reader ChainReader
	reg    registry.Registry
}

// NewPoolView binds a view to a reader and a resolved registry.
func NewPoolView(reader ChainReader, reg registry.Registry) *PoolView {
	return &PoolView{reader: reader, reg: reg}
}

func (p *PoolView) call(ctx context.Context, parsed abi.ABI, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	payload, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	raw, err := p.reader.CallContract(ctx, to, payload)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

// TokenBalance delegates to the chain reader.
func (p *PoolView) TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	return p.reader.TokenBalance(ctx, token, account)
}

// ReserveSnapshot reads the reserve list, configuration, caps, indices and
// token addresses for one asset. Returns ErrReserveNotFound when the asset is
// not part of the pool's reserve list.
func (p *PoolView) ReserveSnapshot(ctx context.Context, asset common.Address) (*ReserveSnapshot, error) {
	values, err := p.call(ctx, poolViewABI, p.reg.Pool, "getReservesList")
	if err != nil {
		return nil, err
	}
	reserves, ok := values[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("unexpected getReservesList result type %T", values[0])
	}
	listed := false
	for _, reserve := range reserves {
		if reserve == asset {
			listed = true
			break
		}
	}
	if !listed {
		return nil, ErrReserveNotFound
	}

	snap := &ReserveSnapshot{UnderlyingAsset: asset}

	values, err = p.call(ctx, dataProviderABI, p.reg.DataProvider, "getReserveConfigurationData", asset)
	if err != nil {
		return nil, err
	}
	decimals := values[0].(*big.Int)
	snap.Decimals = uint8(decimals.Uint64())
	snap.BaseLTV = values[1].(*big.Int)
	snap.UsageAsCollateralEnabled = values[5].(bool)
	snap.BorrowingEnabled = values[6].(bool)
	snap.IsActive = values[8].(bool)
	snap.IsFrozen = values[9].(bool)

	values, err = p.call(ctx, dataProviderABI, p.reg.DataProvider, "getPaused", asset)
	if err != nil {
		return nil, err
	}
	snap.IsPaused = values[0].(bool)

	values, err = p.call(ctx, dataProviderABI, p.reg.DataProvider, "getReserveCaps", asset)
	if err != nil {
		return nil, err
	}
	snap.BorrowCap = values[0].(*big.Int)
	snap.SupplyCap = values[1].(*big.Int)

	values, err = p.call(ctx, dataProviderABI, p.reg.DataProvider, "getReserveData", asset)
	if err != nil {
		return nil, err
	}
	snap.AccruedToTreasury = values[1].(*big.Int)
	snap.LiquidityIndex = values[9].(*big.Int)
	snap.VariableBorrowIndex = values[10].(*big.Int)

	values, err = p.call(ctx, dataProviderABI, p.reg.DataProvider, "getReserveTokensAddresses", asset)
	if err != nil {
		return nil, err
	}
	snap.ATokenAddress = values[0].(common.Address)
	snap.VariableDebtTokenAddress = values[2].(common.Address)

	scaledDebt, err := p.ScaledTotalSupply(ctx, snap.VariableDebtTokenAddress)
	if err != nil {
		return nil, err
	}
	snap.TotalScaledVariableDebt = scaledDebt

	return snap, nil
}

// ReserveConfiguration reads the packed configuration word from the pool.
// A zero word means the asset was never listed.
func (p *PoolView) ReserveConfiguration(ctx context.Context, asset common.Address) (ReserveConfig, error) {
	values, err := p.call(ctx, poolViewABI, p.reg.Pool, "getConfiguration", asset)
	if err != nil {
		return ReserveConfig{}, err
	}
	word, overflow := uint256.FromBig(values[0].(*big.Int))
	if overflow {
		return ReserveConfig{}, fmt.Errorf("configuration word overflows 256 bits")
	}
	cfg := NewReserveConfig(word)
	if cfg.IsZero() {
		return ReserveConfig{}, ErrReserveNotFound
	}
	return cfg, nil
}

// AccountData queries Pool.getUserAccountData for one account.
func (p *PoolView) AccountData(ctx context.Context, account common.Address) (*AccountData, error) {
	values, err := p.call(ctx, poolViewABI, p.reg.Pool, "getUserAccountData", account)
	if err != nil {
		return nil, err
	}
	return &AccountData{
		TotalCollateralBase:         values[0].(*big.Int),
		TotalDebtBase:               values[1].(*big.Int),
		AvailableBorrowsBase:        values[2].(*big.Int),
		CurrentLiquidationThreshold: values[3].(*big.Int),
		LTV:                         values[4].(*big.Int),
		HealthFactor:                values[5].(*big.Int),
	}, nil
}

// ScaledBalanceOf reads the index-normalized balance on an aToken or variable
// debt token.
func (p *PoolView) ScaledBalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	values, err := p.call(ctx, scaledTokenABI, token, "scaledBalanceOf", account)
	if err != nil {
		return nil, err
	}
	return values[0].(*big.Int), nil
}

// ScaledTotalSupply reads the index-normalized total supply of an aToken or
// variable debt token.
func (p *PoolView) ScaledTotalSupply(ctx context.Context, token common.Address) (*big.Int, error) {
	values, err := p.call(ctx, scaledTokenABI, token, "scaledTotalSupply")
	if err != nil {
		return nil, err
	}
	return values[0].(*big.Int), nil
}

// AssetPrice queries the protocol price oracle for the asset's base-currency
// price.
func (p *PoolView) AssetPrice(ctx context.Context, asset common.Address) (*big.Int, error) {
	values, err := p.call(ctx, oracleABI, p.reg.PriceOracle, "getAssetPrice", asset)
	if err != nil {
		return nil, err
	}
	return values[0].(*big.Int), nil
}
