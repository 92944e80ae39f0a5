package lending

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ReserveSnapshot is the per-token reserve state assembled from the pool and
// the protocol data provider. A snapshot is only valid for the instant it was
// read: validation re-reads the chain on every operation and tolerates the
// race against interleaved on-chain writes, since the pool itself remains the
// authoritative accept/reject decision.
type ReserveSnapshot struct {
	// UnderlyingAsset is the ERC-20 token the reserve accounts for.
	UnderlyingAsset common.Address
	// ATokenAddress is the interest-bearing deposit receipt token.
	ATokenAddress common.Address
	// VariableDebtTokenAddress is the variable-rate debt accounting token.
	VariableDebtTokenAddress common.Address

	IsPaused                 bool
	IsFrozen                 bool
	IsActive                 bool
	BorrowingEnabled         bool
	UsageAsCollateralEnabled bool

	// Decimals is the underlying token precision.
	Decimals uint8
	// BaseLTV is the loan-to-value in basis points; zero means the token is
	// not eligible as collateral.
	BaseLTV *big.Int

	// LiquidityIndex and VariableBorrowIndex are ray-scaled accumulators
	// (1.0 == 1e27).
	LiquidityIndex      *big.Int
	VariableBorrowIndex *big.Int

	// AccruedToTreasury is the scaled amount accrued to the treasury but not
	// yet minted.
	AccruedToTreasury *big.Int

	// SupplyCap and BorrowCap are expressed in whole token units; zero means
	// no cap.
	SupplyCap *big.Int
	BorrowCap *big.Int

	// TotalScaledVariableDebt is the debt token's scaled total supply.
	TotalScaledVariableDebt *big.Int
}

// AccountData mirrors Pool.getUserAccountData: monetary values in the pool's
// base currency, thresholds in basis points, and the health factor ray-scaled.
// The pool reports MaxUint256 as the health factor when the account carries no
// debt; that sentinel is passed through untouched.
type AccountData struct {
	TotalCollateralBase         *big.Int
	TotalDebtBase               *big.Int
	AvailableBorrowsBase        *big.Int
	CurrentLiquidationThreshold *big.Int
	LTV                         *big.Int
	HealthFactor                *big.Int
}

// Call is a single prepared contract invocation. Value is nil for plain
// ERC-20 flows.
type Call struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}
