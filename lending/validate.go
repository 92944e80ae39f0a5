package lending

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Validator replicates the pool's admission checks against freshly-read chain
// state so an operation that would revert can be rejected before gas is spent.
// Checks run in a fixed order and fail on the first violated rule. The
// validator holds no mutable state; every method re-reads whatever it needs.
type Validator struct {
	view StateView
}

// NewValidator wires a validator to a state view.
func NewValidator(view StateView) *Validator {
	return &Validator{view: view}
}

// Supply verifies that caller can deposit amount of token: balance, reserve
// existence, paused/frozen/active flags, then the supply cap projection.
func (v *Validator) Supply(ctx context.Context, token common.Address, amount *big.Int, caller common.Address) error {
	balance, err := v.view.TokenBalance(ctx, token, caller)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}

	snap, err := v.view.ReserveSnapshot(ctx, token)
	if err != nil {
		return err
	}
	if err := checkReserveUsable(snap); err != nil {
		return err
	}

	if snap.SupplyCap != nil && snap.SupplyCap.Sign() > 0 {
		scaledSupply, err := v.view.ScaledTotalSupply(ctx, snap.ATokenAddress)
		if err != nil {
			return err
		}
		// The pool's cap check adds the requested amount to the liquidity
		// index before the ray multiplication. Dimensionally odd, but it is
		// the deployed formula and accept/reject outcomes must match it.
		supplyUnits := new(big.Int).Add(scaledSupply, snap.AccruedToTreasury)
		index := new(big.Int).Add(snap.LiquidityIndex, amount)
		projected := rayMul(supplyUnits, index)
		cap := new(big.Int).Mul(snap.SupplyCap, pow10(snap.Decimals))
		if projected.Cmp(cap) > 0 {
			return ErrSupplyCapExceeded
		}
	}
	return nil
}

// Withdraw verifies reserve flags, the caller's projected aToken balance, the
// position's LTV eligibility and the account health factor. When amount is
// the full-balance sentinel the balance bound it replaces is skipped.
func (v *Validator) Withdraw(ctx context.Context, token common.Address, amount *big.Int, caller common.Address) error {
	snap, err := v.view.ReserveSnapshot(ctx, token)
	if err != nil {
		return err
	}
	if err := checkReserveUsable(snap); err != nil {
		return err
	}

	if !IsMaxAmount(amount) {
		scaled, err := v.view.ScaledBalanceOf(ctx, snap.ATokenAddress, caller)
		if err != nil {
			return err
		}
		if rayMul(scaled, snap.LiquidityIndex).Cmp(amount) < 0 {
			return ErrInsufficientWithdrawableBalance
		}
	}

	account, err := v.view.AccountData(ctx, caller)
	if err != nil {
		return err
	}
	if account.LTV.Sign() == 0 || snap.BaseLTV.Sign() == 0 {
		return ErrInvalidLTV
	}
	if account.HealthFactor.Cmp(healthFactorThreshold) < 0 {
		return ErrHealthFactorTooLow
	}
	return nil
}

// Borrow verifies the target account's collateral and health factor, the
// reserve flags and borrow switch, the borrow cap projection, and finally the
// oracle-priced collateral requirement at the account's LTV.
func (v *Validator) Borrow(ctx context.Context, token common.Address, amount *big.Int, onBehalfOf common.Address) error {
	account, err := v.view.AccountData(ctx, onBehalfOf)
	if err != nil {
		return err
	}
	if account.LTV.Sign() == 0 || account.TotalCollateralBase.Sign() == 0 {
		return ErrInsufficientCollateral
	}
	if account.HealthFactor.Cmp(healthFactorThreshold) < 0 {
		return ErrHealthFactorTooLow
	}

	snap, err := v.view.ReserveSnapshot(ctx, token)
	if err != nil {
		return err
	}
	if err := checkReserveUsable(snap); err != nil {
		return err
	}
	if !snap.BorrowingEnabled {
		return ErrBorrowDisabled
	}

	if snap.BorrowCap != nil && snap.BorrowCap.Sign() > 0 {
		projected := rayMul(snap.TotalScaledVariableDebt, snap.VariableBorrowIndex)
		projected.Add(projected, amount)
		cap := new(big.Int).Mul(snap.BorrowCap, pow10(snap.Decimals))
		if projected.Cmp(cap) > 0 {
			return ErrBorrowCapExceeded
		}
	}

	price, err := v.view.AssetPrice(ctx, token)
	if err != nil {
		return err
	}
	amountBase := new(big.Int).Mul(amount, price)
	amountBase.Quo(amountBase, pow10(snap.Decimals))
	totalDebt := new(big.Int).Add(account.TotalDebtBase, amountBase)
	collateralNeeded := percentDiv(totalDebt, account.LTV)
	if collateralNeeded.Cmp(account.TotalCollateralBase) > 0 {
		return ErrInsufficientCollateral
	}
	return nil
}

// Repay verifies the reserve is neither paused nor inactive and that the
// account carries variable debt for the token. Frozen reserves may still be
// repaid; frozen only blocks new exposure.
func (v *Validator) Repay(ctx context.Context, token common.Address, onBehalfOf common.Address) error {
	snap, err := v.view.ReserveSnapshot(ctx, token)
	if err != nil {
		return err
	}
	if snap.IsPaused {
		return ErrReservePaused
	}
	if !snap.IsActive {
		return ErrReserveInactive
	}
	debt, err := v.projectedDebt(ctx, snap, onBehalfOf)
	if err != nil {
		return err
	}
	if debt.Sign() == 0 {
		return ErrDebtNotFound
	}
	return nil
}

// CollateralToggle verifies collateral eligibility through the packed
// configuration word. Disabling is always permitted here; the pool's own
// health-factor enforcement is authoritative for disables.
func (v *Validator) CollateralToggle(ctx context.Context, token common.Address, enable bool) error {
	cfg, err := v.view.ReserveConfiguration(ctx, token)
	if err != nil {
		return err
	}
	if enable && cfg.LTV() == 0 {
		return ErrTokenCannotBeCollateral
	}
	return nil
}

// ProjectedDebt returns the account's current variable debt for token in
// underlying units, projected through the variable borrow index.
func (v *Validator) ProjectedDebt(ctx context.Context, token, account common.Address) (*big.Int, error) {
	snap, err := v.view.ReserveSnapshot(ctx, token)
	if err != nil {
		return nil, err
	}
	return v.projectedDebt(ctx, snap, account)
}

func (v *Validator) projectedDebt(ctx context.Context, snap *ReserveSnapshot, account common.Address) (*big.Int, error) {
	scaled, err := v.view.ScaledBalanceOf(ctx, snap.VariableDebtTokenAddress, account)
	if err != nil {
		return nil, err
	}
	return rayMul(scaled, snap.VariableBorrowIndex), nil
}

// checkReserveUsable applies the paused/frozen/active gate shared by supply,
// withdraw and borrow, in that order.
func checkReserveUsable(snap *ReserveSnapshot) error {
	if snap.IsPaused {
		return ErrReservePaused
	}
	if snap.IsFrozen {
		return ErrReserveFrozen
	}
	if !snap.IsActive {
		return ErrReserveInactive
	}
	return nil
}
