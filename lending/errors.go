package lending

import "errors"

var (
	// Resolution errors.
	ErrReserveNotFound = errors.New("lending: reserve not found")

	// Reserve-state errors.
	ErrReservePaused           = errors.New("lending: reserve is paused")
	ErrReserveFrozen           = errors.New("lending: reserve is frozen")
	ErrReserveInactive         = errors.New("lending: reserve is inactive")
	ErrBorrowDisabled          = errors.New("lending: borrowing is disabled for reserve")
	ErrTokenCannotBeCollateral = errors.New("lending: token cannot be used as collateral")

	// Capacity errors.
	ErrSupplyCapExceeded = errors.New("lending: supply cap exceeded")
	ErrBorrowCapExceeded = errors.New("lending: borrow cap exceeded")

	// Position errors.
	ErrInsufficientFunds               = errors.New("lending: insufficient token balance")
	ErrInsufficientWithdrawableBalance = errors.New("lending: insufficient withdrawable balance")
	ErrInsufficientCollateral          = errors.New("lending: insufficient collateral")
	ErrDebtNotFound                    = errors.New("lending: no outstanding debt to repay")
	ErrHealthFactorTooLow              = errors.New("lending: health factor below liquidation threshold")
	ErrInvalidLTV                      = errors.New("lending: invalid loan-to-value for withdrawal")
)
