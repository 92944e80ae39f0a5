package lending

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// variableRateMode is the pool's interest rate mode discriminant for
	// variable-rate debt. Stable-rate borrowing is out of scope.
	variableRateMode = 2
	// referralCode is always zero; the referral program is out of scope.
	referralCode = uint16(0)
)

// RepayOnBehalfOverage is added on top of the projected debt when approving a
// full repayment of another account's position. The pool trims any overshoot
// internally, but the approval has to cover interest accrued between the debt
// read and the repay landing on-chain.
var RepayOnBehalfOverage = big.NewInt(100)

// usdtMainnet requires a non-zero allowance to be reset to zero before a new
// approval, a historical quirk of that token's contract.
var usdtMainnet = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")

const poolWriteABIJSON = `[
  {"inputs":[{"internalType":"address","name":"asset","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"},{"internalType":"address","name":"onBehalfOf","type":"address"},{"internalType":"uint16","name":"referralCode","type":"uint16"}],"name":"supply","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"internalType":"address","name":"asset","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"},{"internalType":"address","name":"to","type":"address"}],"name":"withdraw","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"internalType":"address","name":"asset","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"},{"internalType":"uint256","name":"interestRateMode","type":"uint256"},{"internalType":"uint16","name":"referralCode","type":"uint16"},{"internalType":"address","name":"onBehalfOf","type":"address"}],"name":"borrow","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"internalType":"address","name":"asset","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"},{"internalType":"uint256","name":"interestRateMode","type":"uint256"},{"internalType":"address","name":"onBehalfOf","type":"address"}],"name":"repay","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"internalType":"address","name":"asset","type":"address"},{"internalType":"bool","name":"useAsCollateral","type":"bool"}],"name":"setUserUseReserveAsCollateral","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"internalType":"uint8","name":"categoryId","type":"uint8"}],"name":"setUserEMode","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

const erc20WriteABIJSON = `[
  {"inputs":[{"internalType":"address","name":"spender","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"approve","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

var (
	poolWriteABI  = mustABI(poolWriteABIJSON)
	erc20WriteABI = mustABI(erc20WriteABIJSON)
)

// Builder encodes the exact pool and ERC-20 calldata for each operation
// without executing anything. A builder is bound to one pool deployment and
// one chain.
type Builder struct {
	pool    common.Address
	chainID uint64
}

// NewBuilder binds a builder to a pool address and chain id.
func NewBuilder(pool common.Address, chainID uint64) *Builder {
	return &Builder{pool: pool, chainID: chainID}
}

func mustPack(parsed interface {
	Pack(string, ...interface{}) ([]byte, error)
}, method string, args ...interface{}) []byte {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		panic(fmt.Sprintf("pack %s: %v", method, err))
	}
	return data
}

// Approve encodes ERC20.approve(spender, amount) on token.
func (b *Builder) Approve(token, spender common.Address, amount *big.Int) Call {
	return Call{To: token, Data: mustPack(erc20WriteABI, "approve", spender, amount)}
}

// ApproveSteps returns the approval pre-steps for moving amount of token into
// the pool. On mainnet USDT a reset-to-zero approval is emitted first.
func (b *Builder) ApproveSteps(token common.Address, amount *big.Int) []Call {
	if b.chainID == 1 && token == usdtMainnet {
		return []Call{
			b.Approve(token, b.pool, big.NewInt(0)),
			b.Approve(token, b.pool, amount),
		}
	}
	return []Call{b.Approve(token, b.pool, amount)}
}

// Supply encodes Pool.supply(asset, amount, onBehalfOf, 0).
func (b *Builder) Supply(token common.Address, amount *big.Int, onBehalfOf common.Address) Call {
	return Call{To: b.pool, Data: mustPack(poolWriteABI, "supply", token, amount, onBehalfOf, referralCode)}
}

// Withdraw encodes Pool.withdraw(asset, amount, to). Callers pass MaxUint256
// to withdraw the entire balance.
func (b *Builder) Withdraw(token common.Address, amount *big.Int, to common.Address) Call {
	return Call{To: b.pool, Data: mustPack(poolWriteABI, "withdraw", token, amount, to)}
}

// Borrow encodes Pool.borrow(asset, amount, 2, 0, onBehalfOf).
func (b *Builder) Borrow(token common.Address, amount *big.Int, onBehalfOf common.Address) Call {
	return Call{To: b.pool, Data: mustPack(poolWriteABI, "borrow", token, amount, big.NewInt(variableRateMode), referralCode, onBehalfOf)}
}

// Repay encodes Pool.repay(asset, amount, 2, onBehalfOf).
func (b *Builder) Repay(token common.Address, amount *big.Int, onBehalfOf common.Address) Call {
	return Call{To: b.pool, Data: mustPack(poolWriteABI, "repay", token, amount, big.NewInt(variableRateMode), onBehalfOf)}
}

// SetUseReserveAsCollateral encodes Pool.setUserUseReserveAsCollateral.
func (b *Builder) SetUseReserveAsCollateral(token common.Address, useAsCollateral bool) Call {
	return Call{To: b.pool, Data: mustPack(poolWriteABI, "setUserUseReserveAsCollateral", token, useAsCollateral)}
}

// SetUserEMode encodes Pool.setUserEMode(categoryId).
func (b *Builder) SetUserEMode(categoryID uint8) Call {
	return Call{To: b.pool, Data: mustPack(poolWriteABI, "setUserEMode", categoryID)}
}
