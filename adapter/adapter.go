// Package adapter exposes the lending operations for one wallet account bound
// to one chain. Every mutating operation validates its inputs, re-derives the
// pool's admission checks locally, and only then hands the prepared calls to
// the transaction sender. Validation here is advisory: it exists to fail fast
// before gas is spent, never to replace the pool's own checks.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"aavegate/lending"
	"aavegate/registry"
)

var (
	ErrZeroAddress          = errors.New("adapter: zero address not allowed")
	ErrInvalidAmount        = errors.New("adapter: amount must be positive")
	ErrMaxAmountNotAllowed  = errors.New("adapter: maximum amount sentinel not allowed for this operation")
	ErrInvalidEModeCategory = errors.New("adapter: e-mode category out of range")
	ErrReadOnlyAccount      = errors.New("adapter: account cannot send transactions")
)

// Account identifies the wallet the adapter operates for.
type Account interface {
	Address() common.Address
}

// SendOptions carries per-call execution overrides passed through to the
// sender untouched.
type SendOptions struct {
	GasLimit             uint64
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// Receipt is the result of a submitted operation. ApproveHash and
// ResetAllowanceHash are set only when the steps were submitted individually.
type Receipt struct {
	Hash               common.Hash
	Fee                *big.Int
	ApproveHash        *common.Hash
	ResetAllowanceHash *common.Hash
}

// Quote is the estimated fee for an operation without submitting it.
type Quote struct {
	Fee *big.Int
}

// Sender is the optional signing capability of an account. Implementations
// own cancellation and retry policy; the adapter never retries.
type Sender interface {
	Account
	SendTransaction(ctx context.Context, call lending.Call, opts *SendOptions) (*Receipt, error)
	QuoteTransaction(ctx context.Context, call lending.Call, opts *SendOptions) (*Quote, error)
}

// BatchSender is the optional capability of accounts that can submit an
// ordered group of calls as one atomic unit.
type BatchSender interface {
	Sender
	SendBatch(ctx context.Context, calls []lending.Call, opts *SendOptions) (*Receipt, error)
	QuoteBatch(ctx context.Context, calls []lending.Call, opts *SendOptions) (*Quote, error)
}

// session bundles the chain-bound collaborators resolved on first use. An
// adapter instance is bound to one chain for its life.
type session struct {
	reg       registry.Registry
	view      lending.StateView
	validator *lending.Validator
	builder   *lending.Builder
}

// Adapter is the public operation façade for one (account, chain) pair.
type Adapter struct {
	account Account
	sender  Sender
	batch   BatchSender
	reader  lending.ChainReader
	log     *slog.Logger

	// newView exists so tests can substitute canned chain state.
	newView func(reg registry.Registry) lending.StateView

	mu   sync.Mutex
	sess *session
}

// Option customises adapter construction.
type Option func(*Adapter)

// WithLogger attaches a structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *Adapter) {
		if log != nil {
			a.log = log
		}
	}
}

// New builds an adapter for account over reader. The account's sending and
// batching capabilities are detected once, here, rather than per call.
func New(account Account, reader lending.ChainReader, opts ...Option) *Adapter {
	a := &Adapter{
		account: account,
		reader:  reader,
		log:     slog.Default(),
	}
	if s, ok := account.(Sender); ok {
		a.sender = s
	}
	if b, ok := account.(BatchSender); ok {
		a.batch = b
	}
	a.newView = func(reg registry.Registry) lending.StateView {
		return lending.NewPoolView(reader, reg)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// session resolves the registry for the connected chain on first use and
// memoizes it. The first successful resolution wins.
func (a *Adapter) session(ctx context.Context) (*session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sess != nil {
		return a.sess, nil
	}
	chainID, err := a.reader.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve chain id: %w", err)
	}
	reg, err := registry.Resolve(chainID.Uint64())
	if err != nil {
		return nil, err
	}
	view := a.newView(reg)
	a.sess = &session{
		reg:       reg,
		view:      view,
		validator: lending.NewValidator(view),
		builder:   lending.NewBuilder(reg.Pool, reg.ChainID),
	}
	a.log.Debug("registry resolved", "chainId", reg.ChainID, "pool", reg.Pool)
	return a.sess, nil
}

func (a *Adapter) resolveBeneficiary(addr *common.Address) (common.Address, error) {
	if addr == nil {
		return a.account.Address(), nil
	}
	if *addr == (common.Address{}) {
		return common.Address{}, ErrZeroAddress
	}
	return *addr, nil
}

// checkAmount enforces strictly positive amounts. The full-balance sentinel
// is accepted only where allowMax is set (withdraw and repay).
func checkAmount(amount *big.Int, allowMax bool) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if lending.IsMaxAmount(amount) && !allowMax {
		return ErrMaxAmountNotAllowed
	}
	return nil
}

func checkToken(token common.Address) error {
	if token == (common.Address{}) {
		return ErrZeroAddress
	}
	return nil
}

// submit sends the prepared calls: as one atomic bundle when the account
// supports batching, sequentially otherwise. For sequential multi-step
// operations the returned hash is the main call's, the fee is the sum of all
// steps, and the approval steps' hashes are reported for auditability.
func (a *Adapter) submit(ctx context.Context, calls []lending.Call, opts *SendOptions) (*Receipt, error) {
	if a.sender == nil {
		return nil, ErrReadOnlyAccount
	}
	if a.batch != nil && len(calls) > 1 {
		return a.batch.SendBatch(ctx, calls, opts)
	}
	totalFee := big.NewInt(0)
	receipt := &Receipt{}
	for i, call := range calls {
		res, err := a.sender.SendTransaction(ctx, call, opts)
		if err != nil {
			return nil, err
		}
		if res.Fee != nil {
			totalFee.Add(totalFee, res.Fee)
		}
		switch {
		case i == len(calls)-1:
			receipt.Hash = res.Hash
		case len(calls) == 3 && i == 0:
			hash := res.Hash
			receipt.ResetAllowanceHash = &hash
		default:
			hash := res.Hash
			receipt.ApproveHash = &hash
		}
	}
	receipt.Fee = totalFee
	return receipt, nil
}

// quote prices the prepared calls without submitting them.
func (a *Adapter) quote(ctx context.Context, calls []lending.Call, opts *SendOptions) (*Quote, error) {
	if a.sender == nil {
		return nil, ErrReadOnlyAccount
	}
	if a.batch != nil && len(calls) > 1 {
		return a.batch.QuoteBatch(ctx, calls, opts)
	}
	totalFee := big.NewInt(0)
	for _, call := range calls {
		q, err := a.sender.QuoteTransaction(ctx, call, opts)
		if err != nil {
			return nil, err
		}
		if q.Fee != nil {
			totalFee.Add(totalFee, q.Fee)
		}
	}
	return &Quote{Fee: totalFee}, nil
}

func (a *Adapter) prepareSupply(ctx context.Context, token common.Address, amount *big.Int, onBehalfOf *common.Address) ([]lending.Call, error) {
	if err := checkToken(token); err != nil {
		return nil, err
	}
	if err := checkAmount(amount, false); err != nil {
		return nil, err
	}
	beneficiary, err := a.resolveBeneficiary(onBehalfOf)
	if err != nil {
		return nil, err
	}
	sess, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	if err := sess.validator.Supply(ctx, token, amount, a.account.Address()); err != nil {
		return nil, err
	}
	calls := sess.builder.ApproveSteps(token, amount)
	calls = append(calls, sess.builder.Supply(token, amount, beneficiary))
	return calls, nil
}

// Supply deposits amount of token into the pool for onBehalfOf (the caller
// when nil), submitting the approval pre-steps and the supply call.
func (a *Adapter) Supply(ctx context.Context, token common.Address, amount *big.Int, onBehalfOf *common.Address, opts *SendOptions) (*Receipt, error) {
	if a.sender == nil {
		return nil, ErrReadOnlyAccount
	}
	calls, err := a.prepareSupply(ctx, token, amount, onBehalfOf)
	if err != nil {
		return nil, err
	}
	return a.submit(ctx, calls, opts)
}

// QuoteSupply prices a supply without submitting it. The same validation runs
// as for Supply.
func (a *Adapter) QuoteSupply(ctx context.Context, token common.Address, amount *big.Int, onBehalfOf *common.Address, opts *SendOptions) (*Quote, error) {
	if a.sender == nil {
		return nil, ErrReadOnlyAccount
	}
	calls, err := a.prepareSupply(ctx, token, amount, onBehalfOf)
	if err != nil {
		return nil, err
	}
	return a.quote(ctx, calls, opts)
}

func (a *Adapter) prepareWithdraw(ctx context.Context, token common.Address, amount *big.Int, to *common.Address) ([]lending.Call, error) {
	if err := checkToken(token); err != nil {
		return nil, err
	}
	if err := checkAmount(amount, true); err != nil {
		return nil, err
	}
	recipient, err := a.resolveBeneficiary(to)
	if err != nil {
		return nil, err
	}
	sess, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	if err := sess.validator.Withdraw(ctx, token, amount, a.account.Address()); err != nil {
		return nil, err
	}
	return []lending.Call{sess.builder.Withdraw(token, amount, recipient)}, nil
}

// Withdraw redeems amount of token to the recipient (the caller when nil).
// Passing the MaxUint256 sentinel withdraws the entire balance.
func (a *Adapter) Withdraw(ctx context.Context, token common.Address, amount *big.Int, to *common.Address, opts *SendOptions) (*Receipt, error) {
	if a.sender == nil {
		return nil, ErrReadOnlyAccount
	}
	calls, err := a.prepareWithdraw(ctx, token, amount, to)
	if err != nil {
		return nil, err
	}
	return a.submit(ctx, calls, opts)
}

// QuoteWithdraw prices a withdraw without submitting it.
func (a *Adapter) QuoteWithdraw(ctx context.Context, token common.Address, amount *big.Int, to *common.Address, opts *SendOptions) (*Quote, error) {
	if a.sender == nil {
		return nil, ErrReadOnlyAccount
	}
	calls, err := a.prepareWithdraw(ctx, token, amount, to)
	if err != nil {
		return nil, err
	}
	return a.quote(ctx, calls, opts)
}

func (a *Adapter) prepareBorrow(ctx context.Context, token common.Address, amount *big.Int, onBehalfOf *common.Address) ([]lending.Call, error) {
	if err := checkToken(token); err != nil {
		return nil, err
	}
	if err := checkAmount(amount, false); err != nil {
		return nil, err
	}
	borrower, err := a.resolveBeneficiary(onBehalfOf)
	if err != nil {
		return nil, err
	}
	sess, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	if err := sess.validator.Borrow(ctx, token, amount, borrower); err != nil {
		return nil, err
	}
	return []lending.Call{sess.builder.Borrow(token, amount, borrower)}, nil
}

// Borrow draws amount of token against the collateral of onBehalfOf (the
// caller when nil), always at the variable rate.
func (a *Adapter) Borrow(ctx context.Context, token common.Address, amount *big.Int, onBehalfOf *common.Address, opts *SendOptions) (*Receipt, error) {
	if a.sender == nil {
		return nil, ErrReadOnlyAccount
	}
	calls, err := a.prepareBorrow(ctx, token, amount, onBehalfOf)
	if err != nil {
		return nil, err
	}
	return a.submit(ctx, calls, opts)
}

// QuoteBorrow prices a borrow without submitting it.
func (a *Adapter) QuoteBorrow(ctx context.Context, token common.Address, amount *big.Int, onBehalfOf *common.Address, opts *SendOptions) (*Quote, error) {
	if a.sender == nil {
		return nil, ErrReadOnlyAccount
	}
	calls, err := a.prepareBorrow(ctx, token, amount, onBehalfOf)
	if err != nil {
		return nil, err
	}
	return a.quote(ctx, calls, opts)
}

func (a *Adapter) prepareRepay(ctx context.Context, token common.Address, amount *big.Int, onBehalfOf *common.Address) ([]lending.Call, error) {
	if err := checkToken(token); err != nil {
		return nil, err
	}
	if err := checkAmount(amount, true); err != nil {
		return nil, err
	}
	debtor, err := a.resolveBeneficiary(onBehalfOf)
	if err != nil {
		return nil, err
	}
	sess, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	if err := sess.validator.Repay(ctx, token, debtor); err != nil {
		return nil, err
	}

	repayAmount := amount
	if lending.IsMaxAmount(amount) && debtor != a.account.Address() {
		// Full repayment of someone else's debt cannot use the pool's max
		// sentinel for the approval, so approve the projected debt plus a
		// small overage covering interest accrued before inclusion.
		debt, err := sess.validator.ProjectedDebt(ctx, token, debtor)
		if err != nil {
			return nil, err
		}
		repayAmount = new(big.Int).Add(debt, lending.RepayOnBehalfOverage)
	}
	calls := sess.builder.ApproveSteps(token, repayAmount)
	calls = append(calls, sess.builder.Repay(token, repayAmount, debtor))
	return calls, nil
}

// Repay pays down the variable debt of onBehalfOf (the caller when nil). The
// MaxUint256 sentinel repays the full debt.
func (a *Adapter) Repay(ctx context.Context, token common.Address, amount *big.Int, onBehalfOf *common.Address, opts *SendOptions) (*Receipt, error) {
	if a.sender == nil {
		return nil, ErrReadOnlyAccount
	}
	calls, err := a.prepareRepay(ctx, token, amount, onBehalfOf)
	if err != nil {
		return nil, err
	}
	return a.submit(ctx, calls, opts)
}

// QuoteRepay prices a repay without submitting it.
func (a *Adapter) QuoteRepay(ctx context.Context, token common.Address, amount *big.Int, onBehalfOf *common.Address, opts *SendOptions) (*Quote, error) {
	if a.sender == nil {
		return nil, ErrReadOnlyAccount
	}
	calls, err := a.prepareRepay(ctx, token, amount, onBehalfOf)
	if err != nil {
		return nil, err
	}
	return a.quote(ctx, calls, opts)
}

// SetUseReserveAsCollateral toggles collateral usage for token. Enabling is
// validated against the reserve's collateral eligibility; disabling is left
// to the pool's own health-factor enforcement.
func (a *Adapter) SetUseReserveAsCollateral(ctx context.Context, token common.Address, useAsCollateral bool, opts *SendOptions) (*Receipt, error) {
	if a.sender == nil {
		return nil, ErrReadOnlyAccount
	}
	if err := checkToken(token); err != nil {
		return nil, err
	}
	sess, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	if err := sess.validator.CollateralToggle(ctx, token, useAsCollateral); err != nil {
		return nil, err
	}
	return a.submit(ctx, []lending.Call{sess.builder.SetUseReserveAsCollateral(token, useAsCollateral)}, opts)
}

// SetUserEMode selects the efficiency-mode category for the account. The
// category id is an opaque integer passed through to the pool.
func (a *Adapter) SetUserEMode(ctx context.Context, categoryID uint64, opts *SendOptions) (*Receipt, error) {
	if a.sender == nil {
		return nil, ErrReadOnlyAccount
	}
	if categoryID > 255 {
		return nil, ErrInvalidEModeCategory
	}
	sess, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	return a.submit(ctx, []lending.Call{sess.builder.SetUserEMode(uint8(categoryID))}, opts)
}

// AccountData returns the pool's aggregate position for account, defaulting
// to the adapter's own account when nil.
func (a *Adapter) AccountData(ctx context.Context, account *common.Address) (*lending.AccountData, error) {
	target, err := a.resolveBeneficiary(account)
	if err != nil {
		return nil, err
	}
	sess, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	return sess.view.AccountData(ctx, target)
}
