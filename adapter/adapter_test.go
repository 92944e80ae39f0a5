package adapter

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"aavegate/lending"
	"aavegate/registry"
)

var (
	usdc        = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	aUSDC       = common.HexToAddress("0x98C23E9d8f34FEFb1B7BD6a91B7FF122F4e16F5c")
	dUSDC       = common.HexToAddress("0x72E95b8931767C79dB4EA6D929c3c74C400920e4")
	usdt        = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	aUSDT       = common.HexToAddress("0x23878914EFE38d27C4D67Ab83ed1b93A74D4086a")
	dUSDT       = common.HexToAddress("0x6df1C1E379bC5a00a7b4C6e67A203333772f45A8")
	walletAddr  = common.HexToAddress("0x0000000000000000000000000000000000001001")
	otherWallet = common.HexToAddress("0x0000000000000000000000000000000000002002")
	mainnetPool = common.HexToAddress("0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2")
)

// fakeReader only answers the chain-id probe; state reads go through fakeView.
type fakeReader struct {
	chainID *big.Int
}

func (f *fakeReader) TokenBalance(context.Context, common.Address, common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *fakeReader) CallContract(context.Context, common.Address, []byte) ([]byte, error) {
	return nil, nil
}

func (f *fakeReader) ChainID(context.Context) (*big.Int, error) {
	return f.chainID, nil
}

type fakeView struct {
	balances  map[common.Address]*big.Int
	snapshots map[common.Address]*lending.ReserveSnapshot
	configs   map[common.Address]lending.ReserveConfig
	account   *lending.AccountData
	scaled    map[common.Address]*big.Int
	supply    map[common.Address]*big.Int
	prices    map[common.Address]*big.Int
}

func (f *fakeView) TokenBalance(_ context.Context, token, _ common.Address) (*big.Int, error) {
	if b, ok := f.balances[token]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeView) ReserveSnapshot(_ context.Context, asset common.Address) (*lending.ReserveSnapshot, error) {
	snap, ok := f.snapshots[asset]
	if !ok {
		return nil, lending.ErrReserveNotFound
	}
	return snap, nil
}

func (f *fakeView) ReserveConfiguration(_ context.Context, asset common.Address) (lending.ReserveConfig, error) {
	cfg, ok := f.configs[asset]
	if !ok {
		return lending.ReserveConfig{}, lending.ErrReserveNotFound
	}
	return cfg, nil
}

func (f *fakeView) AccountData(context.Context, common.Address) (*lending.AccountData, error) {
	return f.account, nil
}

func (f *fakeView) ScaledBalanceOf(_ context.Context, token, _ common.Address) (*big.Int, error) {
	if b, ok := f.scaled[token]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeView) ScaledTotalSupply(_ context.Context, token common.Address) (*big.Int, error) {
	if b, ok := f.supply[token]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeView) AssetPrice(_ context.Context, asset common.Address) (*big.Int, error) {
	if p, ok := f.prices[asset]; ok {
		return new(big.Int).Set(p), nil
	}
	return big.NewInt(0), nil
}

// fakeSender records every submitted call and charges a flat fee per step.
type fakeSender struct {
	addr  common.Address
	sent  []lending.Call
	fee   int64
	count int
}

func (f *fakeSender) Address() common.Address { return f.addr }

func (f *fakeSender) SendTransaction(_ context.Context, call lending.Call, _ *SendOptions) (*Receipt, error) {
	f.sent = append(f.sent, call)
	f.count++
	return &Receipt{
		Hash: common.BigToHash(big.NewInt(int64(f.count))),
		Fee:  big.NewInt(f.fee),
	}, nil
}

func (f *fakeSender) QuoteTransaction(context.Context, lending.Call, *SendOptions) (*Quote, error) {
	return &Quote{Fee: big.NewInt(f.fee)}, nil
}

// fakeBatchSender submits multi-step operations atomically.
type fakeBatchSender struct {
	fakeSender
	batches [][]lending.Call
}

func (f *fakeBatchSender) SendBatch(_ context.Context, calls []lending.Call, _ *SendOptions) (*Receipt, error) {
	f.batches = append(f.batches, calls)
	return &Receipt{Hash: common.BigToHash(big.NewInt(99)), Fee: big.NewInt(f.fee)}, nil
}

func (f *fakeBatchSender) QuoteBatch(_ context.Context, calls []lending.Call, _ *SendOptions) (*Quote, error) {
	return &Quote{Fee: big.NewInt(f.fee * int64(len(calls)))}, nil
}

// readOnlyAccount has an address but no sending capability.
type readOnlyAccount common.Address

func (a readOnlyAccount) Address() common.Address { return common.Address(a) }

func ray() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(27), nil)
}

func reserve(asset, aToken, debtToken common.Address) *lending.ReserveSnapshot {
	return &lending.ReserveSnapshot{
		UnderlyingAsset:          asset,
		ATokenAddress:            aToken,
		VariableDebtTokenAddress: debtToken,
		IsActive:                 true,
		BorrowingEnabled:         true,
		UsageAsCollateralEnabled: true,
		Decimals:                 6,
		BaseLTV:                  big.NewInt(8000),
		LiquidityIndex:           ray(),
		VariableBorrowIndex:      ray(),
		AccruedToTreasury:        big.NewInt(0),
		SupplyCap:                big.NewInt(0),
		BorrowCap:                big.NewInt(0),
		TotalScaledVariableDebt:  big.NewInt(0),
	}
}

func newFakeView() *fakeView {
	hf, _ := new(big.Int).SetString("2000000000000000000", 10)
	return &fakeView{
		balances: map[common.Address]*big.Int{
			usdc: big.NewInt(20_000_000),
			usdt: big.NewInt(20_000_000),
		},
		snapshots: map[common.Address]*lending.ReserveSnapshot{
			usdc: reserve(usdc, aUSDC, dUSDC),
			usdt: reserve(usdt, aUSDT, dUSDT),
		},
		configs: map[common.Address]lending.ReserveConfig{},
		account: &lending.AccountData{
			TotalCollateralBase:         big.NewInt(50_000_000_000),
			TotalDebtBase:               big.NewInt(10_000_000_000),
			AvailableBorrowsBase:        big.NewInt(30_000_000_000),
			CurrentLiquidationThreshold: big.NewInt(8250),
			LTV:                         big.NewInt(8000),
			HealthFactor:                hf,
		},
		scaled: map[common.Address]*big.Int{},
		supply: map[common.Address]*big.Int{},
		prices: map[common.Address]*big.Int{
			usdc: big.NewInt(100_000_000),
			usdt: big.NewInt(100_000_000),
		},
	}
}

func newTestAdapter(t *testing.T, account Account, view *fakeView) *Adapter {
	t.Helper()
	a := New(account, &fakeReader{chainID: big.NewInt(1)})
	a.newView = func(registry.Registry) lending.StateView { return view }
	return a
}

func TestSupplySubmitsApproveThenSupply(t *testing.T) {
	sender := &fakeSender{addr: walletAddr, fee: 1000}
	a := newTestAdapter(t, sender, newFakeView())

	receipt, err := a.Supply(context.Background(), usdc, big.NewInt(10_000_000), nil, nil)
	require.NoError(t, err)
	require.Len(t, sender.sent, 2)

	// First the ERC-20 approval against the token, then the pool call.
	require.Equal(t, usdc, sender.sent[0].To)
	require.Equal(t, mainnetPool, sender.sent[1].To)

	require.Equal(t, common.BigToHash(big.NewInt(2)), receipt.Hash)
	require.NotNil(t, receipt.ApproveHash)
	require.Equal(t, common.BigToHash(big.NewInt(1)), *receipt.ApproveHash)
	require.Nil(t, receipt.ResetAllowanceHash)
	require.Equal(t, big.NewInt(2000), receipt.Fee)
}

func TestSupplyValidationFailureSendsNothing(t *testing.T) {
	sender := &fakeSender{addr: walletAddr, fee: 1000}
	view := newFakeView()
	view.snapshots[usdc].SupplyCap = big.NewInt(1)
	view.supply[aUSDC] = big.NewInt(2_000_000)
	a := newTestAdapter(t, sender, view)

	_, err := a.Supply(context.Background(), usdc, big.NewInt(1_000_000), nil, nil)
	require.ErrorIs(t, err, lending.ErrSupplyCapExceeded)
	require.Empty(t, sender.sent)
}

func TestSupplyInputValidation(t *testing.T) {
	sender := &fakeSender{addr: walletAddr, fee: 1000}
	a := newTestAdapter(t, sender, newFakeView())
	ctx := context.Background()

	_, err := a.Supply(ctx, common.Address{}, big.NewInt(1), nil, nil)
	require.ErrorIs(t, err, ErrZeroAddress)

	_, err = a.Supply(ctx, usdc, big.NewInt(0), nil, nil)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = a.Supply(ctx, usdc, nil, nil, nil)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = a.Supply(ctx, usdc, new(big.Int).Set(lending.MaxUint256), nil, nil)
	require.ErrorIs(t, err, ErrMaxAmountNotAllowed)

	zero := common.Address{}
	_, err = a.Supply(ctx, usdc, big.NewInt(1), &zero, nil)
	require.ErrorIs(t, err, ErrZeroAddress)

	require.Empty(t, sender.sent)
}

func TestWithdrawMaxIsSingleCall(t *testing.T) {
	sender := &fakeSender{addr: walletAddr, fee: 1000}
	view := newFakeView()
	view.scaled[aUSDC] = big.NewInt(5_000_000)
	a := newTestAdapter(t, sender, view)

	receipt, err := a.Withdraw(context.Background(), usdc, new(big.Int).Set(lending.MaxUint256), nil, nil)
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	require.Equal(t, mainnetPool, sender.sent[0].To)
	require.Nil(t, receipt.ApproveHash)
	require.Equal(t, big.NewInt(1000), receipt.Fee)
}

func TestBorrowRejectsMaxSentinel(t *testing.T) {
	sender := &fakeSender{addr: walletAddr, fee: 1000}
	a := newTestAdapter(t, sender, newFakeView())

	_, err := a.Borrow(context.Background(), usdc, new(big.Int).Set(lending.MaxUint256), nil, nil)
	require.ErrorIs(t, err, ErrMaxAmountNotAllowed)
	require.Empty(t, sender.sent)
}

func approveAmount(t *testing.T, call lending.Call) *big.Int {
	t.Helper()
	require.GreaterOrEqual(t, len(call.Data), 4+64)
	// Set canonicalizes zero: SetBytes on all-zero bytes yields an empty
	// non-nil abs slice, which reflect.DeepEqual (and so require.Equal)
	// distinguishes from big.NewInt(0)'s nil abs.
	return new(big.Int).Set(new(big.Int).SetBytes(call.Data[4+32 : 4+64]))
}

func TestRepaySelfMaxApprovesSentinel(t *testing.T) {
	sender := &fakeSender{addr: walletAddr, fee: 1000}
	view := newFakeView()
	view.scaled[dUSDC] = big.NewInt(4_000_000)
	a := newTestAdapter(t, sender, view)

	_, err := a.Repay(context.Background(), usdc, new(big.Int).Set(lending.MaxUint256), nil, nil)
	require.NoError(t, err)
	require.Len(t, sender.sent, 2)
	require.Equal(t, lending.MaxUint256, approveAmount(t, sender.sent[0]))
}

func TestRepayOnBehalfMaxApprovesDebtPlusOverage(t *testing.T) {
	sender := &fakeSender{addr: walletAddr, fee: 1000}
	view := newFakeView()
	view.scaled[dUSDC] = big.NewInt(4_000_000)
	a := newTestAdapter(t, sender, view)

	_, err := a.Repay(context.Background(), usdc, new(big.Int).Set(lending.MaxUint256), &otherWallet, nil)
	require.NoError(t, err)
	require.Len(t, sender.sent, 2)

	// Debt projects to 4e6 at a unit index; the approval covers it plus the
	// fixed interest overage.
	want := new(big.Int).Add(big.NewInt(4_000_000), lending.RepayOnBehalfOverage)
	require.Equal(t, want, approveAmount(t, sender.sent[0]))
	require.Equal(t, want, new(big.Int).SetBytes(sender.sent[1].Data[4+32:4+64]))
}

func TestRepayWithoutDebtRejected(t *testing.T) {
	sender := &fakeSender{addr: walletAddr, fee: 1000}
	a := newTestAdapter(t, sender, newFakeView())

	_, err := a.Repay(context.Background(), usdc, big.NewInt(1_000_000), nil, nil)
	require.ErrorIs(t, err, lending.ErrDebtNotFound)
	require.Empty(t, sender.sent)
}

func TestSupplyUSDTResetsAllowanceFirst(t *testing.T) {
	sender := &fakeSender{addr: walletAddr, fee: 1000}
	a := newTestAdapter(t, sender, newFakeView())

	receipt, err := a.Supply(context.Background(), usdt, big.NewInt(10_000_000), nil, nil)
	require.NoError(t, err)
	require.Len(t, sender.sent, 3)

	require.Equal(t, big.NewInt(0), approveAmount(t, sender.sent[0]))
	require.Equal(t, big.NewInt(10_000_000), approveAmount(t, sender.sent[1]))
	require.Equal(t, mainnetPool, sender.sent[2].To)

	require.NotNil(t, receipt.ResetAllowanceHash)
	require.NotNil(t, receipt.ApproveHash)
	require.Equal(t, common.BigToHash(big.NewInt(3)), receipt.Hash)
	require.Equal(t, big.NewInt(3000), receipt.Fee)
}

func TestBatchSenderBundlesMultiStep(t *testing.T) {
	sender := &fakeBatchSender{fakeSender: fakeSender{addr: walletAddr, fee: 1000}}
	a := newTestAdapter(t, sender, newFakeView())

	receipt, err := a.Supply(context.Background(), usdc, big.NewInt(10_000_000), nil, nil)
	require.NoError(t, err)
	require.Len(t, sender.batches, 1)
	require.Len(t, sender.batches[0], 2)
	require.Empty(t, sender.sent)
	require.Equal(t, common.BigToHash(big.NewInt(99)), receipt.Hash)
}

func TestQuoteSupplySumsStepFees(t *testing.T) {
	sender := &fakeSender{addr: walletAddr, fee: 1000}
	a := newTestAdapter(t, sender, newFakeView())

	quote, err := a.QuoteSupply(context.Background(), usdc, big.NewInt(10_000_000), nil, nil)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(2000), quote.Fee)
	require.Empty(t, sender.sent)
}

func TestSetUserEModeRange(t *testing.T) {
	sender := &fakeSender{addr: walletAddr, fee: 1000}
	a := newTestAdapter(t, sender, newFakeView())
	ctx := context.Background()

	_, err := a.SetUserEMode(ctx, 256, nil)
	require.ErrorIs(t, err, ErrInvalidEModeCategory)

	_, err = a.SetUserEMode(ctx, 0, nil)
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
}

func TestReadOnlyAccountRejectsMutations(t *testing.T) {
	view := newFakeView()
	a := newTestAdapter(t, readOnlyAccount(walletAddr), view)
	ctx := context.Background()

	_, err := a.Supply(ctx, usdc, big.NewInt(1), nil, nil)
	require.ErrorIs(t, err, ErrReadOnlyAccount)

	_, err = a.QuoteSupply(ctx, usdc, big.NewInt(1), nil, nil)
	require.ErrorIs(t, err, ErrReadOnlyAccount)

	_, err = a.SetUserEMode(ctx, 1, nil)
	require.ErrorIs(t, err, ErrReadOnlyAccount)

	// Reads still work without a signer.
	data, err := a.AccountData(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, view.account, data)
}

func TestAccountDataAllZeros(t *testing.T) {
	view := newFakeView()
	view.account = &lending.AccountData{
		TotalCollateralBase:         big.NewInt(0),
		TotalDebtBase:               big.NewInt(0),
		AvailableBorrowsBase:        big.NewInt(0),
		CurrentLiquidationThreshold: big.NewInt(0),
		LTV:                         big.NewInt(0),
		HealthFactor:                big.NewInt(0),
	}
	a := newTestAdapter(t, readOnlyAccount(walletAddr), view)

	data, err := a.AccountData(context.Background(), &otherWallet)
	require.NoError(t, err)
	require.Zero(t, data.HealthFactor.Sign())
	require.Zero(t, data.TotalCollateralBase.Sign())
}

func TestUnsupportedChainSurfacesRegistryError(t *testing.T) {
	sender := &fakeSender{addr: walletAddr, fee: 1000}
	a := New(sender, &fakeReader{chainID: big.NewInt(5)})

	_, err := a.Supply(context.Background(), usdc, big.NewInt(1), nil, nil)
	require.ErrorIs(t, err, registry.ErrUnsupportedChain)
}
