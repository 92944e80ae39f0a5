package ethereum

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	gethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"aavegate/adapter"
	"aavegate/lending"
)

// Wallet signs and submits EIP-1559 transactions for a single private key.
// It implements adapter.Sender; a plain externally-owned account cannot batch,
// so the adapter falls back to sequential submission.
type Wallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
	eth     *ethclient.Client
	chainID *big.Int
}

// NewWallet derives the signing account from a hex-encoded private key.
func NewWallet(ctx context.Context, eth *ethclient.Client, hexKey string) (*Wallet, error) {
	key, err := gethcrypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	chainID, err := eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve chain id: %w", err)
	}
	return &Wallet{
		key:     key,
		address: gethcrypto.PubkeyToAddress(key.PublicKey),
		eth:     eth,
		chainID: chainID,
	}, nil
}

// Address returns the wallet's account address.
func (w *Wallet) Address() common.Address {
	return w.address
}

func (w *Wallet) feeParams(ctx context.Context, opts *adapter.SendOptions) (tip, feeCap *big.Int, err error) {
	if opts != nil && opts.MaxPriorityFeePerGas != nil {
		tip = opts.MaxPriorityFeePerGas
	} else {
		tip, err = w.eth.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("suggest tip: %w", err)
		}
	}
	if opts != nil && opts.MaxFeePerGas != nil {
		return tip, opts.MaxFeePerGas, nil
	}
	head, err := w.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch head: %w", err)
	}
	feeCap = new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	return tip, feeCap, nil
}

func (w *Wallet) estimateGas(ctx context.Context, call lending.Call, opts *adapter.SendOptions) (uint64, error) {
	if opts != nil && opts.GasLimit > 0 {
		return opts.GasLimit, nil
	}
	msg := gethereum.CallMsg{From: w.address, To: &call.To, Value: call.Value, Data: call.Data}
	gas, err := w.eth.EstimateGas(ctx, msg)
	if err != nil {
		return 0, fmt.Errorf("estimate gas: %w", err)
	}
	return gas, nil
}

// SendTransaction signs, submits and waits for one call, returning the mined
// hash and the fee actually paid.
func (w *Wallet) SendTransaction(ctx context.Context, call lending.Call, opts *adapter.SendOptions) (*adapter.Receipt, error) {
	nonce, err := w.eth.PendingNonceAt(ctx, w.address)
	if err != nil {
		return nil, fmt.Errorf("fetch nonce: %w", err)
	}
	tip, feeCap, err := w.feeParams(ctx, opts)
	if err != nil {
		return nil, err
	}
	gas, err := w.estimateGas(ctx, call, opts)
	if err != nil {
		return nil, err
	}
	value := call.Value
	if value == nil {
		value = big.NewInt(0)
	}
	tx := gethtypes.NewTx(&gethtypes.DynamicFeeTx{
		ChainID:   w.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &call.To,
		Value:     value,
		Data:      call.Data,
	})
	signed, err := gethtypes.SignTx(tx, gethtypes.LatestSignerForChainID(w.chainID), w.key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	if err := w.eth.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}
	receipt, err := bind.WaitMined(ctx, w.eth, signed)
	if err != nil {
		return nil, fmt.Errorf("wait mined: %w", err)
	}
	if receipt.Status != gethtypes.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("transaction %s reverted", signed.Hash().Hex())
	}
	fee := new(big.Int).Mul(receipt.EffectiveGasPrice, new(big.Int).SetUint64(receipt.GasUsed))
	return &adapter.Receipt{Hash: signed.Hash(), Fee: fee}, nil
}

// QuoteTransaction prices one call from the current gas estimate and fee
// suggestions without submitting anything.
func (w *Wallet) QuoteTransaction(ctx context.Context, call lending.Call, opts *adapter.SendOptions) (*adapter.Quote, error) {
	_, feeCap, err := w.feeParams(ctx, opts)
	if err != nil {
		return nil, err
	}
	gas, err := w.estimateGas(ctx, call, opts)
	if err != nil {
		return nil, err
	}
	return &adapter.Quote{Fee: new(big.Int).Mul(feeCap, new(big.Int).SetUint64(gas))}, nil
}
