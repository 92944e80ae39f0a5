// Package ethereum provides go-ethereum backed implementations of the chain
// reader and transaction sender contracts consumed by the adapter.
package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	gethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

const erc20ReadABIJSON = `[
  {"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"balanceOf","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"address","name":"owner","type":"address"},{"internalType":"address","name":"spender","type":"address"}],"name":"allowance","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

// Backend is the subset of the Ethereum RPC surface the reader uses.
type Backend interface {
	CallContract(ctx context.Context, msg gethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Client implements lending.ChainReader over an Ethereum JSON-RPC backend.
type Client struct {
	backend Backend
	erc20   abi.ABI
}

// Dial connects to an RPC endpoint and wraps it in a Client.
func Dial(endpoint string) (*Client, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return nil, fmt.Errorf("rpc endpoint required")
	}
	backend, err := ethclient.Dial(trimmed)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", trimmed, err)
	}
	return NewClient(backend)
}

// DialBackend connects to an RPC endpoint and returns the raw ethclient,
// for callers that need the full client surface (signing wallets).
func DialBackend(endpoint string) (*ethclient.Client, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return nil, fmt.Errorf("rpc endpoint required")
	}
	return ethclient.Dial(trimmed)
}

// NewClient wraps an existing backend.
func NewClient(backend Backend) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ReadABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 ABI: %w", err)
	}
	return &Client{backend: backend, erc20: parsed}, nil
}

func (c *Client) callUint256(ctx context.Context, to common.Address, method string, args ...interface{}) (*big.Int, error) {
	payload, err := c.erc20.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	raw, err := c.backend.CallContract(ctx, gethereum.CallMsg{To: &to, Data: payload}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := c.erc20.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s result type %T", method, values[0])
	}
	return value, nil
}

// TokenBalance returns account's ERC-20 balance of token.
func (c *Client) TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	return c.callUint256(ctx, token, "balanceOf", account)
}

// Allowance returns the spending approval owner has granted to spender.
func (c *Client) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	return c.callUint256(ctx, token, "allowance", owner, spender)
}

// CallContract executes a read-only contract call and returns the raw result.
func (c *Client) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return c.backend.CallContract(ctx, gethereum.CallMsg{To: &to, Data: data}, nil)
}

// ChainID reports the connected network.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.backend.ChainID(ctx)
}
