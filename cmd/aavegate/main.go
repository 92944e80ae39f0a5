package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"aavegate/adapter"
	"aavegate/config"
	aaveeth "aavegate/ethereum"
	"aavegate/lending"
	"aavegate/observability/logging"
)

const usage = `usage: aavegate <command> [flags]

commands:
  account-data   print the pool's aggregate position for an account
  supply         deposit a token into the pool
  withdraw       redeem a token from the pool
  borrow         draw a variable-rate loan
  repay          pay down variable debt
  collateral     toggle a reserve's use as collateral
  emode          select the efficiency-mode category
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := fs.String("config", "aavegate.toml", "path to the TOML configuration")
	tokenFlag := fs.String("token", "", "underlying token address")
	amountFlag := fs.String("amount", "", "amount in base token units, or 'max'")
	onBehalfFlag := fs.String("on-behalf-of", "", "optional target account")
	toFlag := fs.String("to", "", "optional recipient for withdraw")
	accountFlag := fs.String("account", "", "optional account for account-data")
	enableFlag := fs.Bool("enable", true, "enable or disable collateral usage")
	categoryFlag := fs.Uint64("category", 0, "e-mode category id (0-255)")
	quoteFlag := fs.Bool("quote", false, "estimate the fee instead of submitting")
	timeoutFlag := fs.Duration("timeout", 2*time.Minute, "overall operation timeout")
	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aavegate: %v\n", err)
		os.Exit(1)
	}
	log := logging.Setup("aavegate", cfg.LogLevel)
	log.Info("connecting", "endpoint", logging.MaskEndpoint(cfg.RPCURL))

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	reader, err := aaveeth.Dial(cfg.RPCURL)
	if err != nil {
		log.Error("dial failed", "err", err)
		os.Exit(1)
	}

	var account adapter.Account
	if key := cfg.PrivateKey(); key != "" {
		eth, err := aaveeth.DialBackend(cfg.RPCURL)
		if err != nil {
			log.Error("dial failed", "err", err)
			os.Exit(1)
		}
		wallet, err := aaveeth.NewWallet(ctx, eth, key)
		if err != nil {
			log.Error("wallet init failed", "err", err)
			os.Exit(1)
		}
		account = wallet
	} else if *accountFlag != "" {
		account = staticAccount(common.HexToAddress(*accountFlag))
	} else {
		fmt.Fprintln(os.Stderr, "aavegate: no signing key configured and no -account given")
		os.Exit(1)
	}

	gate := adapter.New(account, reader, adapter.WithLogger(log))

	run := func() error {
		switch command {
		case "account-data":
			target := optionalAddress(*accountFlag)
			data, err := gate.AccountData(ctx, target)
			if err != nil {
				return err
			}
			fmt.Printf("totalCollateralBase:         %s\n", data.TotalCollateralBase)
			fmt.Printf("totalDebtBase:               %s\n", data.TotalDebtBase)
			fmt.Printf("availableBorrowsBase:        %s\n", data.AvailableBorrowsBase)
			fmt.Printf("currentLiquidationThreshold: %s\n", data.CurrentLiquidationThreshold)
			fmt.Printf("ltv:                         %s\n", data.LTV)
			fmt.Printf("healthFactor:                %s\n", data.HealthFactor)
			return nil
		case "supply":
			return mutate(ctx, gate.Supply, gate.QuoteSupply, *tokenFlag, *amountFlag, *onBehalfFlag, *quoteFlag)
		case "withdraw":
			return mutate(ctx, gate.Withdraw, gate.QuoteWithdraw, *tokenFlag, *amountFlag, *toFlag, *quoteFlag)
		case "borrow":
			return mutate(ctx, gate.Borrow, gate.QuoteBorrow, *tokenFlag, *amountFlag, *onBehalfFlag, *quoteFlag)
		case "repay":
			return mutate(ctx, gate.Repay, gate.QuoteRepay, *tokenFlag, *amountFlag, *onBehalfFlag, *quoteFlag)
		case "collateral":
			receipt, err := gate.SetUseReserveAsCollateral(ctx, common.HexToAddress(*tokenFlag), *enableFlag, nil)
			if err != nil {
				return err
			}
			printReceipt(receipt)
			return nil
		case "emode":
			receipt, err := gate.SetUserEMode(ctx, *categoryFlag, nil)
			if err != nil {
				return err
			}
			printReceipt(receipt)
			return nil
		default:
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
			return nil
		}
	}

	if err := run(); err != nil {
		log.Error("operation failed", "command", command, "err", err)
		os.Exit(1)
	}
}

type staticAccount common.Address

func (a staticAccount) Address() common.Address { return common.Address(a) }

type sendFunc func(ctx context.Context, token common.Address, amount *big.Int, target *common.Address, opts *adapter.SendOptions) (*adapter.Receipt, error)
type quoteFunc func(ctx context.Context, token common.Address, amount *big.Int, target *common.Address, opts *adapter.SendOptions) (*adapter.Quote, error)

func mutate(ctx context.Context, send sendFunc, quote quoteFunc, token, amount, target string, quoteOnly bool) error {
	parsedAmount, err := parseAmount(amount)
	if err != nil {
		return err
	}
	tokenAddr := common.HexToAddress(token)
	targetAddr := optionalAddress(target)
	if quoteOnly {
		q, err := quote(ctx, tokenAddr, parsedAmount, targetAddr, nil)
		if err != nil {
			return err
		}
		fmt.Printf("fee: %s\n", q.Fee)
		return nil
	}
	receipt, err := send(ctx, tokenAddr, parsedAmount, targetAddr, nil)
	if err != nil {
		return err
	}
	printReceipt(receipt)
	return nil
}

func parseAmount(raw string) (*big.Int, error) {
	if raw == "max" {
		return new(big.Int).Set(lending.MaxUint256), nil
	}
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}

func optionalAddress(raw string) *common.Address {
	if raw == "" {
		return nil
	}
	addr := common.HexToAddress(raw)
	return &addr
}

func printReceipt(receipt *adapter.Receipt) {
	fmt.Printf("hash: %s\n", receipt.Hash.Hex())
	fmt.Printf("fee:  %s\n", receipt.Fee)
	if receipt.ResetAllowanceHash != nil {
		fmt.Printf("resetAllowanceHash: %s\n", receipt.ResetAllowanceHash.Hex())
	}
	if receipt.ApproveHash != nil {
		fmt.Printf("approveHash: %s\n", receipt.ApproveHash.Hex())
	}
}
