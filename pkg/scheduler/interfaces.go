package scheduler

//go:generate mockgen -source=interfaces.go -destination=./interfaces_mock_test.go -package=scheduler

import (
	"context"
	"math/big"

	"github.com/hyperledger/web3j-cli-sub000/pkg/faucet"
)

// Funder requests testnet funds for an account.
type Funder interface {
	FundWithRetry(ctx context.Context, address string, network faucet.Network, token string, maxRetries int) (*faucet.Result, error)
}

// BalanceReader reads an account balance in atomic units.
type BalanceReader interface {
	Balance(ctx context.Context, address string) (*big.Int, error)
	Close() error
}

// Recorder receives the outcome of every account check.
type Recorder interface {
	SetBalance(network, account, unit string, value float64)
	SetUnhealthy(network, account string)
}

// ReaderFactory opens a BalanceReader for a network.
type ReaderFactory func(network faucet.Network) (BalanceReader, error)

type nopRecorder struct{}

func (nopRecorder) SetBalance(string, string, string, float64) {}
func (nopRecorder) SetUnhealthy(string, string)                {}
