package faucet

import (
	"context"
	"time"

	"github.com/hyperledger/web3j-cli-sub000/pkg/pow"
)

// Fauceter defines the interface for a faucet client.
type Fauceter interface {
	Fund(ctx context.Context, address string, network Network, token string) (*Result, error)
	FundWithRetry(ctx context.Context, address string, network Network, token string, maxRetries int) (*Result, error)
}

// Solver finds a nonce for a faucet challenge.
type Solver interface {
	Solve(ctx context.Context, ch pow.Challenge) (*pow.Result, error)
}

// Observer receives funding telemetry. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveRequest(network, op string, statusCode int, d time.Duration)
	ObserveSolve(network string, attempts uint64, d time.Duration, err error)
	ObserveFunding(network, method string, d time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, string, int, time.Duration)   {}
func (nopObserver) ObserveSolve(string, uint64, time.Duration, error)   {}
func (nopObserver) ObserveFunding(string, string, time.Duration, error) {}
