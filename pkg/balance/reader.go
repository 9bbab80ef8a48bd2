// Package balance reads on-chain wallet balances so that funding can be
// confirmed and watched accounts topped up.
package balance

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/hyperledger/web3j-cli-sub000/pkg/currency"
	"github.com/hyperledger/web3j-cli-sub000/pkg/faucet"
	"github.com/hyperledger/web3j-cli-sub000/pkg/logger"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultPollInterval = 5 * time.Second
)

// Reader returns the balance of an address in the network's atomic unit.
type Reader interface {
	Balance(ctx context.Context, address string) (*big.Int, error)
	Close() error
}

// NewReader connects to the RPC endpoint of network.
func NewReader(network faucet.Network, timeout time.Duration) (Reader, error) {
	if network.RPCAddr == "" {
		return nil, fmt.Errorf("network %s has no RPC address configured", network.Name)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	switch network.Module {
	case faucet.EVM:
		return NewEVMReader(network, timeout)
	case faucet.Cosmos:
		return NewCosmosReader(network, timeout)
	default:
		return nil, fmt.Errorf("unsupported module type: %s", network.Module)
	}
}

// ToDisplay converts an atomic amount into the network's display unit.
func ToDisplay(registry *currency.Registry, network faucet.Network, amount *big.Int) (float64, error) {
	unit := network.DisplayUnit
	if unit == "" {
		unit = network.Denom
	}
	if err := registry.EnsureUnitPair(network.Denom, unit, network.Decimals, string(network.Module)); err != nil {
		return 0, fmt.Errorf("failed to register units for %s: %w", network.Name, err)
	}
	return registry.FromAtomic(amount, unit)
}

// WaitForChange polls address until its balance differs from before, which
// is how a funding transaction is observed to have been mined.
func WaitForChange(ctx context.Context, reader Reader, address string, before *big.Int, interval time.Duration) (*big.Int, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timeout waiting for balance of %s to change: %w", address, ctx.Err())
		case <-ticker.C:
			current, err := reader.Balance(ctx, address)
			if err != nil {
				logger.Warnf("[balance] failed to read balance of %s: %v", address, err)
				continue
			}
			if current.Cmp(before) != 0 {
				logger.Debugf("[balance] balance of %s changed from %s to %s", address, before, current)
				return current, nil
			}
		}
	}
}
