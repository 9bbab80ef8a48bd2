package balance

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/hyperledger/web3j-cli-sub000/pkg/faucet"
	"github.com/hyperledger/web3j-cli-sub000/pkg/logger"
)

// EVMReader reads balances from an Ethereum JSON-RPC endpoint.
type EVMReader struct {
	network string
	client  *ethclient.Client
}

func NewEVMReader(network faucet.Network, timeout time.Duration) (*EVMReader, error) {
	httpClient := &http.Client{Timeout: timeout}

	rpcClient, err := rpc.DialOptions(context.Background(), network.RPCAddr, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ethereum node: %w", err)
	}

	return &EVMReader{
		network: network.Name,
		client:  ethclient.NewClient(rpcClient),
	}, nil
}

func (r *EVMReader) Balance(ctx context.Context, address string) (*big.Int, error) {
	balance, err := r.client.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance for %s: %w", address, err)
	}
	logger.Debugf("[balance %s] %s holds %s wei", r.network, address, balance)
	return balance, nil
}

func (r *EVMReader) Close() error {
	if r.client != nil {
		r.client.Close()
	}
	return nil
}
