package balance

import (
	"context"
	"fmt"
	"math/big"
	"net"
	"strings"
	"time"

	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/hyperledger/web3j-cli-sub000/pkg/faucet"
	"github.com/hyperledger/web3j-cli-sub000/pkg/logger"
)

// CosmosReader reads balances through the bank module's gRPC query service.
type CosmosReader struct {
	network string
	denom   string
	conn    *grpc.ClientConn
	client  banktypes.QueryClient
}

func NewCosmosReader(network faucet.Network, timeout time.Duration) (*CosmosReader, error) {
	grpcAddr := strings.TrimPrefix(network.RPCAddr, "grpc://")
	conn, err := grpc.NewClient(
		grpcAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, addr string) (net.Conn, error) {
			return net.DialTimeout("tcp", addr, timeout)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cosmos node: %w", err)
	}

	return &CosmosReader{
		network: network.Name,
		denom:   network.Denom,
		conn:    conn,
		client:  banktypes.NewQueryClient(conn),
	}, nil
}

func (r *CosmosReader) Balance(ctx context.Context, address string) (*big.Int, error) {
	resp, err := r.client.Balance(ctx, &banktypes.QueryBalanceRequest{
		Address: address,
		Denom:   r.denom,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get balance for %s: %w", address, err)
	}

	if resp.Balance == nil || resp.Balance.Amount.IsNil() {
		return new(big.Int), nil
	}

	amount := resp.Balance.Amount.BigInt()
	logger.Debugf("[balance %s] %s holds %s %s", r.network, address, amount, r.denom)
	return amount, nil
}

func (r *CosmosReader) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
