package faucet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/web3j-cli-sub000/pkg/config"
)

func TestRegistryLookup(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		input string
		want  Network
	}{
		{"rinkeby", Rinkeby},
		{"ROPSTEN", Ropsten},
		{" local ", Local},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := r.Lookup(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := r.Lookup("mainnet")
	require.ErrorIs(t, err, ErrInvalidNetwork)
	assert.Contains(t, err.Error(), "local, rinkeby, ropsten")
}

func TestExplorerLink(t *testing.T) {
	assert.Equal(t, "https://rinkeby.epirus.io/transactions/0xDEADBEEF", Rinkeby.ExplorerLink("0xDEADBEEF"))
	assert.Equal(t, "", Local.ExplorerLink("0xDEADBEEF"))
	assert.Equal(t, "", Ropsten.ExplorerLink(""))
}

func TestRegistryFromConfig(t *testing.T) {
	cfg, err := config.ReadConfigWithError(strings.NewReader(`
networks:
  - name: rinkeby
    faucetUrl: "http://faucet.internal/"
  - name: theta
    displayName: Theta
    module: cosmos
    faucetUrl: "https://faucet.theta.example.org"
    rpcAddr: "localhost:9090"
    denom: uatom
    displayUnit: atom
    decimals: 6
    hrp: cosmos
`))
	require.NoError(t, err)

	r := RegistryFromConfig(cfg)

	rinkeby, err := r.Lookup("rinkeby")
	require.NoError(t, err)
	assert.Equal(t, "http://faucet.internal", rinkeby.BaseURL)
	assert.Equal(t, Rinkeby.ExplorerURL, rinkeby.ExplorerURL)

	theta, err := r.Lookup("Theta")
	require.NoError(t, err)
	assert.Equal(t, Cosmos, theta.Module)
	assert.Equal(t, 6, theta.Decimals)
	assert.Equal(t, "cosmos", theta.HRP)
	assert.Equal(t, "Theta", theta.String())

	assert.Len(t, r.List(), 4)
}
