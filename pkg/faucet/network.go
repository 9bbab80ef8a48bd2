package faucet

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hyperledger/web3j-cli-sub000/pkg/config"
)

type Module string

const (
	EVM    Module = "evm"
	Cosmos Module = "cosmos"
)

// Network is a testnet served by a faucet.
type Network struct {
	Name        string
	DisplayName string
	BaseURL     string
	// ExplorerURL is a fmt template taking the transaction hash.
	ExplorerURL string
	Module      Module
	RPCAddr     string
	Denom       string
	DisplayUnit string
	Decimals    int
	HRP         string
}

func (n Network) String() string {
	return n.DisplayName
}

// ExplorerLink returns the block explorer URL for a transaction, or "" when
// the network has no explorer.
func (n Network) ExplorerLink(txHash string) string {
	if n.ExplorerURL == "" || txHash == "" {
		return ""
	}
	return fmt.Sprintf(n.ExplorerURL, txHash)
}

var (
	Rinkeby = Network{
		Name:        "rinkeby",
		DisplayName: "Rinkeby",
		BaseURL:     "https://rinkeby.faucet.epirus.io",
		ExplorerURL: "https://rinkeby.epirus.io/transactions/%s",
		Module:      EVM,
		Denom:       "wei",
		DisplayUnit: "eth",
		Decimals:    18,
	}

	Ropsten = Network{
		Name:        "ropsten",
		DisplayName: "Ropsten",
		BaseURL:     "https://ropsten.faucet.epirus.io",
		ExplorerURL: "https://ropsten.epirus.io/transactions/%s",
		Module:      EVM,
		Denom:       "wei",
		DisplayUnit: "eth",
		Decimals:    18,
	}

	// Local targets "web3j faucet serve" and a development node.
	Local = Network{
		Name:        "local",
		DisplayName: "Local",
		BaseURL:     "http://localhost:8000",
		Module:      EVM,
		RPCAddr:     "http://localhost:8545",
		Denom:       "wei",
		DisplayUnit: "eth",
		Decimals:    18,
	}
)

// Registry is the closed set of networks the CLI accepts.
type Registry struct {
	networks map[string]Network
}

func NewRegistry(networks ...Network) *Registry {
	r := &Registry{networks: make(map[string]Network, len(networks))}
	for _, n := range networks {
		r.networks[strings.ToLower(n.Name)] = n
	}
	return r
}

func DefaultRegistry() *Registry {
	return NewRegistry(Rinkeby, Ropsten, Local)
}

// RegistryFromConfig applies configured overrides and additions on top of the
// built-in networks.
func RegistryFromConfig(cfg *config.Schema) *Registry {
	r := DefaultRegistry()
	for _, nc := range cfg.Networks {
		n, exists := r.networks[nc.Name]
		if !exists {
			n = Network{Name: nc.Name, DisplayName: nc.Name, Module: EVM}
			if !strings.EqualFold(nc.Module, string(Cosmos)) {
				n.Denom, n.DisplayUnit, n.Decimals = Local.Denom, Local.DisplayUnit, Local.Decimals
			}
		}
		if nc.DisplayName != "" {
			n.DisplayName = nc.DisplayName
		}
		if nc.FaucetURL != "" {
			n.BaseURL = nc.FaucetURL
		}
		if nc.ExplorerURL != "" {
			n.ExplorerURL = nc.ExplorerURL
		}
		if nc.Module != "" {
			n.Module = Module(strings.ToLower(nc.Module))
		}
		if nc.RPCAddr != "" {
			n.RPCAddr = nc.RPCAddr
		}
		if nc.Denom != "" {
			n.Denom = nc.Denom
		}
		if nc.DisplayUnit != "" {
			n.DisplayUnit = nc.DisplayUnit
		}
		if nc.Decimals != nil {
			n.Decimals = *nc.Decimals
		}
		if nc.HRP != "" {
			n.HRP = nc.HRP
		}
		r.networks[n.Name] = n
	}
	return r
}

// Lookup resolves a user supplied network name, case-insensitively.
func (r *Registry) Lookup(name string) (Network, error) {
	n, ok := r.networks[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Network{}, fmt.Errorf("%w: %q (supported: %s)", ErrInvalidNetwork, name, strings.Join(r.Names(), ", "))
	}
	return n, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.networks))
	for name := range r.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) List() []Network {
	networks := make([]Network, 0, len(r.networks))
	for _, name := range r.Names() {
		networks = append(networks, r.networks[name])
	}
	return networks
}
