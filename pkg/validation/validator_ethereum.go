package validation

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hyperledger/web3j-cli-sub000/pkg/currency"
	"github.com/hyperledger/web3j-cli-sub000/pkg/faucet"
)

type EthereumValidator struct {
	BaseValidator
}

func NewEthereumValidator() *EthereumValidator {
	return &EthereumValidator{}
}

func (v *EthereumValidator) ValidateNetwork(network faucet.Network) ValidationErrors {
	var errors ValidationErrors
	field := fmt.Sprintf("networks[%s]", network.Name)

	if network.RPCAddr != "" {
		parsedURL, err := url.Parse(network.RPCAddr)
		if err != nil {
			errors = append(errors, ValidationError{Field: field + ".rpcAddr", Message: "invalid RPC address URL"})
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" && parsedURL.Scheme != "ws" && parsedURL.Scheme != "wss" {
			errors = append(errors, ValidationError{Field: field + ".rpcAddr", Message: "URL scheme must be one of http, https, ws or wss"})
		}
	}

	if network.Decimals != currency.DefaultETH.Decimals {
		errors = append(errors, ValidationError{
			Field:   field + ".decimals",
			Message: fmt.Sprintf("EVM networks use %d decimals", currency.DefaultETH.Decimals),
		})
	}

	return errors
}

// ValidateAddress accepts 0x-prefixed 20 byte hex addresses. Mixed case
// addresses must carry a valid EIP-55 checksum.
func (v *EthereumValidator) ValidateAddress(field, address string, _ faucet.Network) ValidationErrors {
	var errors ValidationErrors

	if address == "" {
		return append(errors, ValidationError{Field: field, Message: "address cannot be empty"})
	}

	if !strings.HasPrefix(address, "0x") || !common.IsHexAddress(address) {
		return append(errors, ValidationError{Field: field, Message: "invalid Ethereum address format"})
	}

	digits := address[2:]
	if digits != strings.ToLower(digits) && digits != strings.ToUpper(digits) {
		checksumAddr := common.HexToAddress(address).Hex()
		if address != checksumAddr {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("address should be in checksum format: %s", checksumAddr),
			})
		}
	}

	return errors
}
