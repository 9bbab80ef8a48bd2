package validation

import (
	"fmt"
	"net"

	"github.com/cosmos/btcutil/bech32"

	"github.com/hyperledger/web3j-cli-sub000/pkg/faucet"
)

type CosmosValidator struct {
	BaseValidator
}

func NewCosmosValidator() *CosmosValidator {
	return &CosmosValidator{}
}

func (v *CosmosValidator) ValidateNetwork(network faucet.Network) ValidationErrors {
	var errors ValidationErrors
	field := fmt.Sprintf("networks[%s]", network.Name)

	if network.RPCAddr != "" {
		// gRPC targets are host:port, not URLs
		if _, port, err := net.SplitHostPort(network.RPCAddr); err != nil || port == "" {
			errors = append(errors, ValidationError{
				Field:   field + ".rpcAddr",
				Message: "GRPC address must be host:port",
			})
		}
	}

	if network.Denom == "" {
		errors = append(errors, ValidationError{Field: field + ".denom", Message: "denom cannot be empty for Cosmos chains"})
	}
	if network.HRP == "" {
		errors = append(errors, ValidationError{Field: field + ".hrp", Message: "bech32 prefix cannot be empty for Cosmos chains"})
	}

	return errors
}

func (v *CosmosValidator) ValidateAddress(field, address string, network faucet.Network) ValidationErrors {
	var errors ValidationErrors

	if address == "" {
		return append(errors, ValidationError{Field: field, Message: "address cannot be empty"})
	}

	// Validate Cosmos address format by checking the HRP
	hrp, _, err := bech32.Decode(address, bech32.MaxLengthBIP173)
	if err != nil {
		return append(errors, ValidationError{Field: field, Message: "invalid Cosmos address format"})
	}

	if network.HRP != "" && hrp != network.HRP {
		errors = append(errors, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("address prefix %q does not match network prefix %q", hrp, network.HRP),
		})
	}

	return errors
}
