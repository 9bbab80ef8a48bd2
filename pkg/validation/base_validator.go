package validation

import (
	"fmt"

	"github.com/hyperledger/web3j-cli-sub000/pkg/config"
)

// BaseValidator provides validation shared by every network module
type BaseValidator struct{}

func (v *BaseValidator) ValidateCommonFields(index int, account *config.Account) ValidationErrors {
	var errors ValidationErrors
	field := fmt.Sprintf("watch.accounts[%d]", index)

	if account.Name == "" {
		errors = append(errors, ValidationError{
			Field:   field + ".name",
			Message: "account name cannot be empty",
		})
	}

	if account.Network == "" {
		errors = append(errors, ValidationError{
			Field:   field + ".network",
			Message: "account network cannot be empty",
		})
	}

	if account.Threshold != nil && *account.Threshold <= 0 {
		errors = append(errors, ValidationError{
			Field:   field + ".threshold",
			Message: "threshold must be positive",
		})
	}

	return errors
}
