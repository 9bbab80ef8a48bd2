package validation

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/hyperledger/web3j-cli-sub000/pkg/config"
	"github.com/hyperledger/web3j-cli-sub000/pkg/faucet"
	"github.com/hyperledger/web3j-cli-sub000/pkg/logger"
)

var (
	mapValidators = map[faucet.Module]ModuleValidator{
		faucet.Cosmos: NewCosmosValidator(),
		faucet.EVM:    NewEthereumValidator(),
	}

	scheduleParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
)

// ValidationError represents a validation error with a specific field and message
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors holds multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var errMsgs []string
	for _, err := range e {
		errMsgs = append(errMsgs, err.Error())
	}
	return strings.Join(errMsgs, "; ")
}

// ModuleValidator checks the parts of a configuration that depend on the
// network's chain family.
type ModuleValidator interface {
	ValidateNetwork(network faucet.Network) ValidationErrors
	ValidateAddress(field, address string, network faucet.Network) ValidationErrors
}

// ValidateAddress checks a wallet address against the format of network.
func ValidateAddress(address string, network faucet.Network) error {
	validator, exists := mapValidators[network.Module]
	if !exists {
		return ValidationError{Field: "network", Message: fmt.Sprintf("unsupported module type: %s", network.Module)}
	}
	if errs := validator.ValidateAddress("address", address, network); len(errs) > 0 {
		return errs
	}
	return nil
}

// ConfigValidator handles validation of the entire configuration
type ConfigValidator struct {
	validators map[faucet.Module]ModuleValidator
}

// NewConfigValidator creates a new ConfigValidator with registered module validators
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{
		validators: mapValidators,
	}
}

// ValidateConfig validates the entire configuration schema
func (v *ConfigValidator) ValidateConfig(cfg *config.Schema) error {
	var allErrors ValidationErrors

	allErrors = append(allErrors, v.validateGlobal(&cfg.Global)...)
	allErrors = append(allErrors, v.validateFaucet(&cfg.Faucet)...)
	allErrors = append(allErrors, v.validateSolver(&cfg.Solver)...)

	registry := faucet.RegistryFromConfig(cfg)
	for _, network := range registry.List() {
		allErrors = append(allErrors, v.validateNetwork(network)...)
	}

	if cfg.Watch != nil {
		allErrors = append(allErrors, v.validateWatch(cfg.Watch, registry)...)
	}

	if cfg.DevFaucet != nil {
		allErrors = append(allErrors, v.validateDevFaucet(cfg.DevFaucet)...)
	}

	if len(allErrors) > 0 {
		return allErrors
	}
	return nil
}

// validateGlobal validates the global configuration
func (v *ConfigValidator) validateGlobal(global *config.Global) ValidationErrors {
	var errors ValidationErrors
	logger.Debugf("validating global config: %+v", global)

	if global.MetricsAddr == "" {
		errors = append(errors, ValidationError{
			Field:   "global.metricsAddr",
			Message: "cannot be empty",
		})
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(global.LogLevel)] {
		errors = append(errors, ValidationError{
			Field:   "global.logLevel",
			Message: "must be one of: debug, info, warn, error",
		})
	}

	if global.LogFormat != "console" && global.LogFormat != "zap" {
		errors = append(errors, ValidationError{
			Field:   "global.logFormat",
			Message: "must be one of: console, zap",
		})
	}

	return errors
}

func (v *ConfigValidator) validateFaucet(f *config.Faucet) ValidationErrors {
	var errors ValidationErrors

	if f.Timeout <= 0 {
		errors = append(errors, ValidationError{Field: "faucet.timeout", Message: "must be positive"})
	}
	if f.MaxRetries < 0 {
		errors = append(errors, ValidationError{Field: "faucet.maxRetries", Message: "cannot be negative"})
	}
	if strings.ContainsAny(f.ChallengeAmount, "/?#") {
		errors = append(errors, ValidationError{Field: "faucet.challengeAmount", Message: "must be a single path segment"})
	}

	return errors
}

func (v *ConfigValidator) validateSolver(s *config.Solver) ValidationErrors {
	var errors ValidationErrors

	if s.Workers < 0 {
		errors = append(errors, ValidationError{Field: "solver.workers", Message: "cannot be negative"})
	}
	if s.MaxAttempts == 0 {
		errors = append(errors, ValidationError{Field: "solver.maxAttempts", Message: "must be positive"})
	}
	if s.Timeout < 0 {
		errors = append(errors, ValidationError{Field: "solver.timeout", Message: "cannot be negative"})
	}
	if s.DigestOffset != nil && (*s.DigestOffset < 0 || *s.DigestOffset >= 64) {
		errors = append(errors, ValidationError{Field: "solver.digestOffset", Message: "must be between 0 and 63"})
	}

	return errors
}

func (v *ConfigValidator) validateNetwork(network faucet.Network) ValidationErrors {
	var errors ValidationErrors
	field := fmt.Sprintf("networks[%s]", network.Name)

	validator, exists := v.validators[network.Module]
	if !exists {
		return append(errors, ValidationError{
			Field:   field + ".module",
			Message: fmt.Sprintf("unsupported module type: %s", network.Module),
		})
	}

	if network.BaseURL == "" {
		errors = append(errors, ValidationError{Field: field + ".faucetUrl", Message: "faucet URL cannot be empty"})
	} else if parsedURL, err := url.Parse(network.BaseURL); err != nil || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") || parsedURL.Host == "" {
		errors = append(errors, ValidationError{Field: field + ".faucetUrl", Message: "must be an absolute http or https URL"})
	}

	if network.ExplorerURL != "" && strings.Count(network.ExplorerURL, "%s") != 1 {
		errors = append(errors, ValidationError{Field: field + ".explorerUrl", Message: "must contain exactly one %s placeholder"})
	}

	return append(errors, validator.ValidateNetwork(network)...)
}

func (v *ConfigValidator) validateWatch(w *config.Watch, registry *faucet.Registry) ValidationErrors {
	var errors ValidationErrors

	if _, err := scheduleParser.Parse(w.Schedule); err != nil {
		errors = append(errors, ValidationError{Field: "watch.schedule", Message: fmt.Sprintf("invalid cron expression: %v", err)})
	}
	if w.Timeout <= 0 {
		errors = append(errors, ValidationError{Field: "watch.timeout", Message: "must be positive"})
	}
	if len(w.Accounts) == 0 {
		errors = append(errors, ValidationError{Field: "watch.accounts", Message: "at least one account must be specified"})
	}

	base := &BaseValidator{}
	for i, account := range w.Accounts {
		errors = append(errors, base.ValidateCommonFields(i, account)...)
		if account.Network == "" {
			continue
		}

		network, err := registry.Lookup(account.Network)
		if err != nil {
			errors = append(errors, ValidationError{Field: fmt.Sprintf("watch.accounts[%d].network", i), Message: err.Error()})
			continue
		}
		if network.RPCAddr == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("networks[%s].rpcAddr", network.Name),
				Message: "an RPC address is required to watch balances",
			})
		}
		if validator, ok := v.validators[network.Module]; ok {
			errors = append(errors, validator.ValidateAddress(fmt.Sprintf("watch.accounts[%d].address", i), account.Address, network)...)
		}
	}

	return errors
}

func (v *ConfigValidator) validateDevFaucet(d *config.DevFaucet) ValidationErrors {
	var errors ValidationErrors

	if d.ListenAddr == "" {
		errors = append(errors, ValidationError{Field: "devFaucet.listenAddr", Message: "cannot be empty"})
	}
	if d.DBPath == "" {
		errors = append(errors, ValidationError{Field: "devFaucet.dbPath", Message: "cannot be empty"})
	}
	if d.Difficulty < 0 || d.Difficulty > 62 {
		errors = append(errors, ValidationError{Field: "devFaucet.difficulty", Message: "must be between 0 and 62"})
	}
	for i, token := range d.Tokens {
		if token == "" || strings.ContainsAny(token, "/?#") {
			errors = append(errors, ValidationError{Field: fmt.Sprintf("devFaucet.tokens[%d]", i), Message: "must be a non-empty path segment"})
		}
	}

	return errors
}
