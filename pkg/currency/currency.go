package currency

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"sync"
)

// Unit is a denomination a balance or faucet grant can be expressed in.
type Unit struct {
	Name        string
	Symbol      string
	Decimals    int
	ChainType   string // "evm" or "cosmos"
	Description string
	// Base is the name of the atomic unit this unit is scaled from; empty for atomic units.
	Base string
}

// Registry keeps the known units keyed by upper-cased name.
type Registry struct {
	mu    sync.RWMutex
	units map[string]*Unit
}

var (
	DefaultETH = &Unit{
		Name:        "ETH",
		Symbol:      "ETH",
		Decimals:    18,
		ChainType:   "evm",
		Description: "Ether",
		Base:        "WEI",
	}

	DefaultGWEI = &Unit{
		Name:        "GWEI",
		Symbol:      "GWEI",
		Decimals:    9,
		ChainType:   "evm",
		Description: "Gigawei",
		Base:        "WEI",
	}

	DefaultWEI = &Unit{
		Name:        "WEI",
		Symbol:      "WEI",
		Decimals:    0,
		ChainType:   "evm",
		Description: "Wei (smallest Ethereum unit)",
	}
)

func NewRegistry() *Registry {
	return &Registry{
		units: make(map[string]*Unit),
	}
}

func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(DefaultETH)
	r.MustRegister(DefaultGWEI)
	r.MustRegister(DefaultWEI)
	return r
}

// Register adds a new unit to the registry
func (r *Registry) Register(unit *Unit) (*Unit, error) {
	if unit.Name == "" {
		return nil, fmt.Errorf("currency unit name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	normalizedName := strings.ToUpper(unit.Name)
	if _, exists := r.units[normalizedName]; exists {
		return nil, fmt.Errorf("currency unit %s already registered", normalizedName)
	}

	r.units[normalizedName] = unit
	return unit, nil
}

// MustRegister is like Register but panics on error
func (r *Registry) MustRegister(unit *Unit) *Unit {
	u, err := r.Register(unit)
	if err != nil {
		panic(err)
	}
	return u
}

func (r *Registry) Get(name string) (*Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	unit, exists := r.units[strings.ToUpper(name)]
	if !exists {
		return nil, fmt.Errorf("currency unit %s not found", name)
	}
	return unit, nil
}

// MustGet is like Get but panics on error
func (r *Registry) MustGet(name string) *Unit {
	unit, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return unit
}

func (r *Registry) List() []*Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	units := make([]*Unit, 0, len(r.units))
	for _, unit := range r.units {
		units = append(units, unit)
	}
	return units
}

// atomicName returns the atomic unit a unit is denominated in.
func (u *Unit) atomicName() string {
	if u.Base == "" {
		return strings.ToUpper(u.Name)
	}
	return strings.ToUpper(u.Base)
}

// Convert converts an amount between two units sharing the same atomic unit.
func (r *Registry) Convert(amount float64, from, to string) (float64, error) {
	fromUnit, err := r.Get(from)
	if err != nil {
		return 0, err
	}
	toUnit, err := r.Get(to)
	if err != nil {
		return 0, err
	}

	if strings.EqualFold(from, to) {
		return amount, nil
	}

	if fromUnit.atomicName() != toUnit.atomicName() {
		return 0, fmt.Errorf("no conversion rate found from %s to %s", from, to)
	}

	return amount * math.Pow10(fromUnit.Decimals-toUnit.Decimals), nil
}

// FromAtomic renders an on-chain integer amount in the given display unit.
func (r *Registry) FromAtomic(amount *big.Int, to string) (float64, error) {
	unit, err := r.Get(to)
	if err != nil {
		return 0, err
	}
	value := new(big.Float).SetInt(amount)
	if value.IsInf() {
		return 0, fmt.Errorf("amount %s too large for float64 representation", amount.String())
	}
	if unit.Decimals > 0 {
		scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(unit.Decimals)), nil))
		value.Quo(value, scale)
	}
	f, _ := value.Float64()
	return f, nil
}

// EnsureUnitPair registers an atomic denomination and its display unit, e.g.
// "uatom"/"atom" with 6 decimals. Calling it again is a no-op.
func (r *Registry) EnsureUnitPair(baseUnitName, displayUnitName string, decimals int, chainType string) error {
	baseUnitName = strings.ToUpper(strings.TrimSpace(baseUnitName))
	displayUnitName = strings.ToUpper(strings.TrimSpace(displayUnitName))

	if baseUnitName == "" {
		return fmt.Errorf("base unit name cannot be empty")
	}

	if _, err := r.Get(baseUnitName); err != nil {
		if _, err := r.Register(&Unit{
			Name:        baseUnitName,
			Symbol:      strings.ToLower(baseUnitName),
			ChainType:   chainType,
			Description: fmt.Sprintf("%s unit", strings.ToLower(baseUnitName)),
		}); err != nil {
			return fmt.Errorf("failed to register base unit %s: %w", baseUnitName, err)
		}
	}

	if displayUnitName == "" || displayUnitName == baseUnitName {
		return nil
	}

	if existing, err := r.Get(displayUnitName); err == nil {
		if existing.atomicName() != baseUnitName || existing.Decimals != decimals {
			return fmt.Errorf("display unit %s already registered with a different base", displayUnitName)
		}
		return nil
	}

	_, err := r.Register(&Unit{
		Name:        displayUnitName,
		Symbol:      displayUnitName,
		Decimals:    decimals,
		ChainType:   chainType,
		Description: fmt.Sprintf("%s unit", strings.ToLower(displayUnitName)),
		Base:        baseUnitName,
	})
	if err != nil {
		return fmt.Errorf("failed to register display unit %s: %w", displayUnitName, err)
	}
	return nil
}

func (u *Unit) String() string {
	return u.Symbol
}
