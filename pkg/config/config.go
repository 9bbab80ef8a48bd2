package config

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultLogLevel        = "warn"
	DefaultLogFormat       = "console"
	DefaultMetricsAddr     = ":2112"
	DefaultFaucetTimeout   = 30  // seconds, applied to every faucet call
	DefaultSolverTimeout   = 600 // seconds
	DefaultDigestOffset    = 2
	DefaultMaxRetries      = 3
	DefaultWatchSchedule   = "@every 30m"
	DefaultWatchTimeout    = 900 // seconds per account, solving included
	DefaultDevListenAddr   = ":8000"
	DefaultDevDBPath       = "devfaucet.db"
	DefaultDevDifficulty   = 4
	DefaultGrantAmount     = "0.2"
	DefaultChallengeAmount = "0.2"
)

type Schema struct {
	Global    Global     `yaml:"global"`
	Faucet    Faucet     `yaml:"faucet"`
	Solver    Solver     `yaml:"solver"`
	Networks  []*Network `yaml:"networks"`
	Watch     *Watch     `yaml:"watch"`
	DevFaucet *DevFaucet `yaml:"devFaucet"`
}

type Global struct {
	LogLevel    string `yaml:"logLevel"`
	LogFormat   string `yaml:"logFormat"` // "console" or "zap" (JSON)
	MetricsAddr string `yaml:"metricsAddr"`
}

// Faucet configures the funding client.
type Faucet struct {
	Timeout         int    `yaml:"timeout"` // seconds
	ChallengeAmount string `yaml:"challengeAmount"`
	MaxRetries      int    `yaml:"maxRetries"`
	Token           string `yaml:"token"`
	TokenEnv        string `yaml:"tokenEnv"`
}

// Solver bounds the proof-of-work search.
type Solver struct {
	Workers      int    `yaml:"workers"` // 0 means one per CPU
	MaxAttempts  uint64 `yaml:"maxAttempts"`
	Timeout      int    `yaml:"timeout"` // seconds
	DigestOffset *int   `yaml:"digestOffset"`
}

// Network overrides a built-in faucet network or declares a new one.
type Network struct {
	Name         string `yaml:"name"`
	DisplayName  string `yaml:"displayName"`
	FaucetURL    string `yaml:"faucetUrl"`
	FaucetURLEnv string `yaml:"faucetUrlEnv"`
	ExplorerURL  string `yaml:"explorerUrl"`
	Module       string `yaml:"module"`
	RPCAddr      string `yaml:"rpcAddr"`
	RPCAddrEnv   string `yaml:"rpcAddrEnv"`
	Denom        string `yaml:"denom"`
	DisplayUnit  string `yaml:"displayUnit"`
	Decimals     *int   `yaml:"decimals"`
	HRP          string `yaml:"hrp"`
}

// Watch configures the auto-funding scheduler.
type Watch struct {
	Schedule string     `yaml:"schedule"` // cron expression, seconds field optional
	Timeout  int        `yaml:"timeout"`  // seconds per account
	Accounts []*Account `yaml:"accounts"`
}

type Account struct {
	Name       string `yaml:"name"`
	Address    string `yaml:"address"`
	AddressEnv string `yaml:"addressEnv"`
	Network    string `yaml:"network"`
	// Threshold is expressed in the network's display unit; the account is
	// funded when its balance falls below it.
	Threshold *float64 `yaml:"threshold"`
}

// DevFaucet configures the local faucet served by "faucet serve".
type DevFaucet struct {
	ListenAddr  string   `yaml:"listenAddr"`
	DBPath      string   `yaml:"dbPath"`
	Difficulty  int      `yaml:"difficulty"`
	GrantAmount string   `yaml:"grantAmount"`
	Tokens      []string `yaml:"tokens"`
	TokensEnv   string   `yaml:"tokensEnv"` // comma separated
}

// Default returns the configuration used when no file is supplied.
func Default() *Schema {
	cfg := &Schema{}
	_ = cfg.Normalize()
	return cfg
}

func (s *Schema) Normalize() error {
	s.Global.Normalize()
	s.Faucet.Normalize()
	s.Solver.Normalize()

	for _, network := range s.Networks {
		if err := network.Normalize(); err != nil {
			return fmt.Errorf("failed to normalize network %s: %w", network.Name, err)
		}
	}

	if s.Watch != nil {
		if err := s.Watch.Normalize(); err != nil {
			return fmt.Errorf("failed to normalize watch config: %w", err)
		}
	}

	if s.DevFaucet != nil {
		s.DevFaucet.Normalize()
	}
	return nil
}

func (g *Global) Normalize() {
	if g.LogLevel == "" {
		g.LogLevel = DefaultLogLevel
	}
	if g.LogFormat == "" {
		g.LogFormat = DefaultLogFormat
	}
	if g.MetricsAddr == "" {
		g.MetricsAddr = DefaultMetricsAddr
	}
}

func (f *Faucet) Normalize() {
	if f.Timeout == 0 {
		f.Timeout = DefaultFaucetTimeout
	}
	if f.ChallengeAmount == "" {
		f.ChallengeAmount = DefaultChallengeAmount
	}
	if f.MaxRetries == 0 {
		f.MaxRetries = DefaultMaxRetries
	}
	if f.TokenEnv != "" {
		if envValue := os.Getenv(f.TokenEnv); envValue != "" {
			f.Token = envValue
		}
	}
}

func (s *Solver) Normalize() {
	if s.MaxAttempts == 0 {
		s.MaxAttempts = math.MaxInt32
	}
	if s.Timeout == 0 {
		s.Timeout = DefaultSolverTimeout
	}
	if s.DigestOffset == nil {
		offset := DefaultDigestOffset
		s.DigestOffset = &offset
	}
}

func (n *Network) Normalize() error {
	n.Name = strings.ToLower(strings.TrimSpace(n.Name))
	if n.FaucetURLEnv != "" {
		if envValue := os.Getenv(n.FaucetURLEnv); envValue != "" {
			n.FaucetURL = envValue
		}
	}
	if n.RPCAddrEnv != "" {
		if envValue := os.Getenv(n.RPCAddrEnv); envValue != "" {
			n.RPCAddr = envValue
		}
	}
	n.FaucetURL = strings.TrimRight(n.FaucetURL, "/")
	return nil
}

func (w *Watch) Normalize() error {
	if w.Schedule == "" {
		w.Schedule = DefaultWatchSchedule
	}
	if w.Timeout == 0 {
		w.Timeout = DefaultWatchTimeout
	}
	for _, acc := range w.Accounts {
		if err := acc.Normalize(); err != nil {
			return fmt.Errorf("failed to normalize account %s: %w", acc.Name, err)
		}
	}
	return nil
}

func (a *Account) Normalize() error {
	if a.AddressEnv != "" {
		if envValue := os.Getenv(a.AddressEnv); envValue != "" {
			a.Address = envValue
		}
	}
	a.Network = strings.ToLower(strings.TrimSpace(a.Network))
	return nil
}

func (d *DevFaucet) Normalize() {
	if d.ListenAddr == "" {
		d.ListenAddr = DefaultDevListenAddr
	}
	if d.DBPath == "" {
		d.DBPath = DefaultDevDBPath
	}
	if d.Difficulty == 0 {
		d.Difficulty = DefaultDevDifficulty
	}
	if d.GrantAmount == "" {
		d.GrantAmount = DefaultGrantAmount
	}
	if d.TokensEnv != "" {
		if envValue := os.Getenv(d.TokensEnv); envValue != "" {
			for _, token := range strings.Split(envValue, ",") {
				if token = strings.TrimSpace(token); token != "" {
					d.Tokens = append(d.Tokens, token)
				}
			}
		}
	}
}

// FindNetwork returns the configured override for a network, if any.
func (s *Schema) FindNetwork(name string) *Network {
	name = strings.ToLower(name)
	for _, network := range s.Networks {
		if network.Name == name {
			return network
		}
	}
	return nil
}

func ReadConfigWithError(r io.Reader) (*Schema, error) {
	config := &Schema{}
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(config); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := config.Normalize(); err != nil {
		return nil, fmt.Errorf("failed to normalize config: %w", err)
	}
	return config, nil
}

// Load reads the config at path; an empty path yields Default().
func Load(path string) (*Schema, error) {
	if path == "" {
		return Default(), nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()
	return ReadConfigWithError(file)
}
