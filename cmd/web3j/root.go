package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperledger/web3j-cli-sub000/pkg/config"
	"github.com/hyperledger/web3j-cli-sub000/pkg/faucet"
	"github.com/hyperledger/web3j-cli-sub000/pkg/logger"
	"github.com/hyperledger/web3j-cli-sub000/pkg/pow"
	"github.com/hyperledger/web3j-cli-sub000/pkg/validation"
)

// cli holds the state shared by every subcommand once the root command has
// loaded the configuration.
type cli struct {
	cfgPath  string
	logLevel string

	cfg      *config.Schema
	networks *faucet.Registry

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	c := &cli{in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "web3j",
		Short: "Web3j command line tools",
		Long: `Web3j command line tools for working with Ethereum testnets.

Wallets are funded from the network faucet, which protects itself with a
proof of work challenge unless a faucet token is supplied.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&c.cfgPath, "config", "", "path to the config file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(newWalletCmd(c))
	root.AddCommand(newFaucetCmd(c))
	root.AddCommand(newVersionCmd(c))
	return root
}

func (c *cli) setup() error {
	cfg, err := config.Load(c.cfgPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Global.LogLevel = c.logLevel
	}

	if err := validation.NewConfigValidator().ValidateConfig(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	l, err := logger.NewLogger(cfg.Global.LogFormat, cfg.Global.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	logger.SetLogger(l)

	c.cfg = cfg
	c.networks = faucet.RegistryFromConfig(cfg)
	logger.Debugf("Configuration loaded (networks: %v)", c.networks.Names())
	return nil
}

func (c *cli) newSolver() *pow.Solver {
	s := c.cfg.Solver
	return pow.NewSolver(
		pow.WithWorkers(s.Workers),
		pow.WithMaxAttempts(s.MaxAttempts),
		pow.WithTimeout(time.Duration(s.Timeout)*time.Second),
		pow.WithDigestOffset(*s.DigestOffset),
	)
}

// newFaucetClient builds a client from the faucet and solver settings. A nil
// progress writer disables the spinner.
func (c *cli) newFaucetClient(progress io.Writer, observer faucet.Observer) *faucet.Client {
	opts := []faucet.ClientOption{
		faucet.WithSolver(c.newSolver()),
		faucet.WithChallengeAmount(c.cfg.Faucet.ChallengeAmount),
		faucet.WithObserver(observer),
	}
	if progress != nil {
		opts = append(opts, faucet.WithProgress(progress))
	}
	return faucet.NewClient(time.Duration(c.cfg.Faucet.Timeout)*time.Second, opts...)
}

// zapLogger exposes the process logger to middleware that wants zap directly.
func zapLogger() *zap.Logger {
	if zl, ok := logger.GetLogger().(*logger.ZapLogger); ok {
		return zl.Logger
	}
	return zap.NewNop()
}

// isTerminal reports whether w is an interactive console.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
