package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/hyperledger/web3j-cli-sub000/pkg/config"
	"github.com/hyperledger/web3j-cli-sub000/pkg/devfaucet"
	"github.com/hyperledger/web3j-cli-sub000/pkg/logger"
	"github.com/hyperledger/web3j-cli-sub000/pkg/metrics"
	"github.com/hyperledger/web3j-cli-sub000/pkg/validation"

	httpfiber "github.com/hyperledger/web3j-cli-sub000/pkg/server/http"
)

func newFaucetCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "faucet",
		Short: "Local development faucet",
	}
	cmd.AddCommand(newServeCmd(c))
	return cmd
}

type serveOptions struct {
	listen     string
	dbPath     string
	difficulty int
	tokens     []string
}

func newServeCmd(c *cli) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the faucet protocol for the local network",
		Long: `Serve the seed/send faucet protocol on the listen address so that
"web3j wallet fund local" works without a public testnet. Grants are recorded
in a local database and answered with a synthetic transaction hash.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.listen, "listen", "", "listen address (default "+config.DefaultDevListenAddr+")")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "database path (default "+config.DefaultDevDBPath+")")
	cmd.Flags().IntVar(&opts.difficulty, "difficulty", 0, "proof of work difficulty issued with every seed")
	cmd.Flags().StringSliceVar(&opts.tokens, "token", nil, "accepted faucet token, may be repeated")
	return cmd
}

func (c *cli) runServe(ctx context.Context, opts *serveOptions) error {
	devCfg := c.cfg.DevFaucet
	if devCfg == nil {
		devCfg = &config.DevFaucet{}
	}
	if opts.listen != "" {
		devCfg.ListenAddr = opts.listen
	}
	if opts.dbPath != "" {
		devCfg.DBPath = opts.dbPath
	}
	if opts.difficulty != 0 {
		devCfg.Difficulty = opts.difficulty
	}
	devCfg.Tokens = append(devCfg.Tokens, opts.tokens...)
	devCfg.Normalize()

	c.cfg.DevFaucet = devCfg
	if err := validation.NewConfigValidator().ValidateConfig(c.cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	store, err := devfaucet.OpenStore(devCfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	promRegistry := prometheus.NewRegistry()
	m := metrics.New(promRegistry)

	faucetServer := devfaucet.New(devCfg, store,
		devfaucet.WithObserver(m),
		devfaucet.WithDigestOffset(*c.cfg.Solver.DigestOffset),
		devfaucet.WithRequestLogging(zapLogger()))
	metricsServer := httpfiber.NewServer(c.cfg.Global.MetricsAddr, httpfiber.WithRegistry(promRegistry))

	serveErr := make(chan error, 2)
	go func() {
		serveErr <- faucetServer.Listen()
	}()
	go func() {
		serveErr <- metricsServer.Run()
	}()

	fmt.Fprintf(c.out, "Faucet listening on %s (difficulty %d), metrics on %s\n", devCfg.ListenAddr, devCfg.Difficulty, c.cfg.Global.MetricsAddr)

	select {
	case <-ctx.Done():
		logger.Infof("Shutting down...")
		err = nil
	case err = <-serveErr:
		err = fmt.Errorf("failed to serve: %w", err)
	}

	if shutdownErr := faucetServer.Shutdown(); shutdownErr != nil {
		logger.Debugf("faucet shutdown: %v", shutdownErr)
	}
	metricsServer.Stop()
	return err
}
