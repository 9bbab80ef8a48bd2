package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/hyperledger/web3j-cli-sub000/pkg/balance"
	"github.com/hyperledger/web3j-cli-sub000/pkg/currency"
	"github.com/hyperledger/web3j-cli-sub000/pkg/faucet"
	"github.com/hyperledger/web3j-cli-sub000/pkg/logger"
	"github.com/hyperledger/web3j-cli-sub000/pkg/metrics"
	"github.com/hyperledger/web3j-cli-sub000/pkg/scheduler"
	"github.com/hyperledger/web3j-cli-sub000/pkg/validation"

	httpfiber "github.com/hyperledger/web3j-cli-sub000/pkg/server/http"
)

const defaultWaitTimeout = 5 * time.Minute

func newWalletCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Wallet operations",
	}
	cmd.AddCommand(newFundCmd(c))
	cmd.AddCommand(newWatchCmd(c))
	return cmd
}

type fundOptions struct {
	token       string
	yes         bool
	quiet       bool
	wait        bool
	waitTimeout time.Duration
}

func newFundCmd(c *cli) *cobra.Command {
	opts := &fundOptions{}
	cmd := &cobra.Command{
		Use:   "fund <network> <destination-address>",
		Short: "Request testnet Ether from the network faucet",
		Long: `Request testnet Ether for a wallet from the network faucet.

Without a token the faucet issues a proof of work challenge which is solved
locally before the request is submitted.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFund(cmd.Context(), args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.token, "token", "t", "", "faucet token, skips the proof of work")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "do not ask for confirmation")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not render progress")
	cmd.Flags().BoolVar(&opts.wait, "wait", false, "wait for the wallet balance to change")
	cmd.Flags().DurationVar(&opts.waitTimeout, "wait-timeout", defaultWaitTimeout, "how long --wait waits for the balance")
	return cmd
}

func (c *cli) runFund(ctx context.Context, networkName, address string, opts *fundOptions) error {
	network, err := c.networks.Lookup(networkName)
	if err != nil {
		return err
	}
	if err := validation.ValidateAddress(address, network); err != nil {
		return err
	}

	if !opts.yes {
		if err := confirm(c.in, c.out, network); err != nil {
			return err
		}
	}

	token := opts.token
	if token == "" {
		token = c.cfg.Faucet.Token
	}

	var reader balance.Reader
	var before *big.Int
	if opts.wait {
		reader, err = balance.NewReader(network, balance.DefaultTimeout)
		if err != nil {
			return fmt.Errorf("cannot wait for balance: %w", err)
		}
		defer reader.Close()

		before, err = reader.Balance(ctx, address)
		if err != nil {
			return fmt.Errorf("failed to read balance of %s: %w", address, err)
		}
	}

	var progress io.Writer
	if !opts.quiet && isTerminal(c.out) {
		progress = c.out
	}

	fmt.Fprintln(c.out, "Sending funding request...")
	result, err := c.newFaucetClient(progress, nil).Fund(ctx, address, network, token)
	if err != nil {
		return err
	}

	if result.ExplorerLink != "" {
		fmt.Fprintf(c.out, "Your wallet was successfully funded. You can view the associated transaction here, after it has been mined: %s\n", result.ExplorerLink)
	} else {
		fmt.Fprintf(c.out, "Your wallet was successfully funded. Transaction hash: %s\n", result.TransactionHash)
	}

	if reader == nil {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, opts.waitTimeout)
	defer cancel()

	fmt.Fprintln(c.out, "Waiting for the transaction to be mined...")
	after, err := balance.WaitForChange(waitCtx, reader, address, before, balance.DefaultPollInterval)
	if err != nil {
		return err
	}
	display, err := balance.ToDisplay(currency.NewDefaultRegistry(), network, after)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "New balance: %g %s\n", display, network.DisplayUnit)
	return nil
}

// confirm asks before spending the faucet's funds. An empty answer accepts.
func confirm(in io.Reader, out io.Writer, network faucet.Network) error {
	fmt.Fprintf(out, "This command will fund the specified wallet on the %s testnet. Do you wish to continue? [Y/n]: ", network.DisplayName)

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if strings.EqualFold(strings.TrimSpace(answer), "n") {
		return faucet.ErrUserCancelled
	}
	return nil
}

func newWatchCmd(c *cli) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the configured accounts funded",
		Long: `Check the balance of every account listed under "watch" on its schedule and
request funds from the faucet when it falls below the account threshold.
Metrics and readiness are served on global.metricsAddr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runWatch(cmd.Context(), once)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "check every account once and exit")
	return cmd
}

func newBalanceReader(network faucet.Network) (scheduler.BalanceReader, error) {
	return balance.NewReader(network, balance.DefaultTimeout)
}

func (c *cli) runWatch(ctx context.Context, once bool) error {
	promRegistry := prometheus.NewRegistry()
	m := metrics.New(promRegistry)

	manager, err := scheduler.NewSchedulerManager(c.cfg, c.newFaucetClient(nil, m), newBalanceReader, currency.NewDefaultRegistry(), m)
	if err != nil {
		return fmt.Errorf("failed to create scheduler manager: %w", err)
	}

	if once {
		events, err := manager.RunOnce(ctx)
		printEvents(c.out, events)
		if err != nil {
			return err
		}
		for _, event := range events {
			if event.Error != nil {
				return fmt.Errorf("one or more accounts could not be checked")
			}
		}
		return nil
	}

	if err := manager.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler manager: %w", err)
	}

	server := httpfiber.NewServer(c.cfg.Global.MetricsAddr,
		httpfiber.WithRegistry(promRegistry),
		httpfiber.WithReadiness(manager.Ready),
		httpfiber.WithRequestLogging(zapLogger()))

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Run()
	}()

	for _, info := range manager.GetSchedulerInfo() {
		logger.Infof("Watching %d account(s) on %s, next run at %s", info.AccountCount, info.Network, info.NextRun.Format(time.RFC3339))
	}

	select {
	case <-ctx.Done():
		logger.Infof("Shutting down...")
		err = nil
	case err = <-serveErr:
		err = fmt.Errorf("failed to run server: %w", err)
	}

	if stopErr := manager.Stop(); stopErr != nil {
		logger.Errorf("Failed to stop scheduler manager: %v", stopErr)
	}
	server.Stop()
	logger.Infof("Shutdown complete")
	return err
}

func printEvents(out io.Writer, events []*scheduler.RefundEvent) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NETWORK\tACCOUNT\tBALANCE\tTHRESHOLD\tRESULT")
	for _, e := range events {
		status := "ok"
		switch {
		case e.Error != nil:
			status = "error: " + e.Error.Error()
		case e.Funded && e.ExplorerLink != "":
			status = "funded " + e.ExplorerLink
		case e.Funded:
			status = "funded " + e.TransactionHash
		}
		fmt.Fprintf(tw, "%s\t%s\t%g %s\t%g %s\t%s\n", e.Network, e.AccountName, e.CurrentBalance, e.Unit, e.Threshold, e.Unit, status)
	}
	_ = tw.Flush()
}
