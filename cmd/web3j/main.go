package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hyperledger/web3j-cli-sub000/pkg/faucet"
	"github.com/hyperledger/web3j-cli-sub000/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	_ = logger.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

// describe turns err into the one line diagnostic printed on failure.
func describe(err error) string {
	var netErr *faucet.NetworkError
	switch {
	case errors.Is(err, faucet.ErrUserCancelled):
		return "Operation was cancelled by user."
	case errors.Is(err, faucet.ErrSolverTimeout):
		return fmt.Sprintf("The fund operation failed: %v. Try again later or use a token.", err)
	case errors.As(err, &netErr):
		return fmt.Sprintf("The fund operation failed: %v, this may be due to an issue with the remote server. Please try again.", err)
	case errors.Is(err, context.Canceled):
		return "Interrupted."
	}
	return fmt.Sprintf("Error: %v", err)
}
