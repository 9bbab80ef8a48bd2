package faucet

import (
	"errors"
	"fmt"

	"github.com/hyperledger/web3j-cli-sub000/pkg/pow"
)

var (
	ErrInvalidNetwork = errors.New("invalid network")
	ErrUserCancelled  = errors.New("operation was cancelled by user")
	ErrSolverTimeout  = pow.ErrTimeout
)

// RemoteError reports a non-200 answer from the faucet.
type RemoteError struct {
	Op         string
	URL        string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: an HTTP request failed with code: %d", e.Op, e.StatusCode)
}

// Temporary reports whether retrying with a fresh challenge may succeed.
func (e *RemoteError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// NetworkError reports a connection level failure talking to the faucet.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// DeserializationError reports a faucet response that is not the expected JSON.
type DeserializationError struct {
	Op   string
	Body string
	Err  error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("%s: malformed faucet response: %v", e.Op, e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether FundWithRetry should try again after err.
func IsRetryable(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Temporary()
	}
	return false
}
