package faucet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hyperledger/web3j-cli-sub000/pkg/logger"
	"github.com/hyperledger/web3j-cli-sub000/pkg/pow"
	"github.com/hyperledger/web3j-cli-sub000/pkg/progress"
	"github.com/hyperledger/web3j-cli-sub000/pkg/version"
)

const (
	DefaultTimeout         = 30 * time.Second
	DefaultChallengeAmount = "0.2"
	DefaultMaxRetries      = 3

	MethodProofOfWork = "pow"
	MethodToken       = "token"

	opChallenge = "fetch challenge"
	opSubmit    = "submit solution"
	opToken     = "submit token"
)

// Client funds testnet wallets through a faucet's HTTP API.
type Client struct {
	httpClient      *http.Client
	timeout         time.Duration
	solver          Solver
	progress        io.Writer
	observer        Observer
	challengeAmount string
}

type ClientOption func(*Client)

// WithHTTPClient replaces the transport. Its Timeout is overwritten so that
// every faucet call shares the same bound.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithSolver(s Solver) ClientOption {
	return func(c *Client) {
		if s != nil {
			c.solver = s
		}
	}
}

// WithProgress renders a spinner on w while the proof of work runs.
func WithProgress(w io.Writer) ClientOption {
	return func(c *Client) {
		c.progress = w
	}
}

func WithObserver(o Observer) ClientOption {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

func WithChallengeAmount(amount string) ClientOption {
	return func(c *Client) {
		if amount != "" {
			c.challengeAmount = amount
		}
	}
}

// LoggingContext provides context information for enhanced logging
type LoggingContext struct {
	Network string
	Account string
}

func (lc *LoggingContext) logPrefix() string {
	switch {
	case lc == nil || lc.Network == "":
		return "[faucet]"
	case lc.Account != "":
		return fmt.Sprintf("[faucet %s/%s]", lc.Network, lc.Account)
	default:
		return fmt.Sprintf("[faucet %s]", lc.Network)
	}
}

type loggingContextKey struct{}

// WithLoggingContext attaches lc to ctx so that log lines of a funding run
// carry the account name.
func WithLoggingContext(ctx context.Context, lc *LoggingContext) context.Context {
	return context.WithValue(ctx, loggingContextKey{}, lc)
}

func loggingContextFrom(ctx context.Context, network Network) *LoggingContext {
	if lc, ok := ctx.Value(loggingContextKey{}).(*LoggingContext); ok && lc != nil {
		merged := *lc
		if merged.Network == "" {
			merged.Network = network.Name
		}
		return &merged
	}
	return &LoggingContext{Network: network.Name}
}

// Result describes a successful funding request.
type Result struct {
	Address         string
	Network         string
	Method          string
	TransactionHash string
	ExplorerLink    string
	Challenge       *pow.Challenge
	Nonce           uint64
	Attempts        uint64
	SolveDuration   time.Duration
	Duration        time.Duration
}

// NewClient creates a new faucet client. A zero timeout selects DefaultTimeout.
func NewClient(timeout time.Duration, opts ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		httpClient:      &http.Client{},
		timeout:         timeout,
		solver:          pow.NewSolver(),
		observer:        nopObserver{},
		challengeAmount: DefaultChallengeAmount,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient.Timeout = timeout
	return c
}

// Fund requests testnet Ether for address. With a token the proof of work is
// skipped and the token is presented instead.
func (c *Client) Fund(ctx context.Context, address string, network Network, token string) (*Result, error) {
	startTime := time.Now()
	prefix := loggingContextFrom(ctx, network).logPrefix() + " "

	result := &Result{
		Address: address,
		Network: network.Name,
		Method:  MethodProofOfWork,
	}
	if token != "" {
		result.Method = MethodToken
	}

	err := c.fund(ctx, prefix, address, network, token, result)
	result.Duration = time.Since(startTime)
	c.observer.ObserveFunding(network.Name, result.Method, result.Duration, err)
	if err != nil {
		return result, err
	}

	result.ExplorerLink = network.ExplorerLink(result.TransactionHash)
	logger.Infof("%sFunded %s with tx %s via %s in %v", prefix, address, result.TransactionHash, result.Method, result.Duration)
	return result, nil
}

func (c *Client) fund(ctx context.Context, prefix, address string, network Network, token string, result *Result) error {
	if network.BaseURL == "" {
		return fmt.Errorf("%w: %q has no faucet URL", ErrInvalidNetwork, network.Name)
	}

	if token != "" {
		logger.Infof("%sRequesting funds for %s with a token", prefix, address)
		hash, err := c.submitToken(ctx, network, address, token)
		if err != nil {
			return err
		}
		result.TransactionHash = hash
		return nil
	}

	logger.Infof("%sRequesting funds for %s", prefix, address)
	ch, err := c.fetchChallenge(ctx, network)
	if err != nil {
		return err
	}
	result.Challenge = ch
	logger.Debugf("%sReceived challenge seed %s difficulty %d", prefix, ch.Seed, ch.Difficulty)

	solved, err := c.solve(ctx, network, *ch)
	if solved != nil {
		result.Attempts = solved.Attempts
		result.SolveDuration = solved.Duration
	}
	if err != nil {
		return fmt.Errorf("failed to solve proof of work: %w", err)
	}
	result.Nonce = solved.Nonce
	logger.Debugf("%sSolved challenge with nonce %d after %d attempts in %v", prefix, solved.Nonce, solved.Attempts, solved.Duration)

	hash, err := c.submitSolution(ctx, network, address, solved.Solution)
	if err != nil {
		return err
	}
	result.TransactionHash = hash
	return nil
}

func (c *Client) solve(ctx context.Context, network Network, ch pow.Challenge) (*pow.Result, error) {
	solveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if c.progress != nil {
		spinner := progress.NewSpinner(c.progress, progress.DefaultMessage, progress.DefaultInterval)
		spinner.Start(solveCtx)
		defer spinner.Stop()
	}

	res, err := c.solver.Solve(solveCtx, ch)
	var attempts uint64
	var took time.Duration
	if res != nil {
		attempts, took = res.Attempts, res.Duration
	}
	c.observer.ObserveSolve(network.Name, attempts, took, err)
	return res, err
}

// fetchChallenge requests a proof-of-work challenge from the faucet
func (c *Client) fetchChallenge(ctx context.Context, network Network) (*pow.Challenge, error) {
	endpoint := fmt.Sprintf("%s/seed/%s", network.BaseURL, url.PathEscape(c.challengeAmount))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	body, err := c.do(req, network, opChallenge)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Seed       *string `json:"seed"`
		Difficulty *int    `json:"difficulty"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &DeserializationError{Op: opChallenge, Body: string(body), Err: err}
	}
	if resp.Seed == nil || resp.Difficulty == nil {
		return nil, &DeserializationError{Op: opChallenge, Body: string(body), Err: errors.New("missing seed or difficulty")}
	}

	return &pow.Challenge{Seed: *resp.Seed, Difficulty: *resp.Difficulty}, nil
}

// submitSolution posts the solved challenge and returns the transaction hash
func (c *Client) submitSolution(ctx context.Context, network Network, address string, sol pow.Solution) (string, error) {
	endpoint := fmt.Sprintf("%s/send", network.BaseURL)
	return c.postForm(ctx, network, opSubmit, endpoint, [][2]string{
		{"address", address},
		{"seed", sol.Seed},
		{"nonce", strconv.FormatUint(sol.Nonce, 10)},
	})
}

// submitToken posts the address to the token endpoint and returns the transaction hash
func (c *Client) submitToken(ctx context.Context, network Network, address, token string) (string, error) {
	endpoint := fmt.Sprintf("%s/send/%s", network.BaseURL, url.PathEscape(token))
	return c.postForm(ctx, network, opToken, endpoint, [][2]string{
		{"address", address},
	})
}

func (c *Client) postForm(ctx context.Context, network Network, op, endpoint string, fields [][2]string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, field := range fields {
		if err := mw.WriteField(field[0], field[1]); err != nil {
			return "", fmt.Errorf("failed to encode %s: %w", field[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to encode form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do(req, network, op)
	if err != nil {
		return "", err
	}

	var resp struct {
		Result *string `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &DeserializationError{Op: op, Body: string(body), Err: err}
	}
	if resp.Result == nil {
		return "", &DeserializationError{Op: op, Body: string(body), Err: errors.New("missing result")}
	}
	return *resp.Result, nil
}

// do executes req and returns the body of a 200 response. Every call is
// classified the same way: transport failures become NetworkError, other
// status codes become RemoteError.
func (c *Client) do(req *http.Request, network Network, op string) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observer.ObserveRequest(network.Name, op, 0, time.Since(start))
		if ctxErr := req.Context().Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %w", op, ctxErr)
		}
		return nil, &NetworkError{Op: op, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.observer.ObserveRequest(network.Name, op, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, &NetworkError{Op: op, URL: req.URL.String(), Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteError{Op: op, URL: req.URL.String(), StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// FundWithRetry retries Fund with quadratic backoff while the failure is
// transient. Every attempt fetches a fresh challenge.
func (c *Client) FundWithRetry(ctx context.Context, address string, network Network, token string, maxRetries int) (*Result, error) {
	var lastResult *Result
	var lastErr error

	prefix := loggingContextFrom(ctx, network).logPrefix() + " "

	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}

	// Total attempts = 1 initial + maxRetries retries
	totalAttempts := maxRetries + 1
	for attempt := 0; attempt < totalAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * time.Second
			logger.Warnf("%sRetrying funding for %s (attempt %d/%d) after %v", prefix, address, attempt+1, totalAttempts, backoff)

			select {
			case <-ctx.Done():
				return lastResult, ctx.Err()
			case <-time.After(backoff):
			}
		}

		result, err := c.Fund(ctx, address, network, token)
		if err == nil {
			return result, nil
		}

		lastResult = result
		lastErr = err
		logger.Warnf("%sFunding attempt %d failed for %s: %v", prefix, attempt+1, address, err)

		if !IsRetryable(err) {
			return lastResult, err
		}
	}

	return lastResult, fmt.Errorf("failed after %d attempts: %w", totalAttempts, lastErr)
}

var _ Fauceter = (*Client)(nil)
