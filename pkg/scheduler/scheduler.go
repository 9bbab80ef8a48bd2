package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/carlmjohnson/flowmatic"
	"github.com/robfig/cron/v3"

	"github.com/hyperledger/web3j-cli-sub000/pkg/balance"
	"github.com/hyperledger/web3j-cli-sub000/pkg/config"
	"github.com/hyperledger/web3j-cli-sub000/pkg/currency"
	"github.com/hyperledger/web3j-cli-sub000/pkg/faucet"
	"github.com/hyperledger/web3j-cli-sub000/pkg/logger"
)

const (
	DefaultMaxConcurrency = 4
)

// RefundScheduler periodically tops up the watched accounts of one network.
type RefundScheduler struct {
	network          faucet.Network
	accounts         []*config.Account
	schedule         string
	timeout          time.Duration
	token            string
	maxRetries       int
	concurrency      int
	funder           Funder
	reader           BalanceReader
	recorder         Recorder
	currencyRegistry *currency.Registry
	cron             *cron.Cron

	running bool
	mutex   sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

// RefundEvent represents a refund event for monitoring and logging
type RefundEvent struct {
	Network         string
	AccountName     string
	AccountAddress  string
	CurrentBalance  float64
	Threshold       float64
	Unit            string
	Funded          bool
	TransactionHash string
	ExplorerLink    string
	Error           error
	Timestamp       time.Time
	Duration        time.Duration
}

type Option func(*RefundScheduler)

func WithToken(token string) Option {
	return func(rs *RefundScheduler) {
		rs.token = token
	}
}

func WithMaxRetries(n int) Option {
	return func(rs *RefundScheduler) {
		rs.maxRetries = n
	}
}

// WithTimeout bounds the check of a single account, funding included.
func WithTimeout(d time.Duration) Option {
	return func(rs *RefundScheduler) {
		if d > 0 {
			rs.timeout = d
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(rs *RefundScheduler) {
		if r != nil {
			rs.recorder = r
		}
	}
}

func WithConcurrency(n int) Option {
	return func(rs *RefundScheduler) {
		if n > 0 {
			rs.concurrency = n
		}
	}
}

func (rs *RefundScheduler) logPrefix() string {
	return fmt.Sprintf("[scheduler %s]", rs.network.Name)
}

// NewRefundScheduler creates a scheduler for the accounts of a single network
func NewRefundScheduler(network faucet.Network, accounts []*config.Account, schedule string, funder Funder, reader BalanceReader, currencyRegistry *currency.Registry, opts ...Option) (*RefundScheduler, error) {
	if funder == nil || reader == nil {
		return nil, fmt.Errorf("funder and balance reader are required")
	}
	if currencyRegistry == nil {
		currencyRegistry = currency.NewDefaultRegistry()
	}

	ctx, cancel := context.WithCancel(context.Background())
	rs := &RefundScheduler{
		network:          network,
		accounts:         accounts,
		schedule:         schedule,
		timeout:          time.Duration(config.DefaultWatchTimeout) * time.Second,
		maxRetries:       faucet.DefaultMaxRetries,
		concurrency:      DefaultMaxConcurrency,
		funder:           funder,
		reader:           reader,
		recorder:         nopRecorder{},
		currencyRegistry: currencyRegistry,
		cron:             cron.New(cron.WithParser(cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor))),
		ctx:              ctx,
		cancel:           cancel,
	}
	for _, opt := range opts {
		opt(rs)
	}
	return rs, nil
}

// Start starts the refund scheduler
func (rs *RefundScheduler) Start() error {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	if rs.running {
		return fmt.Errorf("scheduler is already running")
	}

	logger.Infof("%s Starting with schedule %s for %d accounts", rs.logPrefix(), rs.schedule, len(rs.accounts))

	_, err := rs.cron.AddFunc(rs.schedule, func() {
		rs.executeRefundCheck()
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	rs.cron.Start()
	rs.running = true
	return nil
}

// Stop stops the refund scheduler and waits for a running check to finish
func (rs *RefundScheduler) Stop() error {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	if !rs.running {
		return nil
	}

	logger.Infof("%s Stopping...", rs.logPrefix())

	rs.cancel()
	<-rs.cron.Stop().Done()

	if err := rs.reader.Close(); err != nil {
		logger.Errorf("%s Failed to close balance reader: %v", rs.logPrefix(), err)
	}

	rs.running = false
	logger.Infof("%s Stopped", rs.logPrefix())
	return nil
}

// IsRunning returns whether the scheduler is currently running
func (rs *RefundScheduler) IsRunning() bool {
	rs.mutex.RLock()
	defer rs.mutex.RUnlock()
	return rs.running
}

// GetNextRun returns the next scheduled run time
func (rs *RefundScheduler) GetNextRun() time.Time {
	if !rs.IsRunning() {
		return time.Time{}
	}
	entries := rs.cron.Entries()
	if len(entries) > 0 {
		return entries[0].Next
	}
	return time.Time{}
}

// RunOnce checks every account immediately.
func (rs *RefundScheduler) RunOnce(ctx context.Context) []*RefundEvent {
	return rs.processAccounts(ctx)
}

func (rs *RefundScheduler) executeRefundCheck() {
	logger.Infof("%s Starting refund check cycle", rs.logPrefix())
	startTime := time.Now()

	events := rs.processAccounts(rs.ctx)

	funded, failed := 0, 0
	for _, event := range events {
		switch {
		case event.Error != nil:
			failed++
		case event.Funded:
			funded++
		}
	}

	logger.Infof("%s Refund check completed in %v: %d checked, %d funded, %d errors",
		rs.logPrefix(), time.Since(startTime), len(events), funded, failed)
}

// processAccounts checks all accounts and funds those below threshold
func (rs *RefundScheduler) processAccounts(ctx context.Context) []*RefundEvent {
	var (
		mu     sync.Mutex
		events []*RefundEvent
	)

	_ = flowmatic.Each(rs.concurrency, rs.accounts, func(account *config.Account) error {
		event := rs.processAccount(ctx, account)
		mu.Lock()
		events = append(events, event)
		mu.Unlock()
		return nil
	})

	return events
}

// processAccount processes a single account for refunding
func (rs *RefundScheduler) processAccount(parent context.Context, account *config.Account) *RefundEvent {
	ctx, cancel := context.WithTimeout(parent, rs.timeout)
	defer cancel()

	startTime := time.Now()
	event := &RefundEvent{
		Network:        rs.network.Name,
		AccountName:    account.Name,
		AccountAddress: account.Address,
		Unit:           rs.displayUnit(),
		Timestamp:      startTime,
	}
	defer func() {
		event.Duration = time.Since(startTime)
	}()

	atomic, err := rs.reader.Balance(ctx, account.Address)
	if err != nil {
		event.Error = fmt.Errorf("failed to get balance: %w", err)
		rs.recorder.SetUnhealthy(rs.network.Name, account.Name)
		logger.Errorf("%s Failed to get balance for account %s: %v", rs.logPrefix(), account.Name, err)
		return event
	}

	current, err := balance.ToDisplay(rs.currencyRegistry, rs.network, atomic)
	if err != nil {
		event.Error = fmt.Errorf("failed to convert balance: %w", err)
		rs.recorder.SetUnhealthy(rs.network.Name, account.Name)
		logger.Errorf("%s Failed to convert balance for account %s: %v", rs.logPrefix(), account.Name, err)
		return event
	}
	event.CurrentBalance = current
	rs.recorder.SetBalance(rs.network.Name, account.Name, event.Unit, current)

	if account.Threshold == nil {
		logger.Debugf("%s Account %s has no threshold, balance %.6f %s", rs.logPrefix(), account.Name, current, event.Unit)
		return event
	}
	event.Threshold = *account.Threshold

	if current >= event.Threshold {
		logger.Debugf("%s Account %s balance %.6f %s is above threshold %.6f, no funding needed",
			rs.logPrefix(), account.Name, current, event.Unit, event.Threshold)
		return event
	}

	logger.Infof("%s Account %s balance %.6f %s is below threshold %.6f, requesting funds",
		rs.logPrefix(), account.Name, current, event.Unit, event.Threshold)

	fundCtx := faucet.WithLoggingContext(ctx, &faucet.LoggingContext{Network: rs.network.Name, Account: account.Name})
	result, err := rs.funder.FundWithRetry(fundCtx, account.Address, rs.network, rs.token, rs.maxRetries)
	if err != nil {
		event.Error = fmt.Errorf("failed to fund account: %w", err)
		logger.Errorf("%s Failed to fund account %s: %v", rs.logPrefix(), account.Name, err)
		return event
	}

	event.Funded = true
	event.TransactionHash = result.TransactionHash
	event.ExplorerLink = result.ExplorerLink
	logger.Infof("%s Funded account %s with tx %s", rs.logPrefix(), account.Name, result.TransactionHash)
	return event
}

func (rs *RefundScheduler) displayUnit() string {
	if rs.network.DisplayUnit != "" {
		return rs.network.DisplayUnit
	}
	return rs.network.Denom
}
