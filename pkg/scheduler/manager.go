package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hyperledger/web3j-cli-sub000/pkg/config"
	"github.com/hyperledger/web3j-cli-sub000/pkg/currency"
	"github.com/hyperledger/web3j-cli-sub000/pkg/faucet"
	"github.com/hyperledger/web3j-cli-sub000/pkg/logger"
)

// SchedulerManager runs one RefundScheduler per watched network
type SchedulerManager struct {
	watch            *config.Watch
	faucetCfg        config.Faucet
	networks         *faucet.Registry
	currencyRegistry *currency.Registry
	funder           Funder
	newReader        ReaderFactory
	recorder         Recorder
	schedulers       map[string]*RefundScheduler // network name -> scheduler

	running bool
	mutex   sync.RWMutex
}

// SchedulerInfo contains information about a running scheduler
type SchedulerInfo struct {
	Network      string
	IsRunning    bool
	NextRun      time.Time
	FaucetURL    string
	Schedule     string
	AccountCount int
}

func (sm *SchedulerManager) logPrefix() string {
	return "[manager]"
}

func (sm *SchedulerManager) logPrefixNetwork(network string) string {
	return fmt.Sprintf("[manager %s]", network)
}

// NewSchedulerManager creates a new scheduler manager
func NewSchedulerManager(cfg *config.Schema, funder Funder, newReader ReaderFactory, currencyRegistry *currency.Registry, recorder Recorder) (*SchedulerManager, error) {
	if cfg.Watch == nil || len(cfg.Watch.Accounts) == 0 {
		return nil, fmt.Errorf("no accounts configured to watch")
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if currencyRegistry == nil {
		currencyRegistry = currency.NewDefaultRegistry()
	}

	return &SchedulerManager{
		watch:            cfg.Watch,
		faucetCfg:        cfg.Faucet,
		networks:         faucet.RegistryFromConfig(cfg),
		currencyRegistry: currencyRegistry,
		funder:           funder,
		newReader:        newReader,
		recorder:         recorder,
		schedulers:       make(map[string]*RefundScheduler),
	}, nil
}

// accountsByNetwork groups the watched accounts by resolved network name.
func (sm *SchedulerManager) accountsByNetwork() (map[string][]*config.Account, error) {
	grouped := make(map[string][]*config.Account)
	for _, account := range sm.watch.Accounts {
		network, err := sm.networks.Lookup(account.Network)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", account.Name, err)
		}
		grouped[network.Name] = append(grouped[network.Name], account)
	}
	return grouped, nil
}

func (sm *SchedulerManager) createNetworkScheduler(name string, accounts []*config.Account) (*RefundScheduler, error) {
	network, err := sm.networks.Lookup(name)
	if err != nil {
		return nil, err
	}

	reader, err := sm.newReader(network)
	if err != nil {
		return nil, fmt.Errorf("failed to create balance reader: %w", err)
	}

	return NewRefundScheduler(network, accounts, sm.watch.Schedule, sm.funder, reader, sm.currencyRegistry,
		WithToken(sm.faucetCfg.Token),
		WithMaxRetries(sm.faucetCfg.MaxRetries),
		WithTimeout(time.Duration(sm.watch.Timeout)*time.Second),
		WithRecorder(sm.recorder),
	)
}

// Start creates and starts a scheduler for every watched network
func (sm *SchedulerManager) Start() error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if sm.running {
		return fmt.Errorf("scheduler manager is already running")
	}

	logger.Infof("%s Starting scheduler manager...", sm.logPrefix())

	grouped, err := sm.accountsByNetwork()
	if err != nil {
		return err
	}

	for name, accounts := range grouped {
		scheduler, err := sm.createNetworkScheduler(name, accounts)
		if err != nil {
			logger.Errorf("%s Failed to create scheduler: %v", sm.logPrefixNetwork(name), err)
			continue
		}

		if err := scheduler.Start(); err != nil {
			logger.Errorf("%s Failed to start scheduler: %v", sm.logPrefixNetwork(name), err)
			_ = scheduler.reader.Close()
			continue
		}

		sm.schedulers[name] = scheduler
		logger.Infof("%s Started scheduler with %d accounts (schedule: %s)", sm.logPrefixNetwork(name), len(accounts), sm.watch.Schedule)
	}

	if len(sm.schedulers) == 0 {
		return fmt.Errorf("no schedulers could be started")
	}

	sm.running = true
	logger.Infof("%s Scheduler manager started with %d active schedulers", sm.logPrefix(), len(sm.schedulers))
	return nil
}

// Stop stops all running schedulers
func (sm *SchedulerManager) Stop() error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if !sm.running {
		return nil
	}

	logger.Infof("%s Stopping scheduler manager...", sm.logPrefix())

	var wg sync.WaitGroup
	for name, scheduler := range sm.schedulers {
		wg.Add(1)
		go func(name string, s *RefundScheduler) {
			defer wg.Done()
			if err := s.Stop(); err != nil {
				logger.Errorf("%s Failed to stop scheduler: %v", sm.logPrefixNetwork(name), err)
			}
		}(name, scheduler)
	}
	wg.Wait()

	sm.schedulers = make(map[string]*RefundScheduler)
	sm.running = false

	logger.Infof("%s Scheduler manager stopped", sm.logPrefix())
	return nil
}

// IsRunning returns whether the manager is currently running
func (sm *SchedulerManager) IsRunning() bool {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.running
}

// Ready reports an error unless every scheduler is running. It backs the
// /readiness endpoint.
func (sm *SchedulerManager) Ready() error {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	if !sm.running {
		return errors.New("scheduler manager is not running")
	}
	for name, scheduler := range sm.schedulers {
		if !scheduler.IsRunning() {
			return fmt.Errorf("scheduler for %s is not running", name)
		}
	}
	return nil
}

// GetSchedulerInfo returns information about all watched networks
func (sm *SchedulerManager) GetSchedulerInfo() []SchedulerInfo {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	grouped, err := sm.accountsByNetwork()
	if err != nil {
		logger.Warnf("%s %v", sm.logPrefix(), err)
	}

	infos := make([]SchedulerInfo, 0, len(grouped))
	for name, accounts := range grouped {
		network, _ := sm.networks.Lookup(name)
		info := SchedulerInfo{
			Network:      name,
			FaucetURL:    network.BaseURL,
			Schedule:     sm.watch.Schedule,
			AccountCount: len(accounts),
		}
		if scheduler, exists := sm.schedulers[name]; exists {
			info.IsRunning = scheduler.IsRunning()
			info.NextRun = scheduler.GetNextRun()
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Network < infos[j].Network })
	return infos
}

// RunOnce checks every watched account once, without starting the cron
// schedules.
func (sm *SchedulerManager) RunOnce(ctx context.Context) ([]*RefundEvent, error) {
	grouped, err := sm.accountsByNetwork()
	if err != nil {
		return nil, err
	}

	var events []*RefundEvent
	for name, accounts := range grouped {
		scheduler, err := sm.createNetworkScheduler(name, accounts)
		if err != nil {
			return events, fmt.Errorf("network %s: %w", name, err)
		}
		events = append(events, scheduler.RunOnce(ctx)...)
		if err := scheduler.reader.Close(); err != nil {
			logger.Warnf("%s Failed to close balance reader: %v", sm.logPrefixNetwork(name), err)
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].Network != events[j].Network {
			return events[i].Network < events[j].Network
		}
		return events[i].AccountName < events[j].AccountName
	})
	return events, nil
}
