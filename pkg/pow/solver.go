package pow

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/carlmjohnson/flowmatic"
	"github.com/hyperledger/web3j-cli-sub000/pkg/logger"
)

const (
	// DefaultMaxAttempts matches the historical [0, INT_MAX) search range.
	DefaultMaxAttempts uint64 = math.MaxInt32
	DefaultTimeout            = 10 * time.Minute

	// workers poll the context once per checkInterval nonces; the found flag
	// is polled on every nonce.
	checkInterval = 1 << 12
)

var errWorkerExhausted = errors.New("worker range exhausted")

// Options bounds a search.
type Options struct {
	Workers      int
	MaxAttempts  uint64
	Timeout      time.Duration
	DigestOffset int
}

func DefaultOptions() Options {
	return Options{
		Workers:      runtime.NumCPU(),
		MaxAttempts:  DefaultMaxAttempts,
		Timeout:      DefaultTimeout,
		DigestOffset: DefaultDigestOffset,
	}
}

type Option func(*Options)

func WithWorkers(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Workers = n
		}
	}
}

func WithMaxAttempts(n uint64) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxAttempts = n
		}
	}
}

// WithTimeout sets the search deadline; zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

func WithDigestOffset(offset int) Option {
	return func(o *Options) {
		o.DigestOffset = offset
	}
}

// Result describes a successful search.
type Result struct {
	Solution
	Attempts uint64
	Workers  int
	Duration time.Duration
}

// Solver searches for nonces with a pool of goroutines. A Solver holds no
// per-search state and may be shared.
type Solver struct {
	opts Options
}

func NewSolver(opts ...Option) *Solver {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	return &Solver{opts: o}
}

func (s *Solver) Options() Options {
	return s.opts
}

// search is the state shared by the workers of one Solve call.
type search struct {
	seed       string
	difficulty int
	offset     int
	limit      uint64
	stride     uint64

	found     atomic.Bool
	nonce     atomic.Uint64
	attempts  atomic.Uint64
	exhausted atomic.Int32
}

// Solve runs the parallel search. The returned nonce satisfies the predicate
// but is not guaranteed to be the smallest one: workers race and the first
// to record its hit wins.
func (s *Solver) Solve(ctx context.Context, ch Challenge) (*Result, error) {
	start := time.Now()
	if err := ch.Validate(s.opts.DigestOffset); err != nil {
		return nil, err
	}

	// Zero difficulty is satisfied by every nonce.
	if ch.Difficulty == 0 {
		return &Result{
			Solution: Solution{Seed: ch.Seed, Nonce: 0},
			Attempts: 0,
			Workers:  0,
			Duration: time.Since(start),
		}, nil
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	workers := s.opts.Workers
	if uint64(workers) > s.opts.MaxAttempts {
		workers = int(s.opts.MaxAttempts)
	}

	st := &search{
		seed:       ch.Seed,
		difficulty: ch.Difficulty,
		offset:     s.opts.DigestOffset,
		limit:      s.opts.MaxAttempts,
		stride:     uint64(workers),
	}

	logger.Debugf("[pow] solving seed %s difficulty %d with %d workers (max attempts %d, timeout %v)",
		ch.Seed, ch.Difficulty, workers, s.opts.MaxAttempts, s.opts.Timeout)

	tasks := make([]func(context.Context) error, workers)
	for w := range tasks {
		first := uint64(w)
		tasks[w] = func(ctx context.Context) error {
			return st.work(ctx, first)
		}
	}

	raceErr := flowmatic.Race(ctx, tasks...)

	result := &Result{
		Attempts: st.attempts.Load(),
		Workers:  workers,
		Duration: time.Since(start),
	}

	if st.found.Load() {
		result.Solution = Solution{Seed: ch.Seed, Nonce: st.nonce.Load()}
		logger.Debugf("[pow] found nonce %d after %d attempts in %v", result.Nonce, result.Attempts, result.Duration)
		return result, nil
	}

	switch err := ctx.Err(); {
	case errors.Is(err, context.DeadlineExceeded):
		return result, fmt.Errorf("%w after %d attempts (%v)", ErrTimeout, result.Attempts, result.Duration)
	case err != nil:
		return result, fmt.Errorf("proof of work cancelled after %d attempts: %w", result.Attempts, err)
	}

	if int(st.exhausted.Load()) != workers {
		return result, fmt.Errorf("proof of work failed: %w", raceErr)
	}
	return result, fmt.Errorf("%w: no nonce below %d for difficulty %d", ErrSearchExhausted, s.opts.MaxAttempts, ch.Difficulty)
}

// work scans first, first+stride, first+2*stride, ... below the limit.
func (st *search) work(ctx context.Context, first uint64) error {
	buf := make([]byte, 0, 20+len(st.seed))
	var tried uint64
	defer func() { st.attempts.Add(tried) }()

	for n := first; n < st.limit; n += st.stride {
		if st.found.Load() {
			return nil
		}
		if tried%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		buf = strconv.AppendUint(buf[:0], n, 10)
		buf = append(buf, st.seed...)
		sum := sha256.Sum256(buf)
		tried++

		if matches(&sum, st.difficulty, st.offset) {
			if st.found.CompareAndSwap(false, true) {
				st.nonce.Store(n)
			}
			return nil
		}

		// stop before n+stride wraps around
		if n > math.MaxUint64-st.stride {
			break
		}
	}
	st.exhausted.Add(1)
	return errWorkerExhausted
}
