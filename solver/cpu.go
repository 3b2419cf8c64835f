// Package solver contains a reference CPU solver for coin puzzles.
package solver

import (
	"context"
	"errors"
	"math/rand"
	"runtime"
	"sync/atomic"

	"github.com/minio/sha256-simd"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/coinminer/logging"
	"github.com/spacemeshos/coinminer/shared"
)

// cancellation is checked once per this many hashes.
const checkInterval = 1 << 12

var (
	errFound = errors.New("candidate found")

	hashesMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "coinminer",
		Subsystem: "solver",
		Name:      "hashes_total",
		Help:      "Number of computed coin hashes",
	})

	attemptsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coinminer",
		Subsystem: "solver",
		Name:      "attempts_total",
		Help:      "Number of solve attempts by outcome",
	}, []string{"outcome"})
)

type Config struct {
	Workers int    `long:"solver-workers" description:"Number of goroutines searching for a coin"`
	Batch   uint64 `long:"solver-batch"   description:"Number of nonces each worker tries per solve attempt"`
}

func DefaultConfig() Config {
	return Config{
		Workers: runtime.NumCPU(),
		Batch:   1 << 22,
	}
}

// CPU splits each solve attempt between Workers goroutines.
// Every worker starts at a random nonce and tries Batch consecutive nonces.
type CPU struct {
	cfg   Config
	start func() uint64
}

type OptionFunc func(*CPU)

// WithStart overrides the source of worker start nonces.
func WithStart(start func() uint64) OptionFunc {
	return func(c *CPU) {
		c.start = start
	}
}

func NewCPU(cfg Config, opts ...OptionFunc) *CPU {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	c := &CPU{cfg: cfg, start: rand.Uint64}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Solve returns the first candidate found by any worker.
// It returns false when every worker exhausted its batch or ctx was canceled.
func (c *CPU) Solve(ctx context.Context, p shared.Puzzle) (shared.Candidate, bool) {
	logger := logging.FromContext(ctx)
	eg, egCtx := errgroup.WithContext(ctx)

	var found atomic.Uint64
	for i := 0; i < c.cfg.Workers; i++ {
		start := c.start()
		eg.Go(func() error {
			candidate, ok := c.search(egCtx, p, start)
			if !ok {
				return nil
			}
			found.Store(uint64(candidate))
			return errFound
		})
	}

	if err := eg.Wait(); errors.Is(err, errFound) {
		attemptsMetric.WithLabelValues("found").Inc()
		return shared.Candidate(found.Load()), true
	}
	if ctx.Err() != nil {
		attemptsMetric.WithLabelValues("canceled").Inc()
	} else {
		attemptsMetric.WithLabelValues("exhausted").Inc()
	}
	logger.Debug("no coin in this attempt", zap.Uint("difficulty", p.Difficulty), zap.String("coin_id", p.CoinID))
	return 0, false
}

func (c *CPU) search(ctx context.Context, p shared.Puzzle, start uint64) (shared.Candidate, bool) {
	hasher := shared.NewCoinHasher(p)
	digest := make([]byte, 0, sha256.Size)

	var done uint64
	defer func() { hashesMetric.Add(float64(done)) }()

	for ; done < c.cfg.Batch; done++ {
		if done%checkInterval == 0 && ctx.Err() != nil {
			return 0, false
		}
		candidate := shared.Candidate(start + done)
		digest = hasher.Hash(candidate, digest[:0])
		if shared.CheckLeadingZeroHex(digest, p.Difficulty) {
			done++
			return candidate, true
		}
	}
	return 0, false
}
