package mining

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/coinminer/challenge"
	"github.com/spacemeshos/coinminer/client"
	"github.com/spacemeshos/coinminer/logging"
	"github.com/spacemeshos/coinminer/shared"
)

//go:generate mockgen -package mocks -destination mocks/mining.go . Solver,CoinSubmitter,SubmitClient,Recorder

// Solver searches for a candidate solving p.
// Returning false is the normal outcome of an attempt that found nothing.
type Solver interface {
	Solve(ctx context.Context, p shared.Puzzle) (shared.Candidate, bool)
}

// CoinSubmitter hands a found coin to the service.
type CoinSubmitter interface {
	Submit(ctx context.Context, found Found)
}

type challengeSource interface {
	Snapshot() challenge.Challenge
}

type proxySelector interface {
	Select() (string, bool)
}

var candidatesMetric = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "coinminer",
	Subsystem: "driver",
	Name:      "candidates_total",
	Help:      "Number of candidates returned by the solver",
})

// Found is a candidate together with the puzzle it solves.
type Found struct {
	Puzzle    shared.Puzzle
	Candidate shared.Candidate
	// Proxy the submission is routed through, empty for a direct connection.
	Proxy string
	At    time.Time
}

// implement zap.ObjectMarshaler interface.
func (f Found) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("prev_coin_id", f.Puzzle.CoinID)
	enc.AddString("blob", base64.StdEncoding.EncodeToString(f.Candidate.Blob()))
	enc.AddUint64("nonce", uint64(f.Candidate))
	enc.AddUint("difficulty", f.Puzzle.Difficulty)
	return nil
}

type Config struct {
	Prefix   string        `long:"prefix"    description:"Fixed prefix of every coin hash"`
	MinerID  string        `long:"miner-id"  description:"Identity sent with every submission"`
	IdleWait time.Duration `long:"idle-wait" description:"Time to wait while no challenge is known"`
}

func DefaultConfig() Config {
	return Config{
		Prefix:   "CPEN 442 Coin2022",
		MinerID:  "free-vbucks",
		IdleWait: 100 * time.Millisecond,
	}
}

// Driver repeatedly solves the current challenge and submits what it finds.
// It only reads the challenge store.
type Driver struct {
	cfg       Config
	store     challengeSource
	proxies   proxySelector
	solver    Solver
	submitter CoinSubmitter
}

func NewDriver(cfg Config, store challengeSource, proxies proxySelector, solver Solver, submitter CoinSubmitter) *Driver {
	return &Driver{
		cfg:       cfg,
		store:     store,
		proxies:   proxies,
		solver:    solver,
		submitter: submitter,
	}
}

// Run mines until ctx is canceled.
func (d *Driver) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx).Named("driver")
	ctx = logging.NewContext(ctx, logger)
	logger.Info("starting", zap.String("miner_id", d.cfg.MinerID))

	for ctx.Err() == nil {
		current := d.store.Snapshot()
		if !current.Ready() {
			select {
			case <-ctx.Done():
			case <-time.After(d.cfg.IdleWait):
			}
			continue
		}
		d.iterate(ctx, current)
	}

	logger.Info("stopped")
	return nil
}

func (d *Driver) iterate(ctx context.Context, current challenge.Challenge) {
	puzzle := shared.Puzzle{
		Prefix:     d.cfg.Prefix,
		CoinID:     current.CoinID,
		MinerID:    d.cfg.MinerID,
		Difficulty: current.Difficulty,
	}
	proxy, _ := d.proxies.Select()

	candidate, ok := d.solver.Solve(ctx, puzzle)
	if !ok || ctx.Err() != nil {
		return
	}
	candidatesMetric.Inc()

	found := Found{
		Puzzle:    puzzle,
		Candidate: candidate,
		Proxy:     proxy,
		At:        time.Now(),
	}
	logging.FromContext(ctx).Info("found coin", zap.Inline(found))
	d.submitter.Submit(ctx, found)
}

func withProxy(ctx context.Context, proxy string) context.Context {
	if proxy == "" {
		return ctx
	}
	return client.WithProxy(ctx, proxy)
}
