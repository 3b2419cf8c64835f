package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/coinminer/challenge"
	"github.com/spacemeshos/coinminer/client"
	"github.com/spacemeshos/coinminer/logging"
)

//go:generate mockgen -package mocks -destination mocks/fetcher.go . Fetcher

// Fetcher reads the current challenge halves from the coin service.
type Fetcher interface {
	LastCoin(ctx context.Context) (client.LastCoin, error)
	Difficulty(ctx context.Context) (client.Difficulty, error)
}

type proxySelector interface {
	Select() (string, bool)
}

type challengeStore interface {
	Merge(challenge.Update) challenge.MergeResult
	RecordFailure(error)
}

var (
	cyclesMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coinminer",
		Subsystem: "poller",
		Name:      "cycles_total",
		Help:      "Number of poll cycles by result",
	}, []string{"result"})

	fetchErrorsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coinminer",
		Subsystem: "poller",
		Name:      "fetch_errors_total",
		Help:      "Number of failed fetches by endpoint and error class",
	}, []string{"endpoint", "class"})
)

func DefaultConfig() Config {
	return Config{
		Interval: 5 * time.Second,
	}
}

type Config struct {
	Interval time.Duration `long:"poll-interval" description:"Time between two poll cycles"`
}

// Poller keeps the challenge store fresh. It is the only writer of the store.
type Poller struct {
	cfg     Config
	fetcher Fetcher
	proxies proxySelector
	store   challengeStore
}

func New(cfg Config, fetcher Fetcher, proxies proxySelector, store challengeStore) *Poller {
	return &Poller{
		cfg:     cfg,
		fetcher: fetcher,
		proxies: proxies,
		store:   store,
	}
}

// Run polls until ctx is canceled.
func (p *Poller) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx).Named("poller")
	ctx = logging.NewContext(ctx, logger)
	logger.Info("starting", zap.Duration("interval", p.cfg.Interval))

	for {
		if err := p.Poll(ctx); err != nil {
			logger.Warn("poll cycle failed, keeping previous challenge", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			logger.Info("stopped")
			return nil
		case <-time.After(p.cfg.Interval):
		}
	}
}

// Poll runs a single cycle: both fetches go through the same proxy and run concurrently.
// The store is updated only if both of them succeed.
func (p *Poller) Poll(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	if address, ok := p.proxies.Select(); ok {
		ctx = client.WithProxy(ctx, address)
		logger = logger.With(zap.String("proxy", address))
	}

	var (
		coin                   client.LastCoin
		difficulty             client.Difficulty
		coinErr, difficultyErr error
		eg                     errgroup.Group
	)
	eg.Go(func() error {
		coin, coinErr = p.fetcher.LastCoin(ctx)
		return nil
	})
	eg.Go(func() error {
		difficulty, difficultyErr = p.fetcher.Difficulty(ctx)
		return nil
	})
	_ = eg.Wait()

	var result *multierror.Error
	if coinErr != nil {
		fetchErrorsMetric.WithLabelValues(client.LastCoinPath, client.Classify(coinErr)).Inc()
		result = multierror.Append(result, coinErr)
	}
	if difficultyErr != nil {
		fetchErrorsMetric.WithLabelValues(client.DifficultyPath, client.Classify(difficultyErr)).Inc()
		result = multierror.Append(result, difficultyErr)
	}
	if err := result.ErrorOrNil(); err != nil {
		cyclesMetric.WithLabelValues("failed").Inc()
		p.store.RecordFailure(err)
		return fmt.Errorf("fetching challenge: %w", err)
	}

	res := p.store.Merge(challenge.Update{
		Coin:       &challenge.Coin{ID: coin.CoinID, Timestamp: coin.Timestamp},
		Difficulty: &challenge.Difficulty{Value: difficulty.Value, Timestamp: difficulty.Timestamp},
	})
	cyclesMetric.WithLabelValues("ok").Inc()

	if res.CoinAccepted {
		logger.Info("new coin", zap.String("coin_id", coin.CoinID), zap.Int64("time_stamp", coin.Timestamp))
	}
	if res.DifficultyAccepted {
		logger.Info("new difficulty", zap.Uint("difficulty", difficulty.Value), zap.Int64("time_stamp", difficulty.Timestamp))
	}
	if !res.Changed() {
		logger.Debug("challenge unchanged")
	}
	return nil
}
