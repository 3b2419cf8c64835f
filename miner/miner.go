package miner

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/coinminer/challenge"
	"github.com/spacemeshos/coinminer/client"
	"github.com/spacemeshos/coinminer/journal"
	"github.com/spacemeshos/coinminer/logging"
	"github.com/spacemeshos/coinminer/mining"
	"github.com/spacemeshos/coinminer/poller"
	"github.com/spacemeshos/coinminer/proxy"
	"github.com/spacemeshos/coinminer/solver"
)

type svc interface {
	Run(ctx context.Context) error
}

// Miner wires the poller and the mining driver around a shared challenge store.
type Miner struct {
	cfg     Config
	store   *challenge.Store
	poller  svc
	driver  svc
	journal *journal.Journal

	metricsListener net.Listener
}

type newMinerOptionFunc func(*newMinerOptions)

type newMinerOptions struct {
	solver mining.Solver
}

// WithSolver replaces the reference CPU solver.
func WithSolver(solver mining.Solver) newMinerOptionFunc {
	return func(opts *newMinerOptions) {
		opts.solver = solver
	}
}

func New(ctx context.Context, cfg Config, opts ...newMinerOptionFunc) (*Miner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := newMinerOptions{
		solver: solver.NewCPU(cfg.Solver),
	}
	for _, opt := range opts {
		opt(&options)
	}
	logger := logging.FromContext(ctx)

	httpClient, err := client.NewHTTPClient(ctx, cfg.BaseURL, cfg.Args.SubmitURL, cfg.Client)
	if err != nil {
		return nil, fmt.Errorf("creating coin service client: %w", err)
	}

	var addresses []string
	if cfg.Args.ProxyList != "" {
		addresses, err = proxy.LoadList(ctx, cfg.Args.ProxyList)
		if err != nil {
			logger.Warn("cannot read proxy list, connecting directly", zap.String("path", cfg.Args.ProxyList), zap.Error(err))
		}
	}
	proxies := proxy.NewSelector(addresses)
	logger.Info("loaded proxies", zap.Int("count", proxies.Len()))

	var submitterOpts []mining.SubmitterOptionFunc
	var j *journal.Journal
	if !cfg.DisableJournal {
		j, err = journal.Open(cfg.JournalDir())
		if err != nil {
			return nil, err
		}
		submitterOpts = append(submitterOpts, mining.WithRecorder(j))
	}

	var metricsListener net.Listener
	if cfg.MetricsPort != nil {
		metricsListener, err = net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(int(*cfg.MetricsPort))))
		if err != nil {
			if j != nil {
				j.Close()
			}
			return nil, fmt.Errorf("failed to listen: %w", err)
		}
	}

	store := challenge.NewStore()
	return &Miner{
		cfg:     cfg,
		store:   store,
		poller:  poller.New(cfg.Poller, httpClient, proxies, store),
		driver:  mining.NewDriver(cfg.Mining, store, proxies, options.solver, mining.NewSubmitter(httpClient, submitterOpts...)),
		journal: j,

		metricsListener: metricsListener,
	}, nil
}

func (m *Miner) Close() error {
	if m.journal == nil {
		return nil
	}
	return m.journal.Close()
}

// Store gives read access to the challenge the miner works on.
func (m *Miner) Store() *challenge.Store {
	return m.store
}

// MetricsAddr returns the address metrics are exported on, nil if they are not exported.
func (m *Miner) MetricsAddr() net.Addr {
	if m.metricsListener == nil {
		return nil
	}
	return m.metricsListener.Addr()
}

// Start runs the miner until ctx is canceled.
func (m *Miner) Start(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	logger := logging.FromContext(ctx)

	logger.Info("starting poller")
	group.Go(func() error {
		return m.poller.Run(ctx)
	})

	logger.Info("starting mining driver")
	group.Go(func() error {
		return m.driver.Run(ctx)
	})

	if m.metricsListener != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{Handler: mux, ReadHeaderTimeout: time.Second * 5}
		group.Go(func() error {
			logger.Sugar().Infof("metrics exported on %s", m.metricsListener.Addr())
			err := server.Serve(m.metricsListener)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		group.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}
	logger.Info("miner stopped", zap.Inline(m.store.Snapshot()))
	return nil
}
