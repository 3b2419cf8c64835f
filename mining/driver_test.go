package mining_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spacemeshos/coinminer/challenge"
	"github.com/spacemeshos/coinminer/logging"
	"github.com/spacemeshos/coinminer/mining"
	"github.com/spacemeshos/coinminer/mining/mocks"
	"github.com/spacemeshos/coinminer/proxy"
	"github.com/spacemeshos/coinminer/shared"
	"github.com/spacemeshos/coinminer/solver"
)

const coinA = "a9c1ae3f4fc29d0be9113a42090a5ef9fdef93f5ec4777a008873972e60bb532"

func testContext(t *testing.T) context.Context {
	return logging.NewContext(context.Background(), zaptest.NewLogger(t))
}

func readyStore(difficulty uint) *challenge.Store {
	store := challenge.NewStore()
	store.Merge(challenge.Update{
		Coin:       &challenge.Coin{ID: coinA, Timestamp: 1000},
		Difficulty: &challenge.Difficulty{Value: difficulty, Timestamp: 1000},
	})
	return store
}

func runDriver(ctx context.Context, d *mining.Driver) <-chan error {
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	return done
}

func requireStopped(t *testing.T, done <-chan error) {
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		require.Fail(t, "driver did not stop")
	}
}

func TestDriverSubmitsFoundCoin(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSolver := mocks.NewMockSolver(ctrl)
	submitter := mocks.NewMockCoinSubmitter(ctrl)
	cfg := mining.DefaultConfig()
	cfg.MinerID = "abc"
	d := mining.NewDriver(cfg, readyStore(7), proxy.NewSelector([]string{"1.2.3.4:8080"}), mockSolver, submitter)

	ctx, cancel := context.WithCancel(testContext(t))
	defer cancel()

	expected := shared.Puzzle{
		Prefix:     "CPEN 442 Coin2022",
		CoinID:     coinA,
		MinerID:    "abc",
		Difficulty: 7,
	}
	mockSolver.EXPECT().Solve(gomock.Any(), expected).Return(shared.Candidate(42), true)
	submitted := make(chan mining.Found, 1)
	submitter.EXPECT().Submit(gomock.Any(), gomock.Any()).Do(func(_ context.Context, found mining.Found) {
		submitted <- found
		cancel()
	})

	done := runDriver(ctx, d)
	requireStopped(t, done)

	found := <-submitted
	require.Equal(t, expected, found.Puzzle)
	require.Equal(t, shared.Candidate(42), found.Candidate)
	require.Equal(t, "1.2.3.4:8080", found.Proxy)
	require.False(t, found.At.IsZero())
}

func TestDriverWaitsForChallenge(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSolver := mocks.NewMockSolver(ctrl)
	submitter := mocks.NewMockCoinSubmitter(ctrl)
	store := challenge.NewStore()
	cfg := mining.DefaultConfig()
	cfg.IdleWait = time.Millisecond
	d := mining.NewDriver(cfg, store, proxy.NewSelector(nil), mockSolver, submitter)

	ctx, cancel := context.WithCancel(testContext(t))
	defer cancel()
	done := runDriver(ctx, d)

	// nothing is solved while only one half of the challenge is known
	store.Merge(challenge.Update{Coin: &challenge.Coin{ID: coinA, Timestamp: 1}})
	time.Sleep(50 * time.Millisecond)

	solved := make(chan shared.Puzzle, 1)
	mockSolver.EXPECT().Solve(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p shared.Puzzle) (shared.Candidate, bool) {
		solved <- p
		cancel()
		return 0, false
	})
	store.Merge(challenge.Update{Difficulty: &challenge.Difficulty{Value: 3, Timestamp: 1}})

	requireStopped(t, done)
	p := <-solved
	require.Equal(t, coinA, p.CoinID)
	require.Equal(t, uint(3), p.Difficulty)
}

func TestDriverReadsDifficultyBetweenAttempts(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSolver := mocks.NewMockSolver(ctrl)
	submitter := mocks.NewMockCoinSubmitter(ctrl)
	store := readyStore(5)
	d := mining.NewDriver(mining.DefaultConfig(), store, proxy.NewSelector(nil), mockSolver, submitter)

	ctx, cancel := context.WithCancel(testContext(t))
	defer cancel()

	difficulties := make(chan uint, 2)
	gomock.InOrder(
		mockSolver.EXPECT().Solve(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p shared.Puzzle) (shared.Candidate, bool) {
			difficulties <- p.Difficulty
			store.Merge(challenge.Update{Difficulty: &challenge.Difficulty{Value: 6, Timestamp: 2000}})
			return 0, false
		}),
		mockSolver.EXPECT().Solve(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p shared.Puzzle) (shared.Candidate, bool) {
			difficulties <- p.Difficulty
			cancel()
			return 0, false
		}),
	)

	requireStopped(t, runDriver(ctx, d))
	require.Equal(t, uint(5), <-difficulties)
	require.Equal(t, uint(6), <-difficulties)
}

func TestDriverStopsWhileIdle(t *testing.T) {
	ctrl := gomock.NewController(t)
	cfg := mining.DefaultConfig()
	cfg.IdleWait = time.Hour
	d := mining.NewDriver(cfg, challenge.NewStore(), proxy.NewSelector(nil), mocks.NewMockSolver(ctrl), mocks.NewMockCoinSubmitter(ctrl))

	ctx, cancel := context.WithCancel(testContext(t))
	done := runDriver(ctx, d)
	cancel()
	requireStopped(t, done)
}

func TestDriverWithCPUSolver(t *testing.T) {
	ctrl := gomock.NewController(t)
	submitter := mocks.NewMockCoinSubmitter(ctrl)
	cfg := mining.DefaultConfig()
	d := mining.NewDriver(cfg, readyStore(2), proxy.NewSelector(nil), solver.NewCPU(solver.Config{Workers: 2, Batch: 1 << 16}), submitter)

	ctx, cancel := context.WithCancel(testContext(t))
	defer cancel()
	submitted := make(chan mining.Found, 1)
	submitter.EXPECT().Submit(gomock.Any(), gomock.Any()).Do(func(_ context.Context, found mining.Found) {
		submitted <- found
		cancel()
	})

	requireStopped(t, runDriver(ctx, d))
	found := <-submitted
	require.True(t, shared.Verify(found.Puzzle, found.Candidate))
}
