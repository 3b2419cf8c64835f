package challenge

import (
	"math"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap/zapcore"
)

// Unset is the timestamp of a field group that was never merged.
// Any timestamp reported by the service is newer.
const Unset = math.MinInt64

var mergesMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coinminer",
	Subsystem: "challenge",
	Name:      "merges_total",
	Help:      "Number of merged field group updates by group and outcome",
}, []string{"group", "outcome"})

// Challenge is the unit of mining work: the last accepted coin and the current difficulty.
// The two groups are tracked independently and may come from different poll cycles.
type Challenge struct {
	CoinID              string
	CoinTimestamp       int64
	Difficulty          uint
	DifficultyTimestamp int64
}

// Ready reports whether both field groups have been set at least once.
func (c Challenge) Ready() bool {
	return c.CoinTimestamp != Unset && c.DifficultyTimestamp != Unset
}

// implement zap.ObjectMarshaler interface.
func (c Challenge) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("coin_id", c.CoinID)
	enc.AddInt64("coin_timestamp", c.CoinTimestamp)
	enc.AddUint("difficulty", c.Difficulty)
	enc.AddInt64("difficulty_timestamp", c.DifficultyTimestamp)
	return nil
}

type Coin struct {
	ID        string
	Timestamp int64
}

type Difficulty struct {
	Value     uint
	Timestamp int64
}

// Update is a partial challenge. Nil groups are left untouched by Merge.
type Update struct {
	Coin       *Coin
	Difficulty *Difficulty
}

// MergeResult tells which groups of an Update were taken.
// A group that was absent from the update is neither accepted nor stale.
type MergeResult struct {
	CoinAccepted       bool
	CoinStale          bool
	DifficultyAccepted bool
	DifficultyStale    bool
}

// Changed reports whether the merge modified the store.
func (r MergeResult) Changed() bool {
	return r.CoinAccepted || r.DifficultyAccepted
}

// Stats are the poll counters kept alongside the challenge.
type Stats struct {
	Merges      uint64
	Failures    uint64
	StaleCoin   uint64
	StaleDiff   uint64
	LastFailure string
}

// Store holds the most recently known Challenge.
// It is safe for concurrent use; a single lock covers both field groups
// so readers never see a value paired with a foreign timestamp.
type Store struct {
	mu        sync.RWMutex
	challenge Challenge
	stats     Stats
}

func NewStore() *Store {
	return &Store{
		challenge: Challenge{
			CoinTimestamp:       Unset,
			DifficultyTimestamp: Unset,
		},
	}
}

// Merge applies a take-if-newer policy to each field group of u independently.
// A group is replaced, value and timestamp together, only when the incoming
// timestamp is strictly greater than the stored one.
func (s *Store) Merge(u Update) MergeResult {
	var res MergeResult

	s.mu.Lock()
	if u.Coin != nil {
		if u.Coin.Timestamp > s.challenge.CoinTimestamp {
			s.challenge.CoinID = u.Coin.ID
			s.challenge.CoinTimestamp = u.Coin.Timestamp
			res.CoinAccepted = true
		} else {
			s.stats.StaleCoin++
			res.CoinStale = true
		}
	}
	if u.Difficulty != nil {
		if u.Difficulty.Timestamp > s.challenge.DifficultyTimestamp {
			s.challenge.Difficulty = u.Difficulty.Value
			s.challenge.DifficultyTimestamp = u.Difficulty.Timestamp
			res.DifficultyAccepted = true
		} else {
			s.stats.StaleDiff++
			res.DifficultyStale = true
		}
	}
	s.stats.Merges++
	s.mu.Unlock()

	observeMerge("coin", res.CoinAccepted, res.CoinStale)
	observeMerge("difficulty", res.DifficultyAccepted, res.DifficultyStale)
	return res
}

func observeMerge(group string, accepted, stale bool) {
	switch {
	case accepted:
		mergesMetric.WithLabelValues(group, "accepted").Inc()
	case stale:
		mergesMetric.WithLabelValues(group, "stale").Inc()
	}
}

// Snapshot returns a consistent copy of the whole challenge.
func (s *Store) Snapshot() Challenge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.challenge
}

// RecordFailure counts a poll cycle whose results were discarded.
func (s *Store) RecordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Failures++
	if err != nil {
		s.stats.LastFailure = err.Error()
	}
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
