package mining

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/spacemeshos/coinminer/client"
	"github.com/spacemeshos/coinminer/journal"
	"github.com/spacemeshos/coinminer/logging"
)

// SubmitClient posts a submission to the service.
type SubmitClient interface {
	Submit(ctx context.Context, submission client.Submission) (client.Ack, error)
}

// Recorder keeps found coins for later inspection.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) (journal.Entry, error)
}

var submissionsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coinminer",
	Subsystem: "submitter",
	Name:      "submissions_total",
	Help:      "Number of submitted coins by result",
}, []string{"result"})

// Submitter sends found coins exactly once. Failures are logged and dropped.
type Submitter struct {
	client   SubmitClient
	recorder Recorder
}

type SubmitterOptionFunc func(*Submitter)

// WithRecorder records the outcome of every submission.
func WithRecorder(recorder Recorder) SubmitterOptionFunc {
	return func(s *Submitter) {
		s.recorder = recorder
	}
}

func NewSubmitter(client SubmitClient, opts ...SubmitterOptionFunc) *Submitter {
	s := &Submitter{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Submitter) Submit(ctx context.Context, found Found) {
	logger := logging.FromContext(ctx).With(zap.Uint64("nonce", uint64(found.Candidate)))
	if found.Proxy != "" {
		logger = logger.With(zap.String("proxy", found.Proxy))
	}

	submission := client.NewSubmission(found.Candidate.Blob(), found.Puzzle.MinerID)
	ack, err := s.client.Submit(withProxy(ctx, found.Proxy), submission)
	submissionsMetric.WithLabelValues(client.Classify(err)).Inc()
	if err != nil {
		logger.Error("failed to submit coin", zap.String("coin_blob", submission.CoinBlob), zap.Error(err))
	} else {
		logger.Info("submitted coin",
			zap.String("coin_blob", submission.CoinBlob),
			zap.Int("status", ack.StatusCode),
			zap.String("response", ack.Body),
		)
	}

	if s.recorder == nil {
		return
	}
	entry := journal.Entry{
		CoinID:     found.Puzzle.CoinID,
		Difficulty: uint32(found.Puzzle.Difficulty),
		Nonce:      uint64(found.Candidate),
		Blob:       submission.CoinBlob,
		MinerID:    submission.IDOfMiner,
		Proxy:      found.Proxy,
		Submitted:  err == nil,
		StatusCode: int32(ack.StatusCode),
		Response:   ack.Body,
	}
	if !found.At.IsZero() {
		entry.FoundAt = found.At.UnixNano()
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if _, err := s.recorder.Record(ctx, entry); err != nil {
		logger.Warn("failed to record coin in journal", zap.Error(err))
	}
}
