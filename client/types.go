package client

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// CoinIDLength is the length of a coin id: a hex encoded sha256 digest.
const CoinIDLength = 64

// MaxDifficulty is the number of hex characters in a coin hash.
const MaxDifficulty = 64

var (
	// ErrTransport covers connection failures, timeouts and unreadable bodies.
	ErrTransport = errors.New("transport failure")
	// ErrResponseTooLarge is a transport failure caused by a body above the configured bound.
	ErrResponseTooLarge = fmt.Errorf("%w: response too large", ErrTransport)
	// ErrProtocol is returned for non-success status codes.
	ErrProtocol = errors.New("unexpected response status")
	// ErrParse is returned for malformed bodies or bodies missing expected fields.
	ErrParse = errors.New("malformed response")
	// ErrInvalidTimeout is returned for a request timeout that does not bound requests.
	ErrInvalidTimeout = errors.New("request timeout must be positive")
)

type Config struct {
	RequestTimeout  time.Duration `long:"request-timeout"   description:"Timeout of a single request to the coin service"`
	Retries         int           `long:"request-retries"   description:"Number of transport level retries of a request (0 disables retries)"`
	RetryWaitMin    time.Duration `long:"retry-wait-min"    description:"Minimum wait between request retries"`
	RetryWaitMax    time.Duration `long:"retry-wait-max"    description:"Maximum wait between request retries"`
	MaxResponseSize int64         `long:"max-response-size" description:"Maximum size of a response body in bytes"`
}

// Validate rejects a configuration that leaves requests unbounded.
func (c Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, c.RequestTimeout)
	}
	return nil
}

func DefaultConfig() Config {
	return Config{
		RequestTimeout:  5 * time.Second,
		Retries:         0,
		RetryWaitMin:    100 * time.Millisecond,
		RetryWaitMax:    time.Second,
		MaxResponseSize: 1024,
	}
}

// LastCoin is the last accepted coin as reported by the service.
type LastCoin struct {
	CoinID    string
	Timestamp int64
}

// Difficulty is the number of leading zeros a coin hash must have.
type Difficulty struct {
	Value     uint
	Timestamp int64
}

// Submission is the body of a solution submission.
type Submission struct {
	CoinBlob  string `json:"coin_blob"`
	IDOfMiner string `json:"id_of_miner"`
}

// NewSubmission base64 encodes blob for the wire.
func NewSubmission(blob []byte, minerID string) Submission {
	return Submission{
		CoinBlob:  base64.StdEncoding.EncodeToString(blob),
		IDOfMiner: minerID,
	}
}

// Ack is the advisory response to a submission.
type Ack struct {
	StatusCode int
	Body       string
}

type lastCoinResponse struct {
	CoinID    *string `json:"coin_id"`
	TimeStamp *int64  `json:"time_stamp"`
}

func (r lastCoinResponse) validate() (LastCoin, error) {
	switch {
	case r.CoinID == nil:
		return LastCoin{}, fmt.Errorf("%w: missing coin_id", ErrParse)
	case r.TimeStamp == nil:
		return LastCoin{}, fmt.Errorf("%w: missing time_stamp", ErrParse)
	case len(*r.CoinID) != CoinIDLength:
		return LastCoin{}, fmt.Errorf("%w: coin_id has length %d, expected %d", ErrParse, len(*r.CoinID), CoinIDLength)
	}
	if _, err := hex.DecodeString(*r.CoinID); err != nil {
		return LastCoin{}, fmt.Errorf("%w: coin_id is not hex: %v", ErrParse, err)
	}
	return LastCoin{CoinID: *r.CoinID, Timestamp: *r.TimeStamp}, nil
}

type difficultyResponse struct {
	NumberOfLeadingZeros *int64 `json:"number_of_leading_zeros"`
	TimeStamp            *int64 `json:"time_stamp"`
}

func (r difficultyResponse) validate() (Difficulty, error) {
	switch {
	case r.NumberOfLeadingZeros == nil:
		return Difficulty{}, fmt.Errorf("%w: missing number_of_leading_zeros", ErrParse)
	case r.TimeStamp == nil:
		return Difficulty{}, fmt.Errorf("%w: missing time_stamp", ErrParse)
	case *r.NumberOfLeadingZeros < 0:
		return Difficulty{}, fmt.Errorf("%w: negative number_of_leading_zeros %d", ErrParse, *r.NumberOfLeadingZeros)
	case *r.NumberOfLeadingZeros > MaxDifficulty:
		return Difficulty{}, fmt.Errorf("%w: number_of_leading_zeros %d above %d", ErrParse, *r.NumberOfLeadingZeros, MaxDifficulty)
	}
	return Difficulty{Value: uint(*r.NumberOfLeadingZeros), Timestamp: *r.TimeStamp}, nil
}
