package proxy

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spacemeshos/coinminer/logging"
)

// MaxAddressLength is the longest accepted proxy address.
const MaxAddressLength = 255

// Selector picks a proxy for every outbound cycle.
// The list is immutable after construction.
type Selector struct {
	addresses []string

	mu  sync.Mutex
	rng *rand.Rand
}

type selectorOptions struct {
	rng *rand.Rand
}

type OptionFunc func(*selectorOptions)

// WithRand replaces the random source, mostly for tests.
func WithRand(rng *rand.Rand) OptionFunc {
	return func(o *selectorOptions) {
		o.rng = rng
	}
}

func NewSelector(addresses []string, opts ...OptionFunc) *Selector {
	options := selectorOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.rng == nil {
		options.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Selector{
		addresses: append([]string(nil), addresses...),
		rng:       options.rng,
	}
}

// Select returns an address chosen uniformly at random, or false when the list is empty.
func (s *Selector) Select() (string, bool) {
	if len(s.addresses) == 0 {
		return "", false
	}
	s.mu.Lock()
	i := s.rng.Intn(len(s.addresses))
	s.mu.Unlock()
	return s.addresses[i], true
}

func (s *Selector) Len() int {
	return len(s.addresses)
}

// Addresses returns a copy of the proxy list.
func (s *Selector) Addresses() []string {
	return append([]string(nil), s.addresses...)
}

// Normalize validates a proxy address and adds the http scheme when it is missing.
func Normalize(address string) (string, error) {
	if len(address) > MaxAddressLength {
		return "", fmt.Errorf("address longer than %d bytes", MaxAddressLength)
	}
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}
	u, err := url.Parse(address)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host in %q", address)
	}
	return u.String(), nil
}

// maxLineLength bounds the bytes kept from a single line, whitespace included.
const maxLineLength = 4 * MaxAddressLength

// readLine returns the next line without its terminator. Lines above maxLineLength
// are consumed entirely and reported as too long.
func readLine(r *bufio.Reader) (string, bool, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return string(buf), tooLong, err
		}
		if !tooLong {
			buf = append(buf, chunk...)
			if len(buf) > maxLineLength {
				buf, tooLong = nil, true
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

// LoadList reads one proxy address per line, as written in the file.
// Blank lines, comments and invalid addresses are skipped.
func LoadList(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening proxy list: %w", err)
	}
	defer f.Close()

	logger := logging.FromContext(ctx).With(zap.String("path", path))

	var addresses []string
	r := bufio.NewReader(f)
	for line := 1; ; line++ {
		entry, tooLong, err := readLine(r)
		if errors.Is(err, io.EOF) && entry == "" && !tooLong {
			break
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading proxy list: %w", err)
		}
		entry = strings.TrimSpace(entry)
		switch {
		case tooLong:
			logger.Warn("skipping invalid proxy address", zap.Int("line", line),
				zap.Error(fmt.Errorf("address longer than %d bytes", MaxAddressLength)))
		case entry == "" || strings.HasPrefix(entry, "#"):
		default:
			if _, err := Normalize(entry); err != nil {
				logger.Warn("skipping invalid proxy address", zap.Int("line", line), zap.Error(err))
				break
			}
			addresses = append(addresses, entry)
		}
		if errors.Is(err, io.EOF) {
			break
		}
	}
	return addresses, nil
}
