package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/spacemeshos/coinminer/logging"
	"github.com/spacemeshos/coinminer/proxy"
)

const (
	LastCoinPath   = "/last_coin"
	DifficultyPath = "/difficulty"
)

var (
	requestsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coinminer",
		Subsystem: "client",
		Name:      "requests_total",
		Help:      "Number of HTTP exchanges with the coin service by endpoint and result",
	}, []string{"endpoint", "result"})

	parseErrorsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coinminer",
		Subsystem: "client",
		Name:      "parse_errors_total",
		Help:      "Number of coin service responses that could not be decoded",
	}, []string{"endpoint"})
)

// HTTPClient talks to the coin service.
// Requests are routed through the proxy attached to their context with WithProxy.
type HTTPClient struct {
	baseURL   *url.URL
	submitURL *url.URL
	cfg       Config
	client    *retryablehttp.Client
}

type proxyKey struct{}

// WithProxy routes all requests issued with the returned context through address.
func WithProxy(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, proxyKey{}, address)
}

// ProxyFromContext returns the proxy attached to ctx, if any.
func ProxyFromContext(ctx context.Context) (string, bool) {
	address, ok := ctx.Value(proxyKey{}).(string)
	return address, ok && address != ""
}

func proxyFromRequest(req *http.Request) (*url.URL, error) {
	address, ok := ProxyFromContext(req.Context())
	if !ok {
		return nil, nil
	}
	normalized, err := proxy.Normalize(address)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy %q: %w", address, err)
	}
	return url.Parse(normalized)
}

func parseURL(raw string) (*url.URL, error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in %q", raw)
	}
	return u, nil
}

// NewHTTPClient returns a client for the service at baseURL that submits solutions to submitURL.
func NewHTTPClient(ctx context.Context, baseURL, submitURL string, cfg Config) (*HTTPClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base, err := parseURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	submit, err := parseURL(submitURL)
	if err != nil {
		return nil, fmt.Errorf("parsing submit url: %w", err)
	}

	transport := &http.Transport{
		Proxy: proxyFromRequest,
		DialContext: (&net.Dialer{
			Timeout:   cfg.RequestTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.RequestTimeout,
		ExpectContinueTimeout: time.Second,
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = &http.Client{Transport: transport}
	client.RetryMax = cfg.Retries
	client.RetryWaitMin = cfg.RetryWaitMin
	client.RetryWaitMax = cfg.RetryWaitMax
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = &leveledLogger{logging.FromContext(ctx).Named("http").Sugar()}

	return &HTTPClient{
		baseURL:   base,
		submitURL: submit,
		cfg:       cfg,
		client:    client,
	}, nil
}

// LastCoin fetches the last accepted coin.
func (c *HTTPClient) LastCoin(ctx context.Context) (LastCoin, error) {
	var res lastCoinResponse
	if err := c.get(ctx, LastCoinPath, &res); err != nil {
		return LastCoin{}, fmt.Errorf("querying last coin: %w", err)
	}
	coin, err := res.validate()
	if err != nil {
		parseErrorsMetric.WithLabelValues(LastCoinPath).Inc()
		return LastCoin{}, fmt.Errorf("querying last coin: %w", err)
	}
	return coin, nil
}

// Difficulty fetches the current difficulty.
func (c *HTTPClient) Difficulty(ctx context.Context) (Difficulty, error) {
	var res difficultyResponse
	if err := c.get(ctx, DifficultyPath, &res); err != nil {
		return Difficulty{}, fmt.Errorf("querying difficulty: %w", err)
	}
	difficulty, err := res.validate()
	if err != nil {
		parseErrorsMetric.WithLabelValues(DifficultyPath).Inc()
		return Difficulty{}, fmt.Errorf("querying difficulty: %w", err)
	}
	return difficulty, nil
}

// Submit posts a solution. The response body is advisory only.
func (c *HTTPClient) Submit(ctx context.Context, submission Submission) (Ack, error) {
	body, err := json.Marshal(submission)
	if err != nil {
		return Ack{}, fmt.Errorf("marshaling submission: %w", err)
	}
	status, data, err := c.do(ctx, http.MethodPost, c.submitURL, "submit", body)
	ack := Ack{StatusCode: status, Body: string(data)}
	if err != nil {
		return ack, fmt.Errorf("submitting solution: %w", err)
	}
	return ack, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, resBody any) error {
	_, data, err := c.do(ctx, http.MethodGet, c.baseURL.JoinPath(path), path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, resBody); err != nil {
		parseErrorsMetric.WithLabelValues(path).Inc()
		return fmt.Errorf("%w: decoding response body: %v", ErrParse, err)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method string, target *url.URL, endpoint string, body []byte) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	var reqBody any
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, target.String(), reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.client.Do(req)
	if err != nil {
		requestsMetric.WithLabelValues(endpoint, "transport").Inc()
		return 0, nil, fmt.Errorf("%w: doing request: %v", ErrTransport, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, c.cfg.MaxResponseSize+1))
	switch {
	case err != nil:
		requestsMetric.WithLabelValues(endpoint, "transport").Inc()
		return res.StatusCode, nil, fmt.Errorf("%w: reading response body: %v", ErrTransport, err)
	case int64(len(data)) > c.cfg.MaxResponseSize:
		requestsMetric.WithLabelValues(endpoint, "transport").Inc()
		return res.StatusCode, nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, c.cfg.MaxResponseSize)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		requestsMetric.WithLabelValues(endpoint, "protocol").Inc()
		return res.StatusCode, data, fmt.Errorf("%w: response status code: %s, body: %s", ErrProtocol, res.Status, string(data))
	}

	requestsMetric.WithLabelValues(endpoint, "ok").Inc()
	return res.StatusCode, data, nil
}

// Classify names the class of a client error, for logs and metrics.
func Classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrResponseTooLarge):
		return "too_large"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, ErrParse):
		return "parse"
	default:
		return "unknown"
	}
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger.
type leveledLogger struct {
	l *zap.SugaredLogger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...any) {
	l.l.Errorw(msg, keysAndValues...)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...any) {
	l.l.Debugw(msg, keysAndValues...)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...any) {
	l.l.Debugw(msg, keysAndValues...)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...any) {
	l.l.Warnw(msg, keysAndValues...)
}
