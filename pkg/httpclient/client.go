package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// Config holds HTTP client configuration.
type Config struct {
	Timeout         time.Duration
	MaxRetries      int
	RetryWaitMin    time.Duration
	RetryWaitMax    time.Duration
	MaxConnsPerHost int
}

// DefaultConfig suits calls to a media host: uploads can be slow, so the
// overall timeout is generous while retries stay few.
func DefaultConfig() Config {
	return Config{
		Timeout:         60 * time.Second,
		MaxRetries:      2,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    4 * time.Second,
		MaxConnsPerHost: 20,
	}
}

// Client retries transient failures with jittered exponential backoff.
type Client struct {
	hc  *http.Client
	cfg Config
}

// New creates a Client.
func New(cfg Config) *Client {
	return &Client{
		hc:  &http.Client{Transport: newTransport(cfg.MaxConnsPerHost), Timeout: cfg.Timeout},
		cfg: cfg,
	}
}

// newTransport keeps net/http's proxy and dial defaults and sizes the pool
// for a single upstream host.
func newTransport(perHost int) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = perHost
	t.MaxConnsPerHost = perHost
	return t
}

// Do sends req and retries it while retryable says so. A request whose body
// cannot be rewound through req.GetBody is sent once.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	hasBody := req.Body != nil && req.Body != http.NoBody
	rewindable := !hasBody || req.GetBody != nil

	for attempt := 1; ; attempt++ {
		resp, err := c.hc.Do(req)
		final := !rewindable || attempt > c.cfg.MaxRetries
		if final || !retryable(resp, err) {
			if err != nil {
				return nil, fmt.Errorf("%s %s failed after %d attempt(s): %w", req.Method, req.URL.Host, attempt, err)
			}
			return resp, nil
		}

		if resp != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
		if err := c.backoff(ctx, attempt); err != nil {
			return nil, err
		}
		if hasBody {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewind request body: %w", err)
			}
			req.Body = body
		}
	}
}

// retryable is true for network errors other than cancellation and for 5xx
// answers other than 501.
func retryable(resp *http.Response, err error) bool {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		var netErr net.Error
		return errors.As(err, &netErr)
	}
	return resp.StatusCode >= http.StatusInternalServerError && resp.StatusCode != http.StatusNotImplemented
}

func (c *Client) backoff(ctx context.Context, attempt int) error {
	d := c.cfg.RetryWaitMin << (attempt - 1)
	if d <= 0 || d > c.cfg.RetryWaitMax {
		d = c.cfg.RetryWaitMax
	}

	t := time.NewTimer(addJitter(d))
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// addJitter spreads d by ±25%.
func addJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	spread := float64(d) / 4
	return time.Duration(float64(d) - spread + rand.Float64()*2*spread)
}
