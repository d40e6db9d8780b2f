package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Desktop browser UA; several boards serve error stubs to obvious bots.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

const (
	DefaultTimeout = 5 * time.Second
	RetryTimeout   = 15 * time.Second
)

// Result is a fetched page. Body is empty when StatusCode >= 400; an HTTP
// error verdict never needs the body.
type Result struct {
	StatusCode int
	Body       string
}

type Client struct {
	hc      *http.Client
	limiter *HostLimiter
}

func NewClient(limiter *HostLimiter) *Client {
	// Per-request deadlines come from the context; no client timeout so
	// the retry pass can use a longer one.
	return NewClientWithHTTP(&http.Client{}, limiter)
}

func NewClientWithHTTP(hc *http.Client, limiter *HostLimiter) *Client {
	return &Client{hc: hc, limiter: limiter}
}

// Get fetches the URL with a browser user agent, following redirects, bounded
// by timeout. The limiter (when set) paces requests per host.
func (c *Client) Get(ctx context.Context, rawURL string, timeout time.Duration) (Result, error) {
	if c.limiter != nil {
		if err := c.limiter.WaitURL(ctx, rawURL); err != nil {
			return Result{}, err
		}
	}

	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	res, err := c.hc.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		io.Copy(io.Discard, res.Body)
		return Result{StatusCode: res.StatusCode}, nil
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read body: %w", err)
	}
	return Result{StatusCode: res.StatusCode, Body: string(data)}, nil
}

// IsTimeout reports whether the fetch failed by exceeding its deadline, as
// opposed to a DNS/connection failure.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	// http.Client wraps context deadline errors with its own text.
	return err != nil && strings.Contains(err.Error(), "context deadline exceeded")
}
