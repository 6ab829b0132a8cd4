// Package fetch retrieves raw agenda HTML using a gocolly collector.
package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// DefaultUserAgent identifies this service to the source agenda system.
const DefaultUserAgent = "CouncilMeetingsBot/1.0 (civic engagement tool)"

// Fetcher retrieves the raw HTML for a single URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// InsecureSkipVerify disables TLS certificate verification. The eScribe
	// host presents certificates some environments refuse to validate.
	InsecureSkipVerify bool
}

// CollyFetcher implements Fetcher using the Colly collector. Redirects are
// followed, non-2xx responses fail the fetch, and each call carries the
// configured user agent and request timeout.
type CollyFetcher struct {
	cfg       Config
	transport http.RoundTripper
}

// New builds a CollyFetcher.
func New(cfg Config) *CollyFetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &CollyFetcher{
		cfg:       cfg,
		transport: newHTTPTransport(cfg.InsecureSkipVerify),
	}
}

// Fetch executes a single HTTP GET and returns the response body.
func (f *CollyFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	collector := colly.NewCollector(colly.Async(false))
	collector.UserAgent = f.cfg.UserAgent
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(f.cfg.Timeout)
	collector.WithTransport(f.transport)

	var (
		body     []byte
		fetchErr error
	)

	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			fetchErr = fmt.Errorf("fetch %s: status %d: %w", url, r.StatusCode, err)
			return
		}
		fetchErr = fmt.Errorf("fetch %s: %w", url, err)
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch %s canceled: %w", url, ctx.Err())
	case err := <-done:
		if fetchErr != nil {
			return nil, fetchErr
		}
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", url, err)
		}
		return body, nil
	}
}

func newHTTPTransport(insecure bool) *http.Transport {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return transport
}
