package fetcher

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// HTTPFetcher downloads http and https asset references.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string

	// Per-host limiters; nil limit means unlimited.
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHTTPFetcher creates an HTTPFetcher whose requests time out after timeout.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
	}
	return &HTTPFetcher{
		client:    &http.Client{Transport: transport, Timeout: timeout},
		userAgent: userAgent,
	}
}

// WithRateLimit caps downloads to perSecond requests per host. perSecond <= 0
// leaves downloads unlimited.
func (f *HTTPFetcher) WithRateLimit(perSecond float64, burst int) *HTTPFetcher {
	if perSecond <= 0 {
		return f
	}
	if burst < 1 {
		burst = 1
	}
	f.limit = rate.Limit(perSecond)
	f.burst = burst
	f.limiters = make(map[string]*rate.Limiter)
	return f
}

func (f *HTTPFetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.limiters == nil {
		return nil
	}
	l, ok := f.limiters[host]
	if !ok {
		l = rate.NewLimiter(f.limit, f.burst)
		f.limiters[host] = l
	}
	return l
}

// Fetch issues a GET for ref. Any status outside 2xx is an error.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) (io.ReadCloser, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse %s", ref)
	}
	if l := f.limiter(u.Host); l != nil {
		if err := l.Wait(ctx); err != nil {
			return nil, eris.Wrapf(err, "fetcher: rate limit for %s", u.Host)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: build request for %s", ref)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: GET %s", ref)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, eris.Errorf("fetcher: GET %s: unexpected status %d", ref, resp.StatusCode)
	}
	return resp.Body, nil
}
