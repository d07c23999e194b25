package fetcher

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"profile-ingest/core/reconcile"
	"profile-ingest/core/storage"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/singleflight"
)

// Router dispatches a reference to the fetcher registered for its scheme.
type Router struct {
	schemes map[string]reconcile.Fetcher
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{schemes: make(map[string]reconcile.Fetcher)}
}

// Handle registers f for the given schemes.
func (r *Router) Handle(f reconcile.Fetcher, schemes ...string) *Router {
	for _, s := range schemes {
		r.schemes[strings.ToLower(s)] = f
	}
	return r
}

// Fetch implements reconcile.Fetcher.
func (r *Router) Fetch(ctx context.Context, ref string) (io.ReadCloser, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse %s", ref)
	}
	f, ok := r.schemes[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, eris.Errorf("fetcher: no fetcher for scheme %q", u.Scheme)
	}
	return f.Fetch(ctx, ref)
}

// Dedupe shares one download between concurrent fetches of the same reference.
// Bodies are buffered up to limit+1 bytes so the hasher still sees oversized assets.
type Dedupe struct {
	next    reconcile.Fetcher
	limit   int64
	timeout time.Duration
	sf      singleflight.Group
}

// NewDedupe wraps next. A limit of zero or less buffers whole bodies.
func NewDedupe(next reconcile.Fetcher, limit int64) *Dedupe {
	return &Dedupe{next: next, limit: limit}
}

// WithTimeout bounds each shared download. Zero leaves it to the wrapped fetcher.
func (d *Dedupe) WithTimeout(timeout time.Duration) *Dedupe {
	d.timeout = timeout
	return d
}

// Fetch implements reconcile.Fetcher. The shared download is detached from the
// cancellation of whichever caller started it and is bounded by the
// Dedupe's timeout; each caller stops waiting when its own ctx is done.
func (d *Dedupe) Fetch(ctx context.Context, ref string) (io.ReadCloser, error) {
	detached := context.WithoutCancel(ctx)
	ch := d.sf.DoChan(ref, func() (any, error) {
		download := detached
		if d.timeout > 0 {
			var cancel context.CancelFunc
			download, cancel = context.WithTimeout(detached, d.timeout)
			defer cancel()
		}

		body, err := d.next.Fetch(download, ref)
		if err != nil {
			return nil, err
		}
		defer body.Close()

		var r io.Reader = body
		if d.limit > 0 {
			r = io.LimitReader(body, d.limit+1)
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: read %s", ref)
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, eris.Wrapf(ctx.Err(), "fetcher: wait for %s", ref)
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return io.NopCloser(bytes.NewReader(res.Val.([]byte))), nil
	}
}

// New builds the fetcher described by cfg. In reference mode it returns nil and
// the hasher fingerprints reference strings. Content mode serves http and https
// references, plus s3 references when client is not nil.
func New(cfg Config, client storage.Client) (reconcile.Fetcher, error) {
	switch cfg.Mode {
	case ModeReference, "":
		return nil, nil
	case ModeContent:
	default:
		return nil, eris.Errorf("fetcher: unknown mode %q", cfg.Mode)
	}

	httpFetcher := NewHTTPFetcher(time.Duration(cfg.TimeoutSeconds)*time.Second, cfg.UserAgent).
		WithRateLimit(cfg.RatePerSecond, cfg.RateBurst)
	router := NewRouter().Handle(httpFetcher, "http", "https")
	if client != nil {
		router.Handle(NewStorageFetcher(client), "s3")
	}
	return NewDedupe(router, cfg.MaxAssetBytes).
		WithTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second), nil
}
