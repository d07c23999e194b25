package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"profile-ingest/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte("PNG"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(time.Second, "test-agent")

	body, err := f.Fetch(context.Background(), srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, "PNG", readAll(t, body))

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestHTTPFetcher_RateLimitPerHost(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("PNG"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(time.Second, "").WithRateLimit(0.001, 1)

	body, err := f.Fetch(context.Background(), srv.URL+"/a.png")
	require.NoError(t, err)
	_ = body.Close()

	// The burst is spent; the next token is far past the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = f.Fetch(ctx, srv.URL+"/b.png")
	assert.ErrorContains(t, err, "rate limit")
	assert.Equal(t, int32(1), hits.Load())

	assert.Nil(t, NewHTTPFetcher(time.Second, "").WithRateLimit(0, 5).limiter("example.com"))
}

func TestParseObjectRef(t *testing.T) {
	bucket, key, err := ParseObjectRef("s3://profile-assets/p1/photo.png")
	require.NoError(t, err)
	assert.Equal(t, "profile-assets", bucket)
	assert.Equal(t, "p1/photo.png", key)

	for _, bad := range []string{"https://x/y", "s3://bucket-only", "s3:///key", "%zz"} {
		_, _, err := ParseObjectRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestStorageFetcher(t *testing.T) {
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "profile-assets", "p1/photo.png", minio.GetObjectOptions{}).
		Return(io.NopCloser(strings.NewReader("IMG")), nil)
	client.On("GetObject", mock.Anything, "profile-assets", "p2/photo.png", minio.GetObjectOptions{}).
		Return(nil, errors.New("NoSuchKey"))

	f := NewStorageFetcher(client)

	body, err := f.Fetch(context.Background(), "s3://profile-assets/p1/photo.png")
	require.NoError(t, err)
	assert.Equal(t, "IMG", readAll(t, body))

	_, err = f.Fetch(context.Background(), "s3://profile-assets/p2/photo.png")
	assert.ErrorContains(t, err, "NoSuchKey")

	client.AssertExpectations(t)
}

type funcFetcher func(ctx context.Context, ref string) (io.ReadCloser, error)

func (f funcFetcher) Fetch(ctx context.Context, ref string) (io.ReadCloser, error) { return f(ctx, ref) }

func TestRouter(t *testing.T) {
	named := func(name string) funcFetcher {
		return func(context.Context, string) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(name)), nil
		}
	}
	r := NewRouter().Handle(named("web"), "http", "https").Handle(named("s3"), "s3")

	body, err := r.Fetch(context.Background(), "HTTPS://img/a.png")
	require.NoError(t, err)
	assert.Equal(t, "web", readAll(t, body))

	body, err = r.Fetch(context.Background(), "s3://b/k")
	require.NoError(t, err)
	assert.Equal(t, "s3", readAll(t, body))

	_, err = r.Fetch(context.Background(), "ftp://host/file")
	assert.ErrorContains(t, err, `no fetcher for scheme "ftp"`)
}

func TestDedupe_SharesConcurrentDownloads(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	slow := funcFetcher(func(context.Context, string) (io.ReadCloser, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return io.NopCloser(strings.NewReader("BYTES")), nil
	})
	d := NewDedupe(slow, 0)

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body, err := d.Fetch(context.Background(), "https://img/a.png")
			if assert.NoError(t, err) {
				results[i] = readAll(t, body)
			}
		}(i)
	}

	// Give every goroutine time to join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, "BYTES", r)
	}
}

func TestDedupe_CancelledCallerDoesNotFailOthers(t *testing.T) {
	var calls int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	slow := funcFetcher(func(ctx context.Context, _ string) (io.ReadCloser, error) {
		atomic.AddInt32(&calls, 1)
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return io.NopCloser(strings.NewReader("BYTES")), nil
	})
	d := NewDedupe(slow, 0)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := d.Fetch(ctx, "https://img/a.png")
		firstErr <- err
	}()
	<-started

	second := make(chan string, 1)
	go func() {
		body, err := d.Fetch(context.Background(), "https://img/a.png")
		if assert.NoError(t, err) {
			second <- readAll(t, body)
			return
		}
		second <- ""
	}()

	// Give the second caller time to join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	assert.Equal(t, "BYTES", <-second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDedupe_Timeout(t *testing.T) {
	hang := funcFetcher(func(ctx context.Context, _ string) (io.ReadCloser, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	d := NewDedupe(hang, 0).WithTimeout(20 * time.Millisecond)

	_, err := d.Fetch(context.Background(), "s3://profile-assets/p1.png")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDedupe_LimitAndErrors(t *testing.T) {
	big := funcFetcher(func(_ context.Context, ref string) (io.ReadCloser, error) {
		if ref == "bad" {
			return nil, errors.New("refused")
		}
		return io.NopCloser(strings.NewReader("0123456789")), nil
	})
	d := NewDedupe(big, 4)

	body, err := d.Fetch(context.Background(), "big")
	require.NoError(t, err)
	assert.Equal(t, "01234", readAll(t, body), "buffers one byte past the limit")

	_, err = d.Fetch(context.Background(), "bad")
	assert.ErrorContains(t, err, "refused")
}

func TestNew(t *testing.T) {
	f, err := New(Config{Mode: ModeReference}, nil)
	require.NoError(t, err)
	assert.Nil(t, f)

	f, err = New(Config{Mode: ModeContent, TimeoutSeconds: 1, MaxAssetBytes: 10}, new(mocks.Client))
	require.NoError(t, err)
	assert.IsType(t, &Dedupe{}, f)

	_, err = New(Config{Mode: "magic"}, nil)
	assert.Error(t, err)
}
