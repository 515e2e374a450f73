package internal_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"

	"github.com/frankli0324/go-browse/internal"
	"github.com/frankli0324/go-browse/internal/config"
	"github.com/frankli0324/go-browse/internal/dialer"
	"github.com/frankli0324/go-browse/internal/http"
	"github.com/frankli0324/go-browse/internal/monitoring"
	"github.com/frankli0324/go-browse/internal/transport"
	"github.com/frankli0324/go-browse/internal/urls"
)

func newSession(t *testing.T, opts ...internal.Option) (*internal.Session, *TestDialer) {
	t.Helper()
	d := NewTestDialer()
	s := internal.New(append([]internal.Option{internal.WithDialer(d)}, opts...)...)
	t.Cleanup(s.Close)
	return s, d
}

func historyStrings(s *internal.Session) []string {
	entries, _ := s.History()
	out := make([]string, len(entries))
	for i, u := range entries {
		out[i] = u.String()
	}
	return out
}

func TestFetchTwiceHitsNetworkOnce(t *testing.T) {
	s, d := newSession(t)
	ctx := context.Background()

	first, err := s.Fetch(ctx, "http://example.com/page")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 200, first.StatusCode)
	assert.Equal(t, "body of /page", string(first.Body))

	second, err := s.Fetch(ctx, "example.com/page")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Body, second.Body)

	assert.Equal(t, 1, d.Acquired())
	assert.Equal(t, []string{"http://example.com/page", "http://example.com/page"}, historyStrings(s))
}

func TestFetchWritesRequest(t *testing.T) {
	s, d := newSession(t, internal.WithExchange(transport.HTTP1{UserAgent: "Browser"}))
	_, err := s.Fetch(context.Background(), "https://Example.COM")
	require.NoError(t, err)
	assert.Equal(t, []string{"GET / HTTP/1.0\r\nHost: example.com\r\nUser-Agent: Browser\r\n\r\n"}, d.Requests())
}

func TestFetchBadURL(t *testing.T) {
	s, d := newSession(t)
	_, err := s.Fetch(context.Background(), "http:///path")

	assert.ErrorIs(t, err, internal.ErrBadURL)
	assert.ErrorIs(t, err, urls.ErrEmpty)
	var fe *internal.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "http:///path", fe.URL)
	assert.Empty(t, historyStrings(s))
	assert.Zero(t, d.Acquired())
}

func TestFailedFetchRecordedNotCached(t *testing.T) {
	f := &FailingDialer{Err: fmt.Errorf("%w: refused", dialer.ErrConnectFailed)}
	s := internal.New(internal.WithDialer(f))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := s.Fetch(ctx, "example.com")
		assert.ErrorIs(t, err, dialer.ErrConnectFailed)
		var fe *internal.Error
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "http://example.com/", fe.URL)
	}
	assert.Equal(t, int32(2), f.acquired.Load())
	assert.Equal(t, 2, len(historyStrings(s)))
	assert.Zero(t, s.CacheLen())
}

func TestNon2xxIsAPage(t *testing.T) {
	s, d := newSession(t)
	d.Respond("/missing", "HTTP/1.1 404 Not Found\r\n\r\nnope")

	page, err := s.Fetch(context.Background(), "example.com/missing")
	require.NoError(t, err)
	assert.Equal(t, 404, page.StatusCode)
	assert.False(t, page.OK())
	assert.Equal(t, "nope", string(page.Body))
}

func TestMalformedResponse(t *testing.T) {
	s, d := newSession(t)
	d.Respond("/", "garbled")

	_, err := s.Fetch(context.Background(), "example.com")
	assert.ErrorIs(t, err, transport.ErrMalformedStatusLine)
	assert.Equal(t, "malformed_response", internal.ErrorKind(err))
	assert.Zero(t, s.CacheLen())
}

func TestPeerHungUp(t *testing.T) {
	s, d := newSession(t)
	d.Respond("/gone", "")

	_, err := s.Fetch(context.Background(), "example.com/gone")
	assert.ErrorIs(t, err, transport.ErrReadFailed)
	assert.Equal(t, "read_failed", internal.ErrorKind(err))
	assert.Zero(t, s.CacheLen())
}

func TestBackForward(t *testing.T) {
	s, d := newSession(t)
	ctx := context.Background()

	_, err := s.Back(ctx)
	assert.ErrorIs(t, err, internal.ErrNoHistory)

	_, err = s.Fetch(ctx, "a.test")
	require.NoError(t, err)
	_, err = s.Fetch(ctx, "b.test")
	require.NoError(t, err)

	page, err := s.Back(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://a.test/", page.URL.String())
	assert.True(t, page.Cached)

	_, err = s.Back(ctx)
	assert.ErrorIs(t, err, internal.ErrNoHistory)
	cur, _ := s.Current()
	assert.Equal(t, "http://a.test/", cur.String())

	page, err = s.Forward(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://b.test/", page.URL.String())

	_, err = s.Forward(ctx)
	assert.ErrorIs(t, err, internal.ErrNoHistory)

	assert.Equal(t, 2, d.Acquired())
	assert.Equal(t, []string{"http://a.test/", "http://b.test/"}, historyStrings(s))
}

func TestNavigateTruncatesForward(t *testing.T) {
	s, _ := newSession(t)
	ctx := context.Background()
	for _, raw := range []string{"a.test", "b.test"} {
		_, err := s.Navigate(ctx, raw)
		require.NoError(t, err)
	}
	_, err := s.Back(ctx)
	require.NoError(t, err)
	_, err = s.Navigate(ctx, "c.test")
	require.NoError(t, err)

	_, err = s.Forward(ctx)
	assert.ErrorIs(t, err, internal.ErrNoHistory)
	entries, cursor := s.History()
	assert.Len(t, entries, 2)
	assert.Equal(t, 1, cursor)
}

func TestBackLoadsUncached(t *testing.T) {
	s, d := newSession(t)
	ctx := context.Background()
	_, err := s.Fetch(ctx, "a.test")
	require.NoError(t, err)
	_, err = s.Fetch(ctx, "b.test")
	require.NoError(t, err)
	s.ClearCache()

	page, err := s.Back(ctx)
	require.NoError(t, err)
	assert.False(t, page.Cached)
	assert.Equal(t, 3, d.Acquired())
	assert.Len(t, historyStrings(s), 2)
}

func TestRefresh(t *testing.T) {
	s, d := newSession(t)
	ctx := context.Background()

	_, err := s.Refresh(ctx)
	assert.ErrorIs(t, err, internal.ErrNoHistory)

	_, err = s.Fetch(ctx, "example.com")
	require.NoError(t, err)
	d.Respond("/", "HTTP/1.0 200 OK\r\n\r\nfresh")

	page, err := s.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, page.Cached)
	assert.Equal(t, "fresh", string(page.Body))
	assert.Equal(t, 2, d.Acquired())
	assert.Len(t, historyStrings(s), 1)

	page, err = s.Fetch(ctx, "example.com")
	require.NoError(t, err)
	assert.True(t, page.Cached)
	assert.Equal(t, "fresh", string(page.Body))
}

func TestInvalidate(t *testing.T) {
	s, d := newSession(t)
	ctx := context.Background()
	_, err := s.Fetch(ctx, "example.com")
	require.NoError(t, err)

	ok, err := s.Invalidate("HTTP://EXAMPLE.COM/")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = s.Invalidate("example.com")
	assert.False(t, ok)
	_, err = s.Invalidate("")
	assert.ErrorIs(t, err, internal.ErrBadURL)

	_, err = s.Fetch(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, d.Acquired())
}

func TestAbandonedBeforeStart(t *testing.T) {
	s, d := newSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Fetch(ctx, "example.com")
	assert.ErrorIs(t, err, internal.ErrAbandoned)
	assert.Empty(t, historyStrings(s))
	assert.Zero(t, d.Acquired())
}

func TestAbandonedInFlightWritesNothing(t *testing.T) {
	s, d := newSession(t)
	d.hold = make(chan struct{})
	defer close(d.hold)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)
	_, err := s.Fetch(ctx, "example.com")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "abandoned", internal.ErrorKind(err))

	assert.Zero(t, s.CacheLen())
	assert.Len(t, historyStrings(s), 1) // recorded before the network step
}

func TestAbandonedMoveNamesCurrentPage(t *testing.T) {
	s, _ := newSession(t)
	_, err := s.Fetch(context.Background(), "a.test")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for name, op := range map[string]func(context.Context) (*internal.Page, error){
		"Back":    s.Back,
		"Forward": s.Forward,
		"Refresh": s.Refresh,
	} {
		_, err := op(ctx)
		var fe *internal.Error
		require.ErrorAs(t, err, &fe, name)
		assert.ErrorIs(t, err, internal.ErrAbandoned, name)
		assert.Equal(t, "http://a.test/", fe.URL, name)
	}
	assert.Equal(t, 1, s.CacheLen())
}

func TestConcurrentFetches(t *testing.T) {
	s, d := newSession(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Fetch(context.Background(), fmt.Sprintf("host%d.test/p", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 16, d.Acquired())
	assert.Len(t, historyStrings(s), 16)
	assert.Equal(t, 16, s.CacheLen())
}

func TestMiddlewareOrder(t *testing.T) {
	s, _ := newSession(t)
	var calls []string
	mark := func(name string) internal.Middleware {
		return func(next internal.Handler) internal.Handler {
			return func(ctx context.Context, u *urls.URL) (*http.Response, error) {
				calls = append(calls, name)
				return next(ctx, u)
			}
		}
	}
	s.Use(mark("first"), mark("second"))
	s.Use(mark("third"))

	_, err := s.Fetch(context.Background(), "example.com")
	require.NoError(t, err)
	_, err = s.Fetch(context.Background(), "example.com") // cache hit skips the chain
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, calls)
}

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s, d := newSession(t)
	s.Use(internal.LoggingMiddleware(zap.New(core)))
	d.Respond("/bad", "garbled")

	_, err := s.Fetch(context.Background(), "example.com")
	require.NoError(t, err)
	_, err = s.Fetch(context.Background(), "example.com/bad")
	require.Error(t, err)

	fetched := logs.FilterMessage("fetched").All()
	require.Len(t, fetched, 1)
	assert.Equal(t, "http://example.com/", fetched[0].ContextMap()["url"])
	assert.EqualValues(t, 200, fetched[0].ContextMap()["status"])

	failed := logs.FilterMessage("fetch failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "malformed_response", failed[0].ContextMap()["kind"])
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := monitoring.NewMetrics(reg)
	s, _ := newSession(t, internal.WithMetrics(m))
	s.Use(internal.MetricsMiddleware(m))

	for i := 0; i < 3; i++ {
		_, err := s.Fetch(context.Background(), "example.com")
		require.NoError(t, err)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
}

func TestRateLimit(t *testing.T) {
	s, d := newSession(t)
	s.Use(internal.RateLimitMiddleware(rate.NewLimiter(rate.Every(time.Hour), 1)))

	_, err := s.Fetch(context.Background(), "a.test")
	require.NoError(t, err)
	_, err = s.Fetch(context.Background(), "a.test") // cache hits are free
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = s.Fetch(ctx, "b.test")
	assert.ErrorIs(t, err, internal.ErrRateLimited)
	assert.Equal(t, 1, d.Acquired())
}

func TestDisablePooling(t *testing.T) {
	s := internal.New()
	assert.True(t, s.DisablePooling())
	assert.False(t, s.DisablePooling())

	s2, _ := newSession(t)
	assert.False(t, s2.DisablePooling())
}

func TestErrorKind(t *testing.T) {
	cases := map[string]error{
		"ok":             nil,
		"tls_failed":     fmt.Errorf("%w: x", dialer.ErrTLSFailed),
		"proxy_failed":   fmt.Errorf("%w: %w: x", dialer.ErrConnectFailed, dialer.ErrProxyFailed),
		"connect_failed": dialer.ErrConnectFailed,
		"write_failed":   transport.ErrWriteFailed,
		"read_failed":    transport.ErrReadFailed,
		"abandoned":      fmt.Errorf("%w: %w", transport.ErrReadFailed, context.Canceled),
		"bad_url":        &internal.Error{Err: internal.ErrBadURL},
		"error":          errors.New("other"),
	}
	for want, err := range cases {
		assert.Equal(t, want, internal.ErrorKind(err), want)
	}
}

func TestNewSessionFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmarks.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- title: docs\n  url: https://go.dev/doc\n"), 0o600))

	cfg := config.Default()
	cfg.Bookmarks.File = path
	cfg.Session.RateLimitRPS = 10
	cfg.Dial.Proxy = "socks5://127.0.0.1:1080"
	cfg.Dial.ProxyResolveLocally = true

	s, err := internal.NewSessionFromConfig(cfg, nil, prometheus.NewRegistry())
	require.NoError(t, err)
	defer s.Close()
	assert.NotEmpty(t, s.ID)
	var core *dialer.CoreDialer
	s.UseDialer(func(d dialer.Dialer) dialer.Dialer {
		core = dialer.Core(d)
		return d
	})
	require.NotNil(t, core)
	require.NotNil(t, core.ProxyConfig)
	assert.True(t, core.ProxyConfig.ResolveLocally)
	require.Equal(t, 1, s.Bookmarks().Len())
	assert.Equal(t, "docs", s.Bookmarks().List()[0].Title)
	assert.True(t, s.DisablePooling())

	cfg.Bookmarks.File = filepath.Join(t.TempDir(), "missing", "dir", "x.yaml")
	_, err = internal.NewSessionFromConfig(cfg, nil, nil)
	assert.NoError(t, err) // a missing file is an empty store

	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	cfg.Bookmarks.File = path
	_, err = internal.NewSessionFromConfig(cfg, nil, nil)
	assert.Error(t, err)
}
