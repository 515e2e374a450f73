package internal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/frankli0324/go-browse/internal/bookmarks"
	"github.com/frankli0324/go-browse/internal/cache"
	"github.com/frankli0324/go-browse/internal/dialer"
	"github.com/frankli0324/go-browse/internal/history"
	"github.com/frankli0324/go-browse/internal/http"
	"github.com/frankli0324/go-browse/internal/monitoring"
	"github.com/frankli0324/go-browse/internal/transport"
	"github.com/frankli0324/go-browse/internal/urls"
	"github.com/frankli0324/go-browse/utils/netpool"
)

// Handler performs the network part of a fetch: acquire a stream, run
// one exchange on it, hand the stream back.
type Handler = func(ctx context.Context, u *urls.URL) (*http.Response, error)
type Middleware func(next Handler) Handler

type Page struct {
	URL *urls.URL
	*http.Response
	Cached bool // served from the response cache without network I/O
}

// Session owns a navigation history and a response cache and drives
// fetches through them. It is safe for concurrent use: the history and
// cache are only touched under one lock, which is never held during
// network I/O.
type Session struct {
	ID string

	logger      *zap.Logger
	metrics     *monitoring.Metrics
	dialer      dialer.Dialer
	exchange    transport.Exchange
	middlewares []Middleware

	mu        sync.Mutex
	history   *history.History[*urls.URL]
	cache     *cache.Cache[*http.Response]
	bookmarks *bookmarks.Store
}

type Option func(*Session)

func WithDialer(d dialer.Dialer) Option { return func(s *Session) { s.dialer = d } }
func WithExchange(e transport.Exchange) Option { return func(s *Session) { s.exchange = e } }
func WithLogger(l *zap.Logger) Option { return func(s *Session) { s.logger = l } }
func WithMetrics(m *monitoring.Metrics) Option { return func(s *Session) { s.metrics = m } }
func WithBookmarks(b *bookmarks.Store) Option { return func(s *Session) { s.bookmarks = b } }

func New(opts ...Option) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		history:   history.New[*urls.URL](),
		cache:     cache.New[*http.Response](),
		bookmarks: bookmarks.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.With(zap.String("session", s.ID))
	if s.dialer == nil {
		s.dialer = &dialer.CoreDialer{
			Logger: s.logger,
			ConnPool: netpool.NewGroup(netpool.Options{
				MaxConnsPerHost: 16,
				MaxIdlePerHost:  4,
				MaxIdleDuration: 90 * time.Second,
				Logger:          s.logger,
			}),
		}
	}
	if s.exchange == nil {
		s.exchange = transport.HTTP1{KeepAlive: true}
	}
	return s
}

// Use appends mws to the chain around the network step. The first
// "Use"d mw is the outermost and executes first.
func (s *Session) Use(mws ...Middleware) {
	s.middlewares = append(s.middlewares, mws...)
}

// UseDialer replaces the dialer with what wrap makes of it, e.g. a
// dialer that wraps the current one.
func (s *Session) UseDialer(wrap func(dialer.Dialer) dialer.Dialer) {
	s.dialer = wrap(s.dialer)
}

func (s *Session) Logger() *zap.Logger {
	return s.logger
}

func (s *Session) Bookmarks() *bookmarks.Store {
	return s.bookmarks
}

// Fetch resolves raw, records it in the history and returns the cached
// response if there is one, fetching it over the network otherwise. The
// visit is recorded even when the fetch then fails; only successful
// fetches are cached. Non-2xx responses are successful fetches.
func (s *Session) Fetch(ctx context.Context, raw string) (*Page, error) {
	u, err := urls.Resolve(raw)
	if err != nil {
		return nil, &Error{URL: raw, Err: fmt.Errorf("%w: %w", ErrBadURL, err)}
	}

	s.mu.Lock()
	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		return nil, abandoned(u, err)
	}
	s.history.Navigate(u)
	page := s.lookup(u)
	s.mu.Unlock()

	if page != nil {
		return page, nil
	}
	return s.load(ctx, u)
}

// Navigate is Fetch under its browser name.
func (s *Session) Navigate(ctx context.Context, raw string) (*Page, error) {
	return s.Fetch(ctx, raw)
}

// Back moves one step back in the history and loads the page there,
// without recording a new visit.
func (s *Session) Back(ctx context.Context) (*Page, error) {
	return s.move(ctx, s.history.Back)
}

func (s *Session) Forward(ctx context.Context) (*Page, error) {
	return s.move(ctx, s.history.Forward)
}

func (s *Session) move(ctx context.Context, step func() (*urls.URL, bool)) (*Page, error) {
	s.mu.Lock()
	if err := ctx.Err(); err != nil {
		cur, _ := s.history.Current()
		s.mu.Unlock()
		return nil, abandoned(cur, err)
	}
	u, ok := step()
	if !ok {
		s.mu.Unlock()
		return nil, ErrNoHistory
	}
	page := s.lookup(u)
	s.mu.Unlock()

	if page != nil {
		return page, nil
	}
	return s.load(ctx, u)
}

// Refresh drops the cached response for the current page and fetches it
// again.
func (s *Session) Refresh(ctx context.Context) (*Page, error) {
	s.mu.Lock()
	if err := ctx.Err(); err != nil {
		cur, _ := s.history.Current()
		s.mu.Unlock()
		return nil, abandoned(cur, err)
	}
	u, ok := s.history.Current()
	if !ok {
		s.mu.Unlock()
		return nil, ErrNoHistory
	}
	s.cache.Invalidate(u.String())
	s.mu.Unlock()

	return s.load(ctx, u)
}

// Current returns the URL under the history cursor.
func (s *Session) Current() (*urls.URL, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Current()
}

// History returns the visited URLs, oldest first, and the cursor index.
func (s *Session) History() ([]*urls.URL, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Entries(), s.history.Cursor()
}

// Invalidate drops the cached response for raw and reports whether there
// was one.
func (s *Session) Invalidate(raw string) (bool, error) {
	u, err := urls.Resolve(raw)
	if err != nil {
		return false, &Error{URL: raw, Err: fmt.Errorf("%w: %w", ErrBadURL, err)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Invalidate(u.String()), nil
}

func (s *Session) ClearCache() {
	s.mu.Lock()
	s.cache.Clear()
	s.mu.Unlock()
}

func (s *Session) CacheLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

// DisablePooling turns connection reuse off for every dialer in the
// chain, closing what is idle. It reports whether any pool was found.
func (s *Session) DisablePooling() (ok bool) {
	for d := s.dialer; d != nil; d = d.Unwrap() {
		if cd, isCore := d.(*dialer.CoreDialer); isCore && cd.ConnPool != nil {
			cd.ConnPool.CloseIdle()
			cd.ConnPool = nil
			ok = true
		}
	}
	return
}

// Close releases the idle streams the session holds.
func (s *Session) Close() {
	for d := s.dialer; d != nil; d = d.Unwrap() {
		if cd, isCore := d.(*dialer.CoreDialer); isCore && cd.ConnPool != nil {
			cd.ConnPool.CloseIdle()
		}
	}
}

// lookup must be called with s.mu held.
func (s *Session) lookup(u *urls.URL) *Page {
	resp, hit := s.cache.Lookup(u.String())
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(hit)
	}
	if !hit {
		return nil
	}
	s.logger.Debug("cache hit", zap.String("url", u.String()))
	return &Page{URL: u, Response: resp, Cached: true}
}

// load runs the network step and caches its result unless the caller
// gave up in the meantime.
func (s *Session) load(ctx context.Context, u *urls.URL) (*Page, error) {
	resp, err := s.handler()(ctx, u)
	if err != nil {
		return nil, &Error{URL: u.String(), Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, abandoned(u, err)
	}
	s.cache.Store(u.String(), resp)
	return &Page{URL: u, Response: resp}, nil
}

func (s *Session) handler() Handler {
	next := s.network
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		next = s.middlewares[i](next)
	}
	return next
}

func (s *Session) network(ctx context.Context, u *urls.URL) (*http.Response, error) {
	conn, err := s.dialer.Acquire(ctx, u)
	if err != nil {
		return nil, err
	}
	resp, err := s.exchange.SendRequest(ctx, conn, u.Authority(), u.Path)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if resp.Close {
		conn.Close()
	} else {
		conn.Release()
	}
	return resp, nil
}

// abandoned annotates err with u, which is nil before the first visit.
func abandoned(u *urls.URL, err error) error {
	e := &Error{Err: fmt.Errorf("%w: %w", ErrAbandoned, err)}
	if u != nil {
		e.URL = u.String()
	}
	return e
}
