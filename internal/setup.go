package internal

import (
	"crypto/tls"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/frankli0324/go-browse/internal/bookmarks"
	"github.com/frankli0324/go-browse/internal/config"
	"github.com/frankli0324/go-browse/internal/dialer"
	"github.com/frankli0324/go-browse/internal/monitoring"
	"github.com/frankli0324/go-browse/internal/transport"
	"github.com/frankli0324/go-browse/utils/netpool"
)

// NewSessionFromConfig wires a session as cfg describes. reg may be nil,
// in which case no metrics are kept.
func NewSessionFromConfig(cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	marks := bookmarks.New()
	if cfg.Bookmarks.File != "" {
		var err error
		if marks, err = bookmarks.Load(cfg.Bookmarks.File); err != nil {
			return nil, err
		}
	}

	d := &dialer.CoreDialer{
		Logger:         logger,
		ConnectTimeout: cfg.Dial.ConnectTimeout,
		TLSConfig:      &tls.Config{MinVersion: tls.VersionTLS12},
		ResolveConfig: &dialer.ResolveConfig{
			CustomDNSServer: cfg.Dial.DNSServer,
			Network:         cfg.Dial.IPNetwork,
			StaticHosts:     cfg.Dial.StaticHosts,
		},
	}
	if cfg.Dial.PoolEnabled {
		d.ConnPool = netpool.NewGroup(netpool.Options{
			MaxConnsPerHost: cfg.Dial.MaxConnsPerHost,
			MaxIdlePerHost:  cfg.Dial.MaxIdlePerHost,
			MaxIdleDuration: cfg.Dial.MaxIdleDuration,
			Logger:          logger,
		})
	}
	if cfg.Dial.Proxy != "" {
		d.GetProxy = dialer.FixedProxy(cfg.Dial.Proxy)
		d.ProxyConfig = &dialer.ProxyConfig{ResolveLocally: cfg.Dial.ProxyResolveLocally}
	}

	opts := []Option{
		WithDialer(d),
		WithExchange(transport.HTTP1{
			UserAgent:       cfg.Exchange.UserAgent,
			MaxResponseSize: cfg.Exchange.MaxResponseSize,
			ReadTimeout:     cfg.Exchange.ReadTimeout,
			KeepAlive:       cfg.Exchange.KeepAlive,
		}),
		WithLogger(logger),
		WithBookmarks(marks),
	}
	var metrics *monitoring.Metrics
	if reg != nil {
		metrics = monitoring.NewMetrics(reg)
		opts = append(opts, WithMetrics(metrics))
	}
	s := New(opts...)

	s.Use(LoggingMiddleware(s.Logger()))
	if rps := cfg.Session.RateLimitRPS; rps > 0 {
		s.Use(RateLimitMiddleware(rate.NewLimiter(rate.Limit(rps), cfg.Session.RateLimitBurst)))
	}
	if metrics != nil {
		s.Use(MetricsMiddleware(metrics))
	}
	return s, nil
}
