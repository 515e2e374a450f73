// Package config reads settings from BROWSE_* environment variables,
// e.g. BROWSE_DIAL_PROXY or BROWSE_EXCHANGE_USER_AGENT.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const Prefix = "BROWSE"

type Config struct {
	Dial      DialConfig
	Exchange  ExchangeConfig
	Session   SessionConfig
	Logging   LogConfig
	Bookmarks BookmarksConfig
	Metrics   MetricsConfig
}

type DialConfig struct {
	ConnectTimeout  time.Duration     `envconfig:"CONNECT_TIMEOUT" default:"10s"`
	DNSServer       string            `envconfig:"DNS_SERVER"`
	IPNetwork       string            `envconfig:"IP_NETWORK"`   // "ip4", "ip6" or empty for both
	StaticHosts     map[string]string `envconfig:"STATIC_HOSTS"` // host:ip,host:ip
	PoolEnabled     bool              `envconfig:"POOL_ENABLED" default:"true"`
	MaxConnsPerHost uint              `envconfig:"MAX_CONNS_PER_HOST" default:"16"`
	MaxIdlePerHost  uint              `envconfig:"MAX_IDLE_PER_HOST" default:"4"`
	MaxIdleDuration time.Duration     `envconfig:"MAX_IDLE_DURATION" default:"90s"`

	Proxy string `envconfig:"PROXY"` // http, https or socks5 URL
	// ProxyResolveLocally looks target hosts up here, so the proxy is
	// handed an IP literal.
	ProxyResolveLocally bool `envconfig:"PROXY_RESOLVE_LOCALLY" default:"false"`
}

type ExchangeConfig struct {
	UserAgent       string        `envconfig:"USER_AGENT" default:"go-browse/1.0"`
	MaxResponseSize int64         `envconfig:"MAX_RESPONSE_SIZE" default:"1048576"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`
	KeepAlive       bool          `envconfig:"KEEP_ALIVE" default:"true"`
}

type SessionConfig struct {
	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"0"` // zero disables the limit
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"1"`
}

type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

type BookmarksConfig struct {
	File string `envconfig:"FILE"` // empty keeps bookmarks in memory only
}

type MetricsConfig struct {
	Addr string `envconfig:"ADDR"` // empty disables the /metrics listener
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault falls back to Default when the environment can't be
// parsed.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

func Default() *Config {
	return &Config{
		Dial: DialConfig{
			ConnectTimeout:  10 * time.Second,
			PoolEnabled:     true,
			MaxConnsPerHost: 16,
			MaxIdlePerHost:  4,
			MaxIdleDuration: 90 * time.Second,
		},
		Exchange: ExchangeConfig{
			UserAgent:       "go-browse/1.0",
			MaxResponseSize: 1 << 20,
			ReadTimeout:     30 * time.Second,
			KeepAlive:       true,
		},
		Session: SessionConfig{
			RateLimitBurst: 1,
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}

func (c *Config) Validate() error {
	switch c.Dial.IPNetwork {
	case "", "ip", "ip4", "ip6":
	default:
		return fmt.Errorf("config: %s_DIAL_IP_NETWORK must be ip, ip4 or ip6, got %q", Prefix, c.Dial.IPNetwork)
	}
	if c.Exchange.MaxResponseSize <= 0 {
		return fmt.Errorf("config: %s_EXCHANGE_MAX_RESPONSE_SIZE must be positive", Prefix)
	}
	if c.Session.RateLimitRPS < 0 || (c.Session.RateLimitRPS > 0 && c.Session.RateLimitBurst < 1) {
		return fmt.Errorf("config: bad rate limit %v/s burst %d", c.Session.RateLimitRPS, c.Session.RateLimitBurst)
	}
	return nil
}
