// Package browse fetches documents over plain and encrypted HTTP/1.0,
// remembering where it has been and what it has seen.
package browse

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/frankli0324/go-browse/internal"
	"github.com/frankli0324/go-browse/internal/config"
	"github.com/frankli0324/go-browse/internal/http"
	"github.com/frankli0324/go-browse/internal/urls"
)

type Session = internal.Session
type Page = internal.Page
type Error = internal.Error
type Option = internal.Option

type Handler = internal.Handler
type Middleware = internal.Middleware

type Response = http.Response
type Headers = http.Headers
type URL = urls.URL
type Config = config.Config

var (
	ErrBadURL      = internal.ErrBadURL
	ErrNoHistory   = internal.ErrNoHistory
	ErrAbandoned   = internal.ErrAbandoned
	ErrRateLimited = internal.ErrRateLimited
)

// New returns a session with pooling on and no logging.
func New(opts ...Option) *Session {
	return internal.New(opts...)
}

func NewFromConfig(cfg *Config, logger *zap.Logger, reg prometheus.Registerer) (*Session, error) {
	return internal.NewSessionFromConfig(cfg, logger, reg)
}

// Resolve parses a typed address the way a session does.
func Resolve(raw string) (*URL, error) {
	return urls.Resolve(raw)
}
