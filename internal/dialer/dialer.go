package dialer

import (
	"context"
	"crypto/tls"
	"time"

	"go.uber.org/zap"

	"github.com/frankli0324/go-browse/internal/urls"
	"github.com/frankli0324/go-browse/utils/netpool"
)

// Dialers handle pretty much everything related to the actual connection,
// including setting a proxy for each fetch, setting resolvers, etc.
type Dialer interface {
	// Acquire returns a stream ready for an exchange with u's host, already
	// upgraded to TLS for the encrypted scheme. The caller owns the stream
	// until it calls Release or Close.
	Acquire(ctx context.Context, u *urls.URL) (netpool.Conn, error)
	Unwrap() Dialer
}

type CoreDialer struct {
	Logger        *zap.Logger
	ResolveConfig *ResolveConfig

	TLSConfig      *tls.Config   // the config to use, ServerName is always overridden
	ConnectTimeout time.Duration // covers dialing and the handshake

	ConnPool    *netpool.PoolGroup // nil disables pooling
	GetProxy    func(ctx context.Context, u *urls.URL) (string, error)
	ProxyConfig *ProxyConfig
}

func (d *CoreDialer) Unwrap() Dialer {
	return nil
}

func (d *CoreDialer) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// Core walks a chain of wrapping dialers down to its *CoreDialer, nil if
// there is none.
func Core(d Dialer) *CoreDialer {
	for d != nil {
		if c, ok := d.(*CoreDialer); ok {
			return c
		}
		d = d.Unwrap()
	}
	return nil
}
