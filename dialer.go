package browse

import (
	"github.com/frankli0324/go-browse/internal/dialer"
	"github.com/frankli0324/go-browse/utils/netpool"
)

// Dialer hands a Session its streams; see package dialer for the
// contract and [Session.UseDialer] for wrapping one.
type Dialer = dialer.Dialer
type CoreDialer = dialer.CoreDialer

// ProxyConfig and ResolveConfig tune the proxy hop and name lookups of a
// CoreDialer.
type (
	ProxyConfig   = dialer.ProxyConfig
	ResolveConfig = dialer.ResolveConfig
)

// Conn is a stream checked out for one exchange.
type Conn = netpool.Conn

var (
	ErrConnectFailed = dialer.ErrConnectFailed
	ErrTLSFailed     = dialer.ErrTLSFailed
	ErrProxyFailed   = dialer.ErrProxyFailed
)
