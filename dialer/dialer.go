package dialer

import (
	"github.com/frankli0324/go-browse/internal/dialer"
	"github.com/frankli0324/go-browse/utils/netpool"
)

// Dialers are responsible for creating underlying streams that fetches could
// be written to and responses could be read from. for example, opening a raw TCP
// connection and upgrading it to TLS for https addresses.
//
// A Dialer hands out streams it owns exclusively to one fetch at a time. The
// stream goes back through [netpool.Conn.Release] when the exchange left it
// reusable and through Close otherwise. Like [net/http.Transport], it SHOULD
// hold the connection related configs like [ProxyConfig] or *[crypto/tls.Config].
type Dialer = dialer.Dialer

// CoreDialer is the default implementation of the [Dialer] interface. A session
// built without an explicit dialer uses one with pooling turned on.
type CoreDialer = dialer.CoreDialer

type ProxyConfig = dialer.ProxyConfig

// ResolveConfig decides where a fetch's host name is looked up: a fixed
// address from StaticHosts, a DNS server other than the system one, or
// only one address family. It applies to direct dials, and with
// [ProxyConfig.ResolveLocally] to the target handed to the proxy, so an
// HTTP or SOCKS5 proxy sees an IP literal instead of the name.
type ResolveConfig = dialer.ResolveConfig

// Conn is a checked out stream.
type Conn = netpool.Conn

// FixedProxy routes every fetch through one proxy URL (http, https or
// socks5).
var FixedProxy = dialer.FixedProxy
