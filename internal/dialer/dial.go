package dialer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"

	"go.uber.org/zap"

	"github.com/frankli0324/go-browse/internal/urls"
	"github.com/frankli0324/go-browse/utils/netpool"
)

var zeroDialer net.Dialer
var customDnsDialer = net.Dialer{
	Resolver: &customServerResolver,
}

func (d *CoreDialer) Acquire(ctx context.Context, u *urls.URL) (netpool.Conn, error) {
	dial := func(ctx context.Context) (net.Conn, error) {
		return d.dial(ctx, u)
	}
	if d.ConnPool == nil {
		conn, err := dial(ctx)
		if err != nil {
			return nil, err
		}
		return netpool.Direct(conn, d.logger()), nil
	}
	key := netpool.Key{Scheme: string(u.Scheme), Host: u.Host, Port: u.Port}
	return d.ConnPool.Connect(ctx, key, dial)
}

func (d *CoreDialer) dial(ctx context.Context, u *urls.URL) (net.Conn, error) {
	if d.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.ConnectTimeout)
		defer cancel()
	}
	log := d.logger().With(zap.String("addr", u.Address()))

	conn, err := d.tryDialProxy(ctx, u)
	if err != nil {
		log.Debug("dial over proxy failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w: %w", ErrConnectFailed, ErrProxyFailed, err)
	}
	if conn == nil {
		conn, err = d.dialDirect(ctx, u.Host, strconv.Itoa(u.Port))
		if err != nil {
			log.Debug("dial failed", zap.Error(err))
			return nil, fmt.Errorf("%w: %s: %w", ErrConnectFailed, u.Address(), err)
		}
	}
	if u.Encrypted() {
		config := d.TLSConfig.Clone()
		if config == nil {
			config = &tls.Config{}
		}
		config.ServerName = u.Host
		c := tls.Client(conn, config)
		if err := c.HandshakeContext(ctx); err != nil {
			conn.Close()
			log.Debug("tls handshake failed", zap.Error(err))
			return nil, fmt.Errorf("%w: %s: %w", ErrTLSFailed, u.Host, err)
		}
		conn = c
	}
	log.Debug("dialed", zap.Bool("tls", u.Encrypted()))
	return conn, nil
}

func (d *CoreDialer) dialDirect(ctx context.Context, host, port string) (net.Conn, error) {
	// as of now net.Dialer could handle current DNS configurations
	network, dialer, dialctx, dst := "tcp", &zeroDialer, ctx, net.JoinHostPort(host, port)

	if cfg := d.ResolveConfig; cfg != nil {
		if cfg.Network == "ip4" {
			network = "tcp4"
		} else if cfg.Network == "ip6" {
			network = "tcp6"
		}
		if static, ok := cfg.StaticHosts[host]; ok {
			dst = net.JoinHostPort(static, port)
		}
		if dns := cfg.CustomDNSServer; dns != "" {
			dialctx = dnsServerCtx{dialctx, dns}
			dialer = &customDnsDialer
		}
	}
	return dialer.DialContext(dialctx, network, dst)
}
