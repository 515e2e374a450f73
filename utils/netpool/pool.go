package netpool

import (
	"context"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/frankli0324/go-browse/utils/nettools"
)

type Conn interface {
	io.ReadWriteCloser
	// Release hands the stream back for reuse. A stream that saw an I/O
	// error is closed instead.
	Release()
	Raw() net.Conn
}

type DialFunc func(ctx context.Context) (net.Conn, error)

type Options struct {
	// MaxConnsPerHost bounds the live streams of one pool, zero means
	// unbounded. Callers over the bound wait for a stream to come back.
	MaxConnsPerHost uint
	MaxIdlePerHost  uint
	// MaxIdleDuration discards streams idle for longer, zero keeps them.
	MaxIdleDuration time.Duration
	Logger          *zap.Logger
	// Probe reports an idle stream unusable, defaults to nettools.IsStale.
	Probe func(net.Conn) bool
}

type Pool struct {
	logger          *zap.Logger
	connTicket      chan struct{} // nil when unbounded
	idleTicket      chan *conn
	maxIdleDuration time.Duration
	probe           func(net.Conn) bool
}

func NewPool(opts Options) *Pool {
	p := &Pool{
		logger:          opts.Logger,
		idleTicket:      make(chan *conn, opts.MaxIdlePerHost),
		maxIdleDuration: opts.MaxIdleDuration,
		probe:           opts.Probe,
	}
	if opts.MaxConnsPerHost > 0 {
		p.connTicket = make(chan struct{}, opts.MaxConnsPerHost)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.probe == nil {
		p.probe = nettools.IsStale
	}
	return p
}

// Connect hands out an idle stream if a usable one exists, dialing a new
// one otherwise. Each idle stream goes to exactly one caller.
func (p *Pool) Connect(ctx context.Context, dial DialFunc) (Conn, error) {
	for {
		select {
		case c := <-p.idleTicket:
			if p.reusable(c) {
				return &handle{c: c}, nil
			}
			p.discard(c)
			continue
		default:
		}
		if p.connTicket == nil {
			return p.dial(ctx, dial)
		}
		select {
		case c := <-p.idleTicket:
			if p.reusable(c) {
				return &handle{c: c}, nil
			}
			p.discard(c)
		case p.connTicket <- struct{}{}:
			return p.dial(ctx, dial)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Idle is the number of streams waiting for reuse.
func (p *Pool) Idle() int {
	return len(p.idleTicket)
}

// CloseIdle closes every idle stream.
func (p *Pool) CloseIdle() {
	for {
		select {
		case c := <-p.idleTicket:
			p.discard(c)
		default:
			return
		}
	}
}

func (p *Pool) dial(ctx context.Context, dial DialFunc) (Conn, error) {
	raw, err := dial(ctx)
	if err != nil {
		p.free()
		return nil, err
	}
	return &handle{c: &conn{raw: raw, pool: p}}, nil
}

func (p *Pool) reusable(c *conn) bool {
	if !c.Available() {
		return false
	}
	if p.maxIdleDuration != 0 && time.Since(c.lastIdle) > p.maxIdleDuration {
		return false
	}
	return !p.probe(c.raw)
}

func (p *Pool) put(c *conn) {
	if !c.Available() {
		p.free()
		return
	}
	c.lastIdle = time.Now()
	select {
	case p.idleTicket <- c:
	default:
		p.discard(c)
	}
}

func (p *Pool) discard(c *conn) {
	c.close()
	p.free()
}

func (p *Pool) free() {
	if p.connTicket != nil {
		<-p.connTicket
	}
}

// Direct wraps a stream that never enters a pool; Release closes it.
func Direct(raw net.Conn, logger *zap.Logger) Conn {
	return &handle{c: &conn{raw: raw, pool: NewPool(Options{Logger: logger})}}
}
