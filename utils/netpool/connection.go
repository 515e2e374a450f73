package netpool

import (
	"io"
	"net"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// conn is the pooled stream. It outlives the handles that check it out.
type conn struct {
	raw      net.Conn
	pool     *Pool
	isClosed atomic.Bool
	lastIdle time.Time
}

func (c *conn) Available() bool {
	return !c.isClosed.Load()
}

func (c *conn) fail(op string, err error) {
	if err != io.EOF {
		c.pool.logger.Debug("netpool: stream error", zap.String("op", op),
			zap.String("addr", c.raw.RemoteAddr().String()), zap.Error(err))
	}
	c.isClosed.Store(true)
}

func (c *conn) close() error {
	c.isClosed.Store(true)
	return c.raw.Close()
}

// handle is one checkout of a conn. Release and Close take effect once;
// later calls, and any I/O after either, are no-ops or fail.
type handle struct {
	c    *conn
	done atomic.Bool
}

func (h *handle) Write(p []byte) (n int, err error) {
	if h.done.Load() {
		return 0, net.ErrClosed
	}
	n, err = h.c.raw.Write(p)
	if err != nil {
		h.c.fail("write", err)
	}
	return
}

func (h *handle) Read(p []byte) (n int, err error) {
	if h.done.Load() {
		return 0, net.ErrClosed
	}
	n, err = h.c.raw.Read(p)
	if err != nil {
		h.c.fail("read", err)
	}
	return
}

// SetDeadline and friends let exchanges interrupt blocked I/O.
func (h *handle) SetDeadline(t time.Time) error      { return h.c.raw.SetDeadline(t) }
func (h *handle) SetReadDeadline(t time.Time) error  { return h.c.raw.SetReadDeadline(t) }
func (h *handle) SetWriteDeadline(t time.Time) error { return h.c.raw.SetWriteDeadline(t) }

func (h *handle) Raw() net.Conn {
	return h.c.raw
}

func (h *handle) Close() error {
	if !h.done.CompareAndSwap(false, true) {
		return nil
	}
	err := h.c.close()
	h.c.pool.free()
	return err
}

func (h *handle) Release() {
	if !h.done.CompareAndSwap(false, true) {
		return
	}
	h.c.pool.put(h.c)
}
