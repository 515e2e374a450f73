package nettools

import (
	"net"
	"syscall"
)

type Mode int

const (
	ModePoll Mode = iota
)

var (
	// supported probes report whether fd has something to read, including
	// the end of stream.
	supported = map[Mode]func(fd int) (bool, error){}
	picked    func(fd int) (bool, error)
)

func init() {
	for _, mode := range []Mode{ModePoll} {
		if supported[mode] != nil {
			picked = supported[mode]
			break
		}
	}
}

// Supported reports whether IsStale can look at sockets on this platform.
func Supported() bool {
	return picked != nil
}

// IsStale reports whether an idle connection can no longer carry a fresh
// exchange: its peer hung up, or it has bytes waiting that nobody asked
// for. A connection without a descriptor (e.g. net.Pipe) or a platform
// without a probe is never reported stale.
func IsStale(c net.Conn) bool {
	if picked == nil {
		return false
	}
	rc := connToFD(c)
	if rc == nil {
		return false
	}
	var readable bool
	var perr error
	if err := rc.Control(func(fd uintptr) {
		readable, perr = picked(int(fd))
	}); err != nil {
		// descriptor already closed
		return true
	}
	return perr == nil && readable
}

func connToFD(raw net.Conn) syscall.RawConn {
	if t, ok := raw.(interface{ NetConn() net.Conn }); ok {
		// is *tls.Conn or polyfilled TLS Connection
		raw = t.NetConn()
	}
	if c, ok := raw.(syscall.Conn); ok {
		if c, err := c.SyscallConn(); err == nil {
			return c
		}
	}
	return nil
}
