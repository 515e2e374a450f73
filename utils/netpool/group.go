package netpool

import (
	"context"
	"net"
	"strconv"
	"sync"
)

// Key identifies the streams that may stand in for one another. Streams
// of different schemes never share a key, so a plain stream is never
// handed to an encrypted fetch.
type Key struct {
	Scheme string
	Host   string
	Port   int
}

func (k Key) String() string {
	return k.Scheme + "://" + net.JoinHostPort(k.Host, strconv.Itoa(k.Port))
}

type PoolGroup struct {
	sync.RWMutex
	pools map[Key]*Pool

	opts Options
}

func NewGroup(opts Options) *PoolGroup {
	return &PoolGroup{
		pools: map[Key]*Pool{},
		opts:  opts,
	}
}

func (g *PoolGroup) Connect(ctx context.Context, key Key, dial DialFunc) (Conn, error) {
	return g.pool(key).Connect(ctx, dial)
}

// Idle is the number of idle streams held for key.
func (g *PoolGroup) Idle(key Key) int {
	g.RLock()
	p, ok := g.pools[key]
	g.RUnlock()
	if !ok {
		return 0
	}
	return p.Idle()
}

func (g *PoolGroup) CloseIdle() {
	g.RLock()
	defer g.RUnlock()
	for _, p := range g.pools {
		p.CloseIdle()
	}
}

func (g *PoolGroup) pool(key Key) *Pool {
	g.RLock()
	p, ok := g.pools[key]
	g.RUnlock()
	if ok {
		return p
	}
	g.Lock()
	if p, ok = g.pools[key]; !ok {
		p = NewPool(g.opts)
		g.pools[key] = p
	}
	g.Unlock()
	return p
}
