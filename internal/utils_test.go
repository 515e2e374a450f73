package internal_test

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/frankli0324/go-browse/internal/dialer"
	"github.com/frankli0324/go-browse/internal/urls"
	"github.com/frankli0324/go-browse/utils/netpool"
)

// TestDialer serves every acquired stream from a net.Pipe: it reads the
// request head, answers with the canned response for the request path
// and hangs up.
type TestDialer struct {
	acquired atomic.Int32

	mu        sync.Mutex
	responses map[string]string // request target -> raw response
	requests  []string
	// hold blocks the peer before answering until closed, nil answers
	// right away.
	hold chan struct{}
}

func NewTestDialer() *TestDialer {
	return &TestDialer{responses: map[string]string{}}
}

func (t *TestDialer) Respond(target, raw string) {
	t.mu.Lock()
	t.responses[target] = raw
	t.mu.Unlock()
}

func (t *TestDialer) Acquired() int {
	return int(t.acquired.Load())
}

func (t *TestDialer) Requests() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.requests...)
}

// Acquire implements dialer.Dialer.
func (t *TestDialer) Acquire(ctx context.Context, u *urls.URL) (netpool.Conn, error) {
	t.acquired.Add(1)
	client, server := net.Pipe()
	go t.serve(server)
	return netpool.Direct(client, nil), nil
}

// Unwrap implements dialer.Dialer.
func (t *TestDialer) Unwrap() dialer.Dialer {
	return nil
}

func (t *TestDialer) serve(c net.Conn) {
	defer c.Close()
	br := bufio.NewReader(c)
	line, err := br.ReadString('\n')
	if err != nil {
		return
	}
	head := line
	for {
		l, err := br.ReadString('\n')
		if err != nil {
			return
		}
		head += l
		if l == "\r\n" {
			break
		}
	}
	fields := strings.Fields(line)
	target := "/"
	if len(fields) > 1 {
		target = fields[1]
	}

	t.mu.Lock()
	t.requests = append(t.requests, head)
	raw, ok := t.responses[target]
	hold := t.hold
	t.mu.Unlock()
	if !ok {
		raw = "HTTP/1.0 200 OK\r\nContent-Type: text/plain\r\n\r\nbody of " + target
	}
	if hold != nil {
		<-hold
	}
	io.WriteString(c, raw)
}

// FailingDialer refuses every stream with err.
type FailingDialer struct {
	Err      error
	acquired atomic.Int32
}

func (f *FailingDialer) Acquire(context.Context, *urls.URL) (netpool.Conn, error) {
	f.acquired.Add(1)
	return nil, f.Err
}

func (f *FailingDialer) Unwrap() dialer.Dialer {
	return nil
}
