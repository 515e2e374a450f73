package internal

import (
	"context"
	"errors"
	"strconv"

	"github.com/frankli0324/go-browse/internal/dialer"
	"github.com/frankli0324/go-browse/internal/transport"
)

var (
	ErrBadURL = errors.New("bad url")
	// ErrNoHistory is returned by Back, Forward and Refresh when there is
	// nowhere to go.
	ErrNoHistory   = errors.New("no history in that direction")
	ErrAbandoned   = errors.New("fetch abandoned")
	ErrRateLimited = errors.New("rate limited")
)

// Error annotates a failed fetch with the URL that triggered it. The
// layer's own error kind stays reachable through errors.Is.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return "fetch " + strconv.Quote(e.URL) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorKind names the most specific kind of err, for logs and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAbandoned),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return "abandoned"
	case errors.Is(err, ErrBadURL):
		return "bad_url"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, dialer.ErrProxyFailed):
		return "proxy_failed"
	case errors.Is(err, dialer.ErrTLSFailed):
		return "tls_failed"
	case errors.Is(err, dialer.ErrConnectFailed):
		return "connect_failed"
	case errors.Is(err, transport.ErrWriteFailed):
		return "write_failed"
	case errors.Is(err, transport.ErrReadFailed):
		return "read_failed"
	case errors.Is(err, transport.ErrMalformedStatusLine):
		return "malformed_response"
	}
	return "error"
}
