package dialer

import "errors"

var (
	ErrConnectFailed = errors.New("dialer: connect failed")
	ErrTLSFailed     = errors.New("dialer: tls handshake failed")
	// ErrProxyFailed always comes together with ErrConnectFailed.
	ErrProxyFailed = errors.New("dialer: proxy failed")
)
