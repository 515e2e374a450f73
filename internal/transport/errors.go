package transport

import "errors"

var (
	ErrWriteFailed         = errors.New("transport: write failed")
	ErrReadFailed          = errors.New("transport: read failed")
	ErrMalformedStatusLine = errors.New("transport: malformed status line")
)
