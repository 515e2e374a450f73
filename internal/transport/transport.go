package transport

import (
	"context"
	"io"

	"github.com/frankli0324/go-browse/internal/http"
)

// Exchange performs one request/response cycle over a stream it does
// not own; the caller decides whether the stream is reused afterwards.
type Exchange interface {
	SendRequest(ctx context.Context, rw io.ReadWriter, host, path string) (*http.Response, error)
}

var _ Exchange = HTTP1{}
