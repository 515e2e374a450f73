package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/textproto"

	"github.com/frankli0324/go-browse/internal/http"
)

// Connect asks an HTTP proxy on rw to open a tunnel to authority
// (host:port). Only the head of the proxy's answer is read so that the
// stream can carry the tunnelled bytes afterwards.
func Connect(ctx context.Context, rw io.ReadWriter, authority string, header http.Headers) (*http.Response, error) {
	stop := interruptOnDone(ctx, rw)
	defer stop()

	w := bufio.NewWriter(rw)
	w.WriteString("CONNECT ")
	w.WriteString(authority)
	w.WriteString(" HTTP/1.1\r\nHost: ")
	w.WriteString(authority)
	w.WriteString("\r\n")
	for _, kv := range header {
		w.WriteString(kv.Name)
		w.WriteString(": ")
		w.WriteString(kv.Value)
		w.WriteString("\r\n")
	}
	w.WriteString("\r\n")
	if err := w.Flush(); err != nil {
		return nil, classify(ctx, ErrWriteFailed, err)
	}

	br := bufio.NewReader(rw)
	tp := textproto.NewReader(br)
	line, err := tp.ReadLine()
	if err != nil {
		return nil, classify(ctx, ErrReadFailed, err)
	}
	resp, err := parseStatusLine(line)
	if err != nil {
		return nil, err
	}
	resp.Header = readHeaders(tp)
	if resp.StatusCode/100 == 2 && br.Buffered() > 0 {
		// bytes past the head would be lost with the bufio.Reader
		return nil, errors.New("transport: proxy sent data before the tunnel was used")
	}
	if resp.StatusCode/100 != 2 {
		return resp, fmt.Errorf("transport: proxy refused tunnel: %s", resp.Status())
	}
	return resp, nil
}
