package transport

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/frankli0324/go-browse/internal/http"
)

const (
	DefaultUserAgent       = "go-browse/1.0"
	DefaultMaxResponseSize = 1 << 20
)

// HTTP1 performs retrieval-only exchanges. The zero value is usable.
type HTTP1 struct {
	UserAgent       string
	MaxResponseSize int64         // bound on bytes read per response
	ReadTimeout     time.Duration // zero means no timeout
	// KeepAlive asks the peer to leave the stream open. Only then is the
	// Content-Length of a response used to stop reading early, otherwise
	// the response ends when the peer closes.
	KeepAlive bool
}

type readEnd int

const (
	endEOF    readEnd = iota // peer closed the stream
	endLength                // body boundary reached, stream reusable
	endLimit                 // size bound hit
)

// SendRequest writes a GET for path to rw, then reads and parses the
// response. Non-2xx responses are returned as is.
func (t HTTP1) SendRequest(ctx context.Context, rw io.ReadWriter, host, path string) (*http.Response, error) {
	stop := interruptOnDone(ctx, rw)
	defer stop()

	if err := t.Write(rw, host, path); err != nil {
		return nil, classify(ctx, ErrWriteFailed, err)
	}
	if d, ok := rw.(deadliner); ok && t.ReadTimeout > 0 {
		d.SetReadDeadline(time.Now().Add(t.ReadTimeout))
	}
	raw, end, err := t.ReadRaw(rw)
	if err != nil {
		return nil, classify(ctx, ErrReadFailed, err)
	}
	if len(raw) == 0 {
		// the peer hung up without answering, e.g. a reused stream it
		// had already given up on
		return nil, classify(ctx, ErrReadFailed, io.ErrUnexpectedEOF)
	}
	// an interrupt that already fired has poisoned the stream's deadline
	interrupted := !stop()
	resp, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	resp.Truncated = end == endLimit
	resp.Close = interrupted || end != endLength ||
		strings.EqualFold(resp.Header.Get("Connection"), "close")
	if !resp.Close {
		if d, ok := rw.(deadliner); ok {
			d.SetDeadline(time.Time{})
		}
	}
	return resp, nil
}

// Write writes the whole request before returning, e.g.:
//
//	GET / HTTP/1.0\r\n
//	Host: www.example.com\r\n
//	User-Agent: go-browse/1.0\r\n
//	\r\n
func (t HTTP1) Write(w io.Writer, host, path string) error {
	ua := t.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req := bufio.NewWriter(w) // default bufsize is 4096

	req.WriteString("GET ")
	req.WriteString(requestTarget(path))
	req.WriteString(" HTTP/1.0\r\n")
	req.WriteString("Host: ")
	req.WriteString(host)
	req.WriteString("\r\n")
	req.WriteString("User-Agent: ")
	req.WriteString(ua)
	req.WriteString("\r\n")
	if t.KeepAlive {
		req.WriteString("Connection: keep-alive\r\n")
	}
	req.WriteString("\r\n")
	return req.Flush()
}

func requestTarget(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}

// ReadRaw reads one response without interpreting it beyond locating
// its end.
func (t HTTP1) ReadRaw(r io.Reader) ([]byte, readEnd, error) {
	limit := t.MaxResponseSize
	if limit <= 0 {
		limit = DefaultMaxResponseSize
	}
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	total := int64(-1) // response length, once known
	checked := !t.KeepAlive

	for {
		if int64(len(buf)) >= limit {
			return buf[:limit], atLimit(r), nil
		}
		want := int64(len(chunk))
		if rest := limit - int64(len(buf)); rest < want {
			want = rest
		}
		n, err := r.Read(chunk[:want])
		buf = append(buf, chunk[:n]...)

		if !checked {
			if headerEnd := headerBoundary(buf); headerEnd >= 0 {
				total = responseLength(buf[:headerEnd], headerEnd)
				checked = true
			}
		}
		if total >= 0 && int64(len(buf)) >= total {
			return buf[:total], endLength, nil
		}
		if err == io.EOF {
			return buf, endEOF, nil
		}
		if err != nil {
			return buf, endEOF, err
		}
	}
}

// atLimit tells a response that fills the bound exactly from one that
// was cut off, by reading one byte past it.
func atLimit(r io.Reader) readEnd {
	var one [1]byte
	for {
		n, err := r.Read(one[:])
		switch {
		case n > 0:
			return endLimit
		case err == io.EOF:
			return endEOF
		case err != nil:
			return endLimit
		}
	}
}

// headerBoundary returns the offset of the first body byte, or -1 while
// the blank line has not arrived.
func headerBoundary(b []byte) int {
	end := -1
	if i := bytes.Index(b, []byte("\r\n\r\n")); i >= 0 {
		end = i + 4
	}
	if i := bytes.Index(b, []byte("\n\n")); i >= 0 && (end < 0 || i+2 < end) {
		end = i + 2
	}
	return end
}

// responseLength works out the full response size from its head, -1
// when only the peer closing the stream can tell.
func responseLength(head []byte, headerEnd int) int64 {
	lines := strings.Split(strings.ReplaceAll(string(head), "\r\n", "\n"), "\n")
	if fields := strings.Fields(lines[0]); len(fields) >= 2 {
		if code, err := strconv.Atoi(fields[1]); err == nil &&
			(code/100 == 1 || code == 204 || code == 304) {
			return int64(headerEnd)
		}
	}
	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 63)
		if err != nil {
			return -1
		}
		return int64(headerEnd) + int64(n)
	}
	return -1
}

// Parse decomposes a raw response. Only a missing or unparsable status
// line fails; header lines without a colon are skipped and everything
// after the blank line is the body, byte for byte.
func Parse(raw []byte) (*http.Response, error) {
	tp := textproto.NewReader(bufio.NewReader(bytes.NewReader(raw)))

	line, err := tp.ReadLine()
	if err != nil {
		return nil, fmt.Errorf("%w: no status line", ErrMalformedStatusLine)
	}
	resp, err := parseStatusLine(line)
	if err != nil {
		return nil, err
	}
	resp.Header = readHeaders(tp)
	body, _ := io.ReadAll(tp.R) // reading from memory
	resp.Body = body
	return resp, nil
}

func parseStatusLine(line string) (*http.Response, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return nil, fmt.Errorf("%w: %q", ErrMalformedStatusLine, line)
	}
	if !strings.HasPrefix(fields[0], "HTTP/") {
		return nil, fmt.Errorf("%w: bad version %q", ErrMalformedStatusLine, fields[0])
	}
	if len(fields[1]) != 3 {
		return nil, fmt.Errorf("%w: bad status code %q", ErrMalformedStatusLine, fields[1])
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil || code < 100 {
		return nil, fmt.Errorf("%w: bad status code %q", ErrMalformedStatusLine, fields[1])
	}
	return &http.Response{
		Proto:      fields[0],
		StatusCode: code,
		Reason:     strings.Join(fields[2:], " "),
	}, nil
}

// readHeaders reads up to and including the blank line. A head cut off
// before the blank line ends the headers.
func readHeaders(tp *textproto.Reader) http.Headers {
	var headers http.Headers
	for {
		line, err := tp.ReadLine()
		if err != nil || line == "" {
			return headers
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers = append(headers, http.Header{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
		})
	}
}
