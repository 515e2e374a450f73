package http

import (
	"strconv"
	"strings"
)

type Header struct {
	Name  string
	Value string
}

// Headers keeps response headers in the order they arrived.
type Headers []Header

// Get returns the first value whose name matches case-insensitively.
func (h Headers) Get(name string) string {
	for _, kv := range h {
		if strings.EqualFold(kv.Name, name) {
			return kv.Value
		}
	}
	return ""
}

// Values returns every value whose name matches case-insensitively.
func (h Headers) Values(name string) []string {
	var vs []string
	for _, kv := range h {
		if strings.EqualFold(kv.Name, name) {
			vs = append(vs, kv.Value)
		}
	}
	return vs
}

type Response struct {
	Proto      string // e.g. "HTTP/1.1"
	StatusCode int
	Reason     string
	Header     Headers
	Body       []byte

	// Close records whether the stream the response was read from can't
	// carry another exchange, either because the peer closed it or
	// because the body boundary is unknown.
	Close bool
	// Truncated is set when reading stopped at the size bound before
	// the peer finished sending.
	Truncated bool
}

// Status is the status line without the protocol, e.g. "404 Not Found".
func (r *Response) Status() string {
	return strings.TrimSpace(strconv.Itoa(r.StatusCode) + " " + r.Reason)
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
