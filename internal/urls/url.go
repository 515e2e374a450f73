// package urls turns the free-text address typed by a user into the
// host, path and port a fetch needs.
//
// the accepted grammar is deliberately small: an optional "http://" or
// "https://" prefix, a host, and everything after the first "/" as the
// path. explicit port literals in the host are not supported, callers
// that need a different port set [URL.Port] after resolving.
package urls

import (
	"errors"
	"net"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

type Scheme string

const (
	Plain     Scheme = "http"
	Encrypted Scheme = "https"
)

var schemes = map[Scheme]int{
	Plain: 80, Encrypted: 443,
}

// DefaultPort returns the port implied by the scheme.
func (s Scheme) DefaultPort() int {
	return schemes[s]
}

var (
	ErrEmpty             = errors.New("urls: empty host")
	ErrUnsupportedScheme = errors.New("urls: unsupported scheme")
	ErrPortLiteral       = errors.New("urls: port literals are not supported")
)

type URL struct {
	Scheme Scheme
	Host   string // lower-cased, ASCII form
	Path   string // without the leading slash, "" means root
	Port   int
}

// Resolve parses raw into a [URL]. A missing scheme prefix means [Plain].
func Resolve(raw string) (*URL, error) {
	rest := strings.TrimSpace(raw)
	scheme := Plain
	switch {
	case hasPrefixFold(rest, "https://"):
		scheme, rest = Encrypted, rest[len("https://"):]
	case hasPrefixFold(rest, "http://"):
		rest = rest[len("http://"):]
	default:
		if i := strings.Index(rest, "://"); i >= 0 && !strings.ContainsAny(rest[:i], "/?#") {
			return nil, &Error{Raw: raw, Err: ErrUnsupportedScheme}
		}
	}

	host, path, _ := strings.Cut(rest, "/")
	if i := strings.IndexByte(host, '#'); i >= 0 {
		host, path = host[:i], ""
	}
	path, _, _ = strings.Cut(path, "#")
	if host == "" {
		return nil, &Error{Raw: raw, Err: ErrEmpty}
	}
	if strings.ContainsAny(host, ":[]") {
		return nil, &Error{Raw: raw, Err: ErrPortLiteral}
	}
	return &URL{
		Scheme: scheme,
		Host:   normalizeHost(host),
		Path:   path,
		Port:   scheme.DefaultPort(),
	}, nil
}

// MustResolve is like [Resolve] but panics on error.
func MustResolve(raw string) *URL {
	u, err := Resolve(raw)
	if err != nil {
		panic(err)
	}
	return u
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func normalizeHost(host string) string {
	host = strings.ToLower(host)
	if ascii, err := idna.Lookup.ToASCII(host); err == nil && ascii != "" {
		return ascii
	}
	return host
}

func (u *URL) Encrypted() bool {
	return u.Scheme == Encrypted
}

// RequestURI is the target written on the request line, root is always "/".
func (u *URL) RequestURI() string {
	return "/" + u.Path
}

// Address is the host:port pair to dial.
func (u *URL) Address() string {
	return net.JoinHostPort(u.Host, strconv.Itoa(u.Port))
}

// Authority is the value of the Host header: the host, with the port
// only when it isn't the scheme's default.
func (u *URL) Authority() string {
	if u.Port == u.Scheme.DefaultPort() {
		return u.Host
	}
	return u.Address()
}

// String returns the normalized form used as cache and history key.
// Two inputs resolving to the same URL always produce the same string.
func (u *URL) String() string {
	var b strings.Builder
	b.WriteString(string(u.Scheme))
	b.WriteString("://")
	b.WriteString(u.Authority())
	b.WriteString(u.RequestURI())
	return b.String()
}

type Error struct {
	Raw string
	Err error
}

func (e *Error) Error() string {
	return e.Err.Error() + ": " + strconv.Quote(e.Raw)
}

func (e *Error) Unwrap() error { return e.Err }
