package http

import (
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Text decodes the body to UTF-8.
//
// The charset named by Content-Type wins. Without one, a body that is
// already valid UTF-8 is returned as is, anything else is run through
// charset detection and finally read as ISO-8859-1, which never fails.
func (r *Response) Text() string {
	enc := r.Encoding()
	if enc == nil {
		return string(r.Body)
	}
	out, err := enc.NewDecoder().Bytes(r.Body)
	if err != nil {
		return strings.ToValidUTF8(string(r.Body), "�")
	}
	return string(out)
}

// Encoding picks the decoder [Response.Text] uses, nil meaning the body
// is used verbatim.
func (r *Response) Encoding() encoding.Encoding {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if _, params, err := mime.ParseMediaType(ct); err == nil {
			if enc, _ := charset.Lookup(params["charset"]); enc != nil {
				return enc
			}
		}
	}
	if utf8.Valid(r.Body) {
		return nil
	}
	if res, err := chardet.NewTextDetector().DetectBest(r.Body); err == nil && res != nil {
		if enc, _ := charset.Lookup(res.Charset); enc != nil {
			return enc
		}
	}
	return charmap.ISO8859_1
}
