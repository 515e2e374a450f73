// package transport contains implementations to requirements on *message syntaxes*
// defined by http related RFCs, restricted to what a single retrieval needs.
//
// requests are written as HTTP/1.0 so that a peer never answers with a
// chunked body; the response ends when the peer closes the stream, when
// the advertised Content-Length has arrived (keep-alive only), or at a
// fixed size bound.
//
//	HTTP Semantics (RFC9110)
//	HTTP/1.1 (RFC9112), section 2 and 4 for the message and status line
package transport
