// package http contains the response type handed back to callers.
//
// unlike [net/http.Header], headers here are an ordered list of pairs
// kept exactly as received: names are not canonicalized and duplicates
// are not merged.
package http
