// Package httpclient provides the HTTP capability used by every network
// component of linkaudit: GET and HEAD with a per-request timeout, bounded
// redirect-following, a cookie jar, injected site headers, an optional SOCKS5
// proxy, and decoding of gzip, deflate and brotli bodies.
//
// A Client is created once per site and passed to the crawler, the status
// checker and the site checks; it holds no per-request state.
package httpclient
