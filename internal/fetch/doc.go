// Package fetch downloads pages for the crawler.
//
// The HTTPFetcher issues GET requests with the configured User-Agent and
// per-site headers, transparently decodes gzip, deflate and brotli bodies,
// converts legacy charsets to UTF-8 and truncates oversized responses.
// Non-2xx responses are not errors: error pages are returned and scanned like
// any other page. Only transport failures (DNS, refused connection, timeout,
// undecodable body) are reported as errors.
package fetch
