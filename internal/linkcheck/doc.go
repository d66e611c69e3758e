// Package linkcheck probes discovered links for liveness.
//
// A probe is a HEAD request with redirects followed. A final status of 400 or
// above marks the link broken with that status. A probe that gets no response
// at all (DNS failure, refused connection, timeout) marks the link broken with
// the sentinel status 404: unreachable links are reported as not found.
//
// The Checker is shared by every crawl of a process. Concurrent probes of the
// same URL are collapsed into one request, and an optional token bucket caps
// the outbound probe rate across all crawls.
package linkcheck
