// Package server exposes the crawler over HTTP.
//
// POST /scan takes {"url": "..."} and answers with an application/x-ndjson
// stream: one progress event per visited page, then exactly one result
// event. Closing the connection cancels the crawl. GET /health reports
// liveness. Every response carries permissive CORS headers so a browser
// frontend on another origin can consume the stream.
package server
