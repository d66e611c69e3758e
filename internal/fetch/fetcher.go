package fetch

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"

	"github.com/nadyarudie/Web-Crawler/internal/model"
)

// ErrEmptyURL is returned when Fetch is called without a URL.
var ErrEmptyURL = errors.New("fetch: empty URL")

// Default fetcher settings.
const (
	// DefaultTimeout bounds a single page fetch, including reading the body.
	DefaultTimeout = 5 * time.Second

	// DefaultUserAgent is sent when no User-Agent is configured.
	DefaultUserAgent = "ArachneLens-Crawler/1.0"
)

// Options controls HTTP fetching behaviour.
type Options struct {
	// UserAgent is the User-Agent header sent with each request.
	UserAgent string

	// Headers are extra request headers, typically from the per-site configuration.
	Headers map[string]string

	// Cookie is sent verbatim as the Cookie header when non-empty.
	Cookie string

	// Timeout bounds a single fetch. Zero means DefaultTimeout.
	Timeout time.Duration

	// MaxBodyBytes truncates larger bodies. Zero means model.MaxPageSize.
	MaxBodyBytes int64

	// Client overrides the HTTP client. Tests and the link checker share
	// one transport this way.
	Client *http.Client
}

// HTTPFetcher implements page fetching via the Go http.Client.
// It is safe for concurrent use.
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	headers      map[string]string
	cookie       string
	timeout      time.Duration
	maxBodyBytes int64
}

// NewTransport returns the transport used by the crawler's HTTP clients.
// Pages and link probes go to many hosts, so idle connections per host are kept low.
func NewTransport() *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// NewHTTPFetcher constructs an HTTP fetcher using the provided options.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = model.MaxPageSize
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Transport: NewTransport()}
	}

	return &HTTPFetcher{
		client:       client,
		userAgent:    opts.UserAgent,
		headers:      maps.Clone(opts.Headers),
		cookie:       opts.Cookie,
		timeout:      opts.Timeout,
		maxBodyBytes: opts.MaxBodyBytes,
	}
}

// WithSite returns a copy of the fetcher that sends the given per-site
// headers and cookie. The copy shares the HTTP client and its connection pool.
func (f *HTTPFetcher) WithSite(headers map[string]string, cookie string) *HTTPFetcher {
	c := *f
	c.headers = maps.Clone(f.headers)
	if c.headers == nil {
		c.headers = make(map[string]string, len(headers))
	}
	maps.Copy(c.headers, headers)
	if cookie != "" {
		c.cookie = cookie
	}
	return &c
}

// Client exposes the underlying HTTP client for reuse by the link checker.
func (f *HTTPFetcher) Client() *http.Client {
	return f.client
}

// Fetch downloads a single URL. Any HTTP status is a successful fetch;
// transport failures and undecodable bodies are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*model.Page, error) {
	if pageURL == "" {
		return nil, ErrEmptyURL
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http fetch failed: %w", err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	body, truncated, err := f.readBody(resp, contentType)
	if err != nil {
		return nil, err
	}

	finalURL := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	page := &model.Page{
		URL:         pageURL,
		FinalURL:    finalURL,
		StatusCode:  resp.StatusCode,
		ContentType: model.MediaType(contentType),
		Headers:     resp.Header.Clone(),
		Body:        body,
		Truncated:   truncated,
	}
	page.ComputeHash()

	return page, nil
}

// readBody decompresses, truncates and charset-decodes the response body.
func (f *HTTPFetcher) readBody(resp *http.Response, contentType string) (string, bool, error) {
	reader, closer, err := decodeContent(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return "", false, err
	}
	if closer != nil {
		defer closer.Close()
	}

	raw, err := io.ReadAll(io.LimitReader(reader, f.maxBodyBytes+1))
	if err != nil {
		return "", false, fmt.Errorf("read body: %w", err)
	}
	truncated := int64(len(raw)) > f.maxBodyBytes
	if truncated {
		raw = raw[:f.maxBodyBytes]
	}

	return decodeCharset(raw, contentType), truncated, nil
}

// decodeContent wraps body with a decompressor matching the Content-Encoding.
// Unknown encodings pass through unchanged.
func decodeContent(body io.Reader, encoding string) (io.Reader, io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip decode: %w", err)
		}
		return gz, gz, nil
	case "br":
		return brotli.NewReader(body), nil, nil
	case "deflate":
		fl := flate.NewReader(body)
		return fl, fl, nil
	default:
		return body, nil, nil
	}
}

// decodeCharset converts raw to UTF-8 using the Content-Type charset or,
// failing that, a <meta> declaration or byte-order mark in the first 1024 bytes.
// Bodies that cannot be decoded are returned unchanged.
func decodeCharset(raw []byte, contentType string) string {
	if len(raw) == 0 {
		return ""
	}
	if !model.IsTextMediaType(model.MediaType(contentType)) {
		return string(raw)
	}
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return string(raw)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

