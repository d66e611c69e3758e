package model

import (
	"crypto/sha256"
	"encoding/hex"
	"mime"
	"strings"
)

// Page represents a fetched web page.
// The body has already been decompressed and converted to UTF-8 by the fetcher.
//
// Design decision: The scanner works on raw markup, not on a parsed DOM,
// so we keep the decoded body as a string instead of a document tree.
// The hash allows detecting identical pages served under different URLs.
type Page struct {
	// URL is the URL that was requested.
	URL string `json:"url"`

	// FinalURL is the URL after redirects. It equals URL when no redirect happened.
	FinalURL string `json:"final_url"`

	// StatusCode is the HTTP response status code.
	// Pages are scanned regardless of status, so error pages are scanned too.
	StatusCode int `json:"status_code"`

	// ContentType is the MIME type of the response without parameters.
	ContentType string `json:"content_type"`

	// Headers contains the HTTP response headers.
	Headers map[string][]string `json:"headers,omitempty"`

	// Body is the decoded response body, truncated to the fetcher's size limit.
	Body string `json:"-"`

	// Truncated is true when the body exceeded the size limit.
	Truncated bool `json:"truncated,omitempty"`

	// Hash is the SHA-256 hash of Body.
	Hash string `json:"hash"`
}

// MaxPageSize is the default maximum size of a page body.
// Larger pages are truncated to this size.
const MaxPageSize = 5 * 1024 * 1024 // 5 MB

// ComputeHash calculates and sets the SHA-256 hash of the body.
func (p *Page) ComputeHash() {
	sum := sha256.Sum256([]byte(p.Body))
	p.Hash = hex.EncodeToString(sum[:])
}

// IsHTML reports whether the page declares an HTML media type.
// An empty content type counts as HTML because many small servers omit it.
func (p *Page) IsHTML() bool {
	if p.ContentType == "" {
		return true
	}
	return p.ContentType == "text/html" || p.ContentType == "application/xhtml+xml"
}

// IsText reports whether the page carries textual content worth scanning.
func (p *Page) IsText() bool {
	return IsTextMediaType(p.ContentType)
}

// IsTextMediaType reports whether a media type carries text.
// A missing type counts as text so that it gets sniffed like HTML.
func IsTextMediaType(mediaType string) bool {
	switch {
	case mediaType == "":
		return true
	case strings.HasPrefix(mediaType, "text/"):
		return true
	case strings.HasSuffix(mediaType, "+xml"), strings.HasSuffix(mediaType, "/xml"):
		return true
	case mediaType == "application/json", mediaType == "application/javascript":
		return true
	default:
		return false
	}
}

// MediaType strips parameters from a Content-Type header value.
// Unparsable values fall back to the lower-cased text before the first ';'.
func MediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
		return strings.ToLower(strings.TrimSpace(mt))
	}
	return mt
}
