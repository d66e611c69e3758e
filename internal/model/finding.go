package model

// Category classifies a sensitive-info finding.
// The string values are the labels carried on the wire.
type Category string

const (
	// CategoryEmailAddress is an email address found in raw markup.
	CategoryEmailAddress Category = "Email Address"

	// CategoryDeveloperComment is a developer marker (TODO, FIXME, ...).
	CategoryDeveloperComment Category = "Developer Comment"

	// CategoryDangerousKeyword is a keyword that suggests a leaked secret.
	CategoryDangerousKeyword Category = "Dangerous Keyword"
)

// Categories lists the categories in the order the scanner emits them.
var Categories = []Category{
	CategoryEmailAddress,
	CategoryDeveloperComment,
	CategoryDangerousKeyword,
}

// Finding is one reported instance of sensitive-looking content on a page.
// Findings are immutable once created and are never merged or deduplicated
// after they leave the scanner.
type Finding struct {
	// Severity is the risk level of the finding.
	Severity Severity `json:"severity"`

	// Category is the kind of content that matched.
	Category Category `json:"category"`

	// URL is the page on which the content was found.
	URL string `json:"url"`

	// Finding is the matched value: the email address or the keyword.
	Finding string `json:"finding"`

	// Line is the matched text, trimmed, or a synthesized description for emails.
	Line string `json:"line"`
}

// BrokenLink is a discovered URL whose fetch or liveness probe failed.
type BrokenLink struct {
	// Status is the HTTP status code, or a sentinel for transport failures:
	// StatusFetchFailed for pages that could not be fetched and
	// StatusUnreachable for links that could not be probed.
	Status int `json:"status"`

	// URL is the broken target.
	URL string `json:"url"`

	// SourceText records provenance: "Found on <page>" or "Initial URL".
	SourceText string `json:"sourceText"` //nolint:tagliatelle // wire name kept for existing consumers
}

// Sentinel statuses for failures that produced no HTTP response.
const (
	// StatusFetchFailed is recorded when a queued page cannot be fetched.
	StatusFetchFailed = 500

	// StatusUnreachable is recorded when a discovered link cannot be probed.
	// Unreachable links are folded into "not found".
	StatusUnreachable = 404
)

// SourceInitialURL is the provenance text used when the seed itself fails.
const SourceInitialURL = "Initial URL"

// FoundOn returns the provenance text for a link discovered on page.
func FoundOn(page string) string {
	return "Found on " + page
}
