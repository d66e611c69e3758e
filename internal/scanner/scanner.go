package scanner

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/nadyarudie/Web-Crawler/internal/model"
)

// Default keyword sets.
var (
	// DefaultDevCommentKeywords are reported as Developer Comment findings.
	DefaultDevCommentKeywords = []string{"TODO", "FIXME", "BUG", "HACK"}

	// DefaultSensitiveKeywords are reported as Dangerous Keyword findings.
	DefaultSensitiveKeywords = []string{"password", "api_key", "secret", "token", "passwd", "credentials"}
)

// emailPattern matches email-like tokens anywhere in the markup.
// Word characters include non-ASCII letters and digits, so internationalized
// local parts and domains are reported whole.
var emailPattern = regexp.MustCompile(`[\p{L}\p{N}_.-]+@[\p{L}\p{N}_.-]+\.[\p{L}\p{N}_]+`)

// passwordFieldMarker identifies password input fields, which are not leaks.
const passwordFieldMarker = `type="password"`

// keywordRule is a compiled line pattern for one configured keyword.
type keywordRule struct {
	keyword string
	pattern *regexp.Regexp
}

// Scanner runs the email, developer-comment and dangerous-keyword passes.
// A Scanner is immutable after construction and safe for concurrent use.
type Scanner struct {
	devComments []keywordRule
	sensitive   []keywordRule
	logger      *slog.Logger
}

// Option configures a Scanner.
type Option func(*options)

type options struct {
	devComments []string
	sensitive   []string
	logger      *slog.Logger
}

// WithDevCommentKeywords replaces the developer-marker keyword set.
func WithDevCommentKeywords(keywords []string) Option {
	return func(o *options) {
		o.devComments = keywords
	}
}

// WithSensitiveKeywords replaces the dangerous keyword set.
func WithSensitiveKeywords(keywords []string) Option {
	return func(o *options) {
		o.sensitive = keywords
	}
}

// WithLogger sets the logger used for scan diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a Scanner. Empty keywords are skipped because they would match every line.
func New(opts ...Option) *Scanner {
	o := options{
		devComments: DefaultDevCommentKeywords,
		sensitive:   DefaultSensitiveKeywords,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Scanner{
		devComments: compileRules(o.devComments),
		sensitive:   compileRules(o.sensitive),
		logger:      o.logger,
	}
}

// compileRules builds one case-insensitive whole-line pattern per keyword.
// "." does not cross newlines, so each line yields at most one match per keyword.
// Keywords are matched literally.
func compileRules(keywords []string) []keywordRule {
	rules := make([]keywordRule, 0, len(keywords))
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		rules = append(rules, keywordRule{
			keyword: kw,
			pattern: regexp.MustCompile(`(?i).*(` + regexp.QuoteMeta(kw) + `).*`),
		})
	}
	return rules
}

// Scan returns every finding on the page, in pass order: emails first,
// then developer comments and dangerous keywords, each in keyword order.
// Scan never fails; a page without matches yields an empty slice.
func (s *Scanner) Scan(pageURL, html string) []model.Finding {
	findings := make([]model.Finding, 0)
	findings = append(findings, scanEmails(pageURL, html)...)
	findings = append(findings, s.scanDevComments(pageURL, html)...)
	findings = append(findings, s.scanSensitive(pageURL, html)...)

	if len(findings) > 0 {
		s.logger.Debug("page findings", "url", pageURL, "count", len(findings))
	}
	return findings
}

// scanEmails reports each distinct email address once, in first-seen order.
func scanEmails(pageURL, html string) []model.Finding {
	matches := emailPattern.FindAllString(html, -1)
	findings := make([]model.Finding, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, email := range matches {
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		findings = append(findings, model.Finding{
			Severity: model.SeverityMedium,
			Category: model.CategoryEmailAddress,
			URL:      pageURL,
			Finding:  email,
			Line:     "Found email: " + email,
		})
	}
	return findings
}

func (s *Scanner) scanDevComments(pageURL, html string) []model.Finding {
	var findings []model.Finding
	for _, rule := range s.devComments {
		for _, line := range rule.pattern.FindAllString(html, -1) {
			findings = append(findings, model.Finding{
				Severity: model.SeverityLow,
				Category: model.CategoryDeveloperComment,
				URL:      pageURL,
				Finding:  rule.keyword,
				Line:     strings.TrimSpace(line),
			})
		}
	}
	return findings
}

func (s *Scanner) scanSensitive(pageURL, html string) []model.Finding {
	var findings []model.Finding
	for _, rule := range s.sensitive {
		for _, line := range rule.pattern.FindAllString(html, -1) {
			if isPasswordField(line) {
				continue
			}
			findings = append(findings, model.Finding{
				Severity: model.SeverityHigh,
				Category: model.CategoryDangerousKeyword,
				URL:      pageURL,
				Finding:  rule.keyword,
				Line:     strings.TrimSpace(line),
			})
		}
	}
	return findings
}

// isPasswordField reports whether a matched line is a password input rather than a leak.
// The check applies to every dangerous keyword, so a token on the same line as a
// password field is suppressed too.
func isPasswordField(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "password") && strings.Contains(lower, passwordFieldMarker)
}
