package model

// Result holds the two accumulated reports of a crawl.
// Entries are only ever appended; consumers must not depend on entry order.
type Result struct {
	// BrokenLinks contains every failed fetch and failed link probe.
	BrokenLinks []BrokenLink `json:"broken_links"`

	// SensitiveInfo contains every finding from every visited page.
	SensitiveInfo []Finding `json:"sensitive_info"`
}

// NewResult returns an empty Result whose lists encode as [] rather than null.
func NewResult() *Result {
	return &Result{
		BrokenLinks:   make([]BrokenLink, 0),
		SensitiveInfo: make([]Finding, 0),
	}
}

// AddBrokenLink appends a broken-link entry.
func (r *Result) AddBrokenLink(link BrokenLink) {
	r.BrokenLinks = append(r.BrokenLinks, link)
}

// AddFindings appends findings in order.
func (r *Result) AddFindings(findings ...Finding) {
	r.SensitiveInfo = append(r.SensitiveInfo, findings...)
}

// Clone returns a deep copy, so a snapshot can be handed to another goroutine.
func (r *Result) Clone() *Result {
	c := NewResult()
	c.BrokenLinks = append(c.BrokenLinks, r.BrokenLinks...)
	c.SensitiveInfo = append(c.SensitiveInfo, r.SensitiveInfo...)
	return c
}

// CountBySeverity returns the number of findings with the given severity.
func (r *Result) CountBySeverity(s Severity) int {
	n := 0
	for _, f := range r.SensitiveInfo {
		if f.Severity == s {
			n++
		}
	}
	return n
}

// FindingsBySeverity returns the findings with the given severity in report order.
func (r *Result) FindingsBySeverity(s Severity) []Finding {
	out := make([]Finding, 0)
	for _, f := range r.SensitiveInfo {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}

// normalized replaces nil lists with empty ones. A nil receiver yields an empty result.
func (r *Result) normalized() *Result {
	if r == nil {
		return NewResult()
	}
	if r.BrokenLinks != nil && r.SensitiveInfo != nil {
		return r
	}
	c := *r
	if c.BrokenLinks == nil {
		c.BrokenLinks = make([]BrokenLink, 0)
	}
	if c.SensitiveInfo == nil {
		c.SensitiveInfo = make([]Finding, 0)
	}
	return &c
}
