package model

import (
	"fmt"
	"strings"
)

// Severity represents the risk level of a sensitive-info finding.
//
// Design decision: We use iota-based constants rather than string constants
// for cheap comparisons and ordering. The zero value is deliberately not a
// valid severity so that an uninitialized Finding is easy to spot.
type Severity int

const (
	// SeverityLow marks developer markers such as TODO or FIXME left in markup.
	SeverityLow Severity = iota + 1

	// SeverityMedium marks contact data such as email addresses.
	SeverityMedium

	// SeverityHigh marks dangerous keywords (password, api_key, token, ...)
	// that may indicate a leaked credential.
	SeverityHigh
)

// Severities lists every valid severity, highest first.
var Severities = []Severity{SeverityHigh, SeverityMedium, SeverityLow}

// String returns the wire representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "Low"
	case SeverityMedium:
		return "Medium"
	case SeverityHigh:
		return "High"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the severity as "Low", "Medium" or "High".
func (s Severity) MarshalText() ([]byte, error) {
	if s < SeverityLow || s > SeverityHigh {
		return nil, fmt.Errorf("invalid severity: %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name. Matching is case-insensitive so that
// archived results written by older versions still load.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity converts a severity name into a Severity.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	default:
		return 0, fmt.Errorf("unknown severity %q", name)
	}
}
