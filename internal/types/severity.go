package types

import "strings"

// Violation severity levels, lowest to highest.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// SeverityOf normalizes a violation's severity label. Missing or unknown
// values default to medium so garbage upstream data never breaks scoring.
func SeverityOf(v PolicyViolation) string {
	s := strings.ToLower(strings.TrimSpace(v.Severity))
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return s
	}
	return SeverityMedium
}

// CountSeverity returns how many violations carry the given severity.
func CountSeverity(violations []PolicyViolation, severity string) int {
	n := 0
	for _, v := range violations {
		if SeverityOf(v) == severity {
			n++
		}
	}
	return n
}

// HasSeverity reports whether any violation carries the given severity.
func HasSeverity(violations []PolicyViolation, severity string) bool {
	return CountSeverity(violations, severity) > 0
}
