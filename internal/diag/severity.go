package diag

import "strings"

// Severity orders diagnostics from informational to fatal for the run.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	// SevError marks the unit as broken: nothing of it is cached.
	SevError
)

var severityNames = [...]string{
	SevInfo:    "info",
	SevWarning: "warning",
	SevError:   "error",
}

// Label is the lower-case name used in one-line output.
func (s Severity) Label() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "unknown"
}

// String is the upper-case name used in headers and JSON.
func (s Severity) String() string { return strings.ToUpper(s.Label()) }

// ParseSeverity maps a label back to a Severity.
func ParseSeverity(label string) (Severity, bool) {
	for i, name := range severityNames {
		if strings.EqualFold(name, label) {
			return Severity(i), true // #nosec G115 -- bounded by the table
		}
	}
	return SevInfo, false
}
