package models

import "strings"

// Priority is the canonical ticket priority. Wire values such as
// "1 - Critical" are folded into one of four levels; "5 - Planning"
// maps to Low and anything unrecognized falls back to Medium.
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// Priorities lists all canonical levels, highest first.
var Priorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

var priorityDigits = map[byte]Priority{
	'1': PriorityCritical,
	'2': PriorityHigh,
	'3': PriorityMedium,
	'4': PriorityLow,
	'5': PriorityLow,
}

var priorityLabels = map[string]Priority{
	"critical": PriorityCritical,
	"high":     PriorityHigh,
	"medium":   PriorityMedium,
	"moderate": PriorityMedium,
	"low":      PriorityLow,
	"planning": PriorityLow,
}

// ParsePriority canonicalizes a raw priority value. It accepts the
// numbered wire form ("1 - Critical"), a bare numeric level, or a bare
// label in any case. Unknown values become Medium.
func ParsePriority(raw string) Priority {
	s := strings.TrimSpace(raw)
	if s == "" {
		return PriorityMedium
	}
	if p, ok := priorityDigits[s[0]]; ok && (len(s) == 1 || !isDigit(s[1])) {
		return p
	}
	if p, ok := priorityLabels[strings.ToLower(s)]; ok {
		return p
	}
	return PriorityMedium
}

func (p Priority) String() string { return string(p) }

// IsUrgent reports whether the priority enforces strict timezone rules.
func (p Priority) IsUrgent() bool {
	return p == PriorityCritical || p == PriorityHigh
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
