package models

import "strings"

// TeamMember is one operator in the team directory. Skills are normalized
// to lowercase trimmed names, deduplicated, insertion order preserved.
type TeamMember struct {
	ID       string   `json:"id" db:"id"`
	Email    string   `json:"email" db:"email"`
	Name     string   `json:"name" db:"name"`
	Timezone string   `json:"timezone" db:"timezone"`
	Role     string   `json:"role" db:"role"`
	Skills   []string `json:"skills"`
}

// NormalizeSkills lowercases, trims and deduplicates skill names,
// preserving first-seen order.
func NormalizeSkills(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		name := strings.ToLower(strings.TrimSpace(s))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// MemberRuntime is the per-assignment snapshot of a member's availability
// and load. Built fresh by the oracle layer for every Assign call.
type MemberRuntime struct {
	OnPTO             bool           `json:"on_pto"`
	RegionalHoliday   bool           `json:"regional_holiday"`
	GlobalHoliday     bool           `json:"global_holiday"`
	ActiveTickets     []ActiveTicket `json:"active_tickets"`
	RecentAssignments int            `json:"recent_assignments_7d"`
}
