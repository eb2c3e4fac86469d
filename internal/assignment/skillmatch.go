package assignment

import "github.com/ticketwise-io/ticketwise/internal/models"

// defaultSkills substitutes for members with no declared skills; every
// operator can at least troubleshoot and write things down.
var defaultSkills = []string{"troubleshooting", "documentation"}

// skillMatchScore rates how well a member's declared skills cover the
// ticket's extracted requirements. Returns the score and whether the
// member covers the critical set.
//
// Missing more than half of a non-empty critical set is a hard floor of
// 0.2 regardless of the other categories. Empty important/nice sets use a
// neutral 0.5 prior so their absence neither helps nor hurts.
func skillMatchScore(memberSkills []string, req models.SkillRequirements) (float64, bool) {
	if len(memberSkills) == 0 {
		memberSkills = defaultSkills
	}

	have := make(map[string]struct{}, len(memberSkills))
	for _, s := range memberSkills {
		have[s] = struct{}{}
	}

	match := func(want []string) float64 {
		if len(want) == 0 {
			return 0
		}
		hits := 0
		for _, s := range want {
			if _, ok := have[s]; ok {
				hits++
			}
		}
		return float64(hits) / float64(len(want))
	}

	criticalMatch := match(req.Critical)
	hasCritical := len(req.Critical) == 0 || criticalMatch >= 0.5

	if len(req.Critical) > 0 && criticalMatch < 0.5 {
		return 0.2, false
	}

	importantMatch := 0.5
	if len(req.Important) > 0 {
		importantMatch = match(req.Important)
	}
	niceMatch := 0.5
	if len(req.NiceToHave) > 0 {
		niceMatch = match(req.NiceToHave)
	}

	score := 0.6*criticalMatch + 0.3*importantMatch + 0.1*niceMatch
	if score > 1.0 {
		score = 1.0
	}
	return score, hasCritical
}
