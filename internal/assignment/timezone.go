package assignment

import (
	"github.com/ticketwise-io/ticketwise/internal/clock"
	"github.com/ticketwise-io/ticketwise/internal/models"
)

// crossTZExpertThreshold is the number of similar tickets a member must
// have resolved before cross-timezone expertise adjustments kick in. The
// count is taken from this ticket's similar set, not global history.
const crossTZExpertThreshold = 3

// baseTimezoneScore is the Follow-the-Sun routing table.
var baseTimezoneScore = map[clock.Window]map[clock.Region]float64{
	clock.WindowMorningOverlap: {clock.RegionIST: 0.85, clock.RegionUS: 1.0, clock.RegionOther: 0.6},
	clock.WindowEveningOverlap: {clock.RegionIST: 1.0, clock.RegionUS: 0.85, clock.RegionOther: 0.6},
	clock.WindowISTOnly:        {clock.RegionIST: 1.0, clock.RegionUS: 0.5, clock.RegionOther: 0.4},
	clock.WindowUSOnly:         {clock.RegionIST: 0.5, clock.RegionUS: 1.0, clock.RegionOther: 0.4},
}

// timezoneScore routes work to whoever is on shift right now.
//
// Urgent tickets get strict enforcement: the wrong-timezone scores drop
// further so Critical/High work lands in the active region. Proven experts
// (>=3 similar resolved) get limited cross-timezone flexibility -- full in
// overlap windows for routine work, a moderate bump for urgent work, and
// no boost at all at extreme hours so off-shift people get to rest.
func timezoneScore(region clock.Region, window clock.Window, priority models.Priority, solvedSimilar int) float64 {
	score := baseTimezoneScore[window][region]

	if priority.IsUrgent() {
		switch score {
		case 0.5:
			score = 0.3
		case 0.4:
			score = 0.2
		}
	}

	if solvedSimilar >= crossTZExpertThreshold {
		if priority.IsUrgent() {
			if score >= 0.3 && score < 0.6 {
				score = 0.6
			}
		} else {
			switch {
			case window.IsOverlap():
				if score < 0.85 {
					score = 0.85
				}
			case score >= 0.75:
				// Already in the right region; keep it.
			default:
				score = 0.4
			}
		}
	}

	return score
}
