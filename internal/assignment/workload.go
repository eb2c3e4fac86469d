package assignment

import (
	"time"

	"github.com/ticketwise-io/ticketwise/internal/models"
)

// Workload capacity constants. A member carrying 80% of the cap is
// considered overloaded and skipped by overload prevention.
const (
	teamMaxLoad       = 30.0
	overloadThreshold = teamMaxLoad * 0.8
)

var workloadPriorityWeight = map[models.Priority]float64{
	models.PriorityCritical: 3.0,
	models.PriorityHigh:     2.0,
	models.PriorityMedium:   1.0,
	models.PriorityLow:      0.5,
}

// workloadScore summarizes a member's active ticket burden into a single
// score: 1.0 free, 0.0 at or beyond capacity. Each ticket's load combines
// its priority, how long it has been sitting, and whether it is actively
// being worked.
func workloadScore(active []models.ActiveTicket, now time.Time) (score, totalLoad float64, overloaded bool) {
	if len(active) == 0 {
		return 1.0, 0, false
	}

	for _, t := range active {
		priorityWeight, ok := workloadPriorityWeight[t.Priority]
		if !ok {
			priorityWeight = 1.0
		}

		// Stuck tickets weigh more.
		ageDays := int(now.Sub(t.CreatedAt).Hours() / 24)
		agePenalty := 1.0
		switch {
		case ageDays > 7:
			agePenalty = 1.5
		case ageDays > 3:
			agePenalty = 1.2
		}

		var statusWeight float64
		switch t.Status {
		case models.StatusBlocked, models.StatusWaiting:
			statusWeight = 0.3
		case models.StatusInProgress:
			statusWeight = 1.0
		default: // Open, Pending
			statusWeight = 0.5
		}

		// Reserved for story-point style estimates.
		complexityFactor := 1.0

		totalLoad += priorityWeight * agePenalty * statusWeight * complexityFactor
	}

	score = 1.0 - totalLoad/teamMaxLoad
	if score < 0 {
		score = 0
	}
	return score, totalLoad, totalLoad >= overloadThreshold
}
