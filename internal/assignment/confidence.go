package assignment

import "github.com/ticketwise-io/ticketwise/internal/models"

// Confidence gate thresholds used by the confidence rule.
const (
	confidenceReviewThreshold = 0.3
	confidenceNotifyThreshold = 0.5
	clearWinnerMargin         = 0.15
)

// confidenceScore is the fraction of five sanity checks the chosen
// candidate passes. The result is always one of {0, 0.2, 0.4, 0.6, 0.8, 1.0}.
func confidenceScore(top models.AssignmentCandidate, all []models.AssignmentCandidate) float64 {
	checks := []bool{
		top.SimilarityScore > 0.70,
		top.SkillMatchScore > 0.5,
		top.AvailabilityScore > 0.7,
		len(all) > 1 && top.FinalScore-all[1].FinalScore > clearWinnerMargin,
		top.TimezoneScore >= 1.0,
	}

	passed := 0
	for _, ok := range checks {
		if ok {
			passed++
		}
	}
	return float64(passed) / float64(len(checks))
}
