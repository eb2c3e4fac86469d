package assignment

import (
	"math"

	"github.com/ticketwise-io/ticketwise/internal/models"
)

// similarityScore rates how well this member's history matches the
// incoming ticket. It returns the score and the number of similar tickets
// the member resolved.
//
// The expertise factor grows logarithmically (log(n+1)/log(6): one ticket
// 0.39, five 1.0) so frequent past assignees don't run away with every
// assignment; the similarity of the tickets themselves carries the weight.
func similarityScore(memberEmail string, similar []models.SimilarTicket) (float64, int) {
	var sum float64
	count := 0
	for _, s := range similar {
		if s.AssigneeEmail == memberEmail {
			sum += s.SimilarityScore
			count++
		}
	}

	if count == 0 {
		return 0, 0
	}

	expertise := math.Log(float64(count)+1) / math.Log(6)
	if expertise > 1.0 {
		expertise = 1.0
	}
	avg := sum / float64(count)

	score := 0.3*expertise + 0.7*avg
	if score > 1.0 {
		score = 1.0
	}
	return score, count
}
