package assignment

import (
	"math"
	"sort"
	"time"

	"github.com/ticketwise-io/ticketwise/internal/clock"
	"github.com/ticketwise-io/ticketwise/internal/models"
)

// evaluateCandidate computes all five component scores and the weighted
// final score for one member. It touches nothing but its arguments, so
// the evaluation loop is safe to parallelize.
func evaluateCandidate(
	member models.TeamMember,
	rt *models.MemberRuntime,
	req models.SkillRequirements,
	similar []models.SimilarTicket,
	priority models.Priority,
	now time.Time,
) models.AssignmentCandidate {
	c := models.AssignmentCandidate{
		MemberID:    member.ID,
		MemberEmail: member.Email,
		MemberName:  member.Name,
		Timezone:    member.Timezone,
	}

	c.SimilarityScore, c.SolvedSimilarCount = similarityScore(member.Email, similar)
	c.SkillMatchScore, c.HasCriticalSkills = skillMatchScore(member.Skills, req)

	var note string
	c.AvailabilityScore, note = availabilityScore(rt, priority)
	if note != "" {
		c.Notes = append(c.Notes, note)
	}

	c.WorkloadScore, c.WeightedWorkload, c.IsOverloaded = workloadScore(rt.ActiveTickets, now)
	c.ActiveTicketsCount = len(rt.ActiveTickets)
	c.RecentAssignments = rt.RecentAssignments

	region := clock.ClassifyTimezone(member.Timezone)
	window := clock.ClassifyWindow(now)
	c.TimezoneScore = timezoneScore(region, window, priority, c.SolvedSimilarCount)

	w := weightsFor(priority)
	c.FinalScore = c.SimilarityScore*w.Similarity +
		c.SkillMatchScore*w.Skill +
		c.AvailabilityScore*w.Availability +
		c.WorkloadScore*w.Workload +
		c.TimezoneScore*w.Timezone

	return c
}

// rankCandidates sorts by final score descending. Ties break on
// availability, then skill match, then email, so ranking is fully
// deterministic for identical inputs.
func rankCandidates(candidates []models.AssignmentCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		if a.AvailabilityScore != b.AvailabilityScore {
			return a.AvailabilityScore > b.AvailabilityScore
		}
		if a.SkillMatchScore != b.SkillMatchScore {
			return a.SkillMatchScore > b.SkillMatchScore
		}
		return a.MemberEmail < b.MemberEmail
	})
}

// topCandidates builds the persisted top-3 list with rounded breakdowns.
func topCandidates(candidates []models.AssignmentCandidate) []models.TopCandidate {
	n := len(candidates)
	if n > 3 {
		n = 3
	}
	top := make([]models.TopCandidate, 0, n)
	for _, c := range candidates[:n] {
		top = append(top, models.TopCandidate{
			Name:  c.MemberName,
			Email: c.MemberEmail,
			Score: round3(c.FinalScore),
			Breakdown: models.CandidateBreakdown{
				Similarity:   round2(c.SimilarityScore),
				Skill:        round2(c.SkillMatchScore),
				Availability: round2(c.AvailabilityScore),
				Workload:     round2(c.WorkloadScore),
				Timezone:     round2(c.TimezoneScore),
			},
		})
	}
	return top
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
