package assignment

import (
	"fmt"
	"time"

	"github.com/ticketwise-io/ticketwise/internal/clock"
	"github.com/ticketwise-io/ticketwise/internal/models"
)

// Rule tags recorded on decisions.
const (
	RuleOverloadPrevention   = "overload_prevention"
	RuleTimezoneVsExpertise  = "timezone_vs_expertise"
	RuleFairDistribution     = "fair_distribution"
	RuleSkillsGapDetected    = "skills_gap_detected"
	RuleTeamLeadNotification = "team_lead_notification"
)

// Fair-distribution cap: members with this many assignments in the
// trailing 7 days yield to less-loaded teammates.
const recentAssignmentCap = 5

// keepExpertMargin is how much better a cross-timezone expert must score
// before we keep them over the best in-timezone candidate.
const keepExpertMargin = 0.30

// applyRules arbitrates over the ranked candidate list and produces the
// final decision. Candidates must already be sorted by rankCandidates.
func applyRules(ticket models.Ticket, candidates []models.AssignmentCandidate, now time.Time) *models.AssignmentDecision {
	decision := &models.AssignmentDecision{
		Type:       models.DecisionNormal,
		TicketID:   ticket.TicketID,
		AssignedAt: now,
	}

	top := candidates[0]

	// R1: overload prevention. Never hand new work to someone at capacity.
	if top.IsOverloaded || top.WorkloadScore < 0.3 {
		decision.RulesApplied = append(decision.RulesApplied, RuleOverloadPrevention)

		replaced := false
		for _, c := range candidates {
			if !c.IsOverloaded && c.AvailabilityScore > 0 && c.WorkloadScore >= 0.5 {
				decision.Reasoning = append(decision.Reasoning, fmt.Sprintf(
					"Top choice (%s) is overloaded. Assigned to next available: %s",
					top.MemberName, c.MemberName))
				top = c
				replaced = true
				break
			}
		}
		if !replaced {
			review := reviewDecision(models.DecisionEscalation, ticket, models.ReasonTeamAtCapacity, models.SeverityCritical, now)
			review.RulesApplied = decision.RulesApplied
			return review
		}
	}

	// R2: timezone vs expertise. An out-of-zone expert keeps the ticket
	// only with a decisive score lead; otherwise the active region wins.
	preferred := clock.PreferredRegion(now)
	if clock.ClassifyTimezone(top.Timezone) != preferred && top.SimilarityScore > 0.7 {
		decision.RulesApplied = append(decision.RulesApplied, RuleTimezoneVsExpertise)

		for _, c := range candidates {
			if clock.ClassifyTimezone(c.Timezone) != preferred {
				continue
			}
			if top.FinalScore-c.FinalScore > keepExpertMargin {
				decision.Reasoning = append(decision.Reasoning, fmt.Sprintf(
					"Cross-timezone assignment: %s is expert (solved %d similar tickets)",
					top.MemberName, top.SolvedSimilarCount))
			} else {
				top = c
				decision.Reasoning = append(decision.Reasoning,
					"Preferred in-timezone member with comparable skills")
			}
			break
		}
	}

	// R3: fair distribution. Spread assignments when the top pick already
	// carried a full week.
	if top.RecentAssignments >= recentAssignmentCap {
		decision.RulesApplied = append(decision.RulesApplied, RuleFairDistribution)

		limit := len(candidates)
		if limit > 5 {
			limit = 5
		}
		for _, c := range candidates[1:limit] {
			if c.RecentAssignments < recentAssignmentCap && c.AvailabilityScore > 0 {
				decision.Reasoning = append(decision.Reasoning, fmt.Sprintf(
					"%s has %d assignments in last 7 days. Fair distribution to %s (%d recent assignments)",
					top.MemberName, top.RecentAssignments, c.MemberName, c.RecentAssignments))
				top = c
				break
			}
		}
	}

	// R4: skills gap is advisory only; the assignment stands.
	if top.SkillMatchScore < 0.25 {
		decision.RulesApplied = append(decision.RulesApplied, RuleSkillsGapDetected)
		decision.Reasoning = append(decision.Reasoning,
			"Skills gap detected - no team member is strong match. Consider external consultation or training.")
	}

	// R5: confidence gate.
	confidence := confidenceScore(top, candidates)
	decision.Confidence = confidence

	if confidence < confidenceReviewThreshold {
		review := reviewDecision(models.DecisionHumanReview, ticket, models.ReasonLowConfidence, models.SeverityMedium, now)
		review.RulesApplied = decision.RulesApplied
		review.Confidence = confidence
		return review
	}
	if confidence < confidenceNotifyThreshold {
		decision.RulesApplied = append(decision.RulesApplied, RuleTeamLeadNotification)
		decision.Reasoning = append(decision.Reasoning,
			"Medium confidence assignment - team lead notified")
	}

	if decision.CollaborationNeeded {
		decision.Type = models.DecisionCollaborative
	}
	decision.PrimaryAssignee = top.MemberEmail
	decision.Reasoning = append(decision.Reasoning, fmt.Sprintf(
		"Assigned to %s: Score=%.2f (Similarity=%.2f, Skills=%.2f, Availability=%.2f)",
		top.MemberName, top.FinalScore, top.SimilarityScore, top.SkillMatchScore, top.AvailabilityScore))

	return decision
}
