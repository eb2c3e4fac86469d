package assignment

import (
	"time"

	"github.com/ticketwise-io/ticketwise/internal/models"
)

// reviewDecision builds a human-review or escalation decision. These
// decisions never carry a primary assignee; the trigger tells the humans
// what to do and how fast.
func reviewDecision(
	decisionType models.DecisionType,
	ticket models.Ticket,
	reason, severity string,
	now time.Time,
) *models.AssignmentDecision {
	trigger := models.ReviewTrigger{
		Reason:      reason,
		Severity:    severity,
		TicketID:    ticket.TicketID,
		TicketTitle: ticket.Title,
	}

	switch severity {
	case models.SeverityCritical:
		trigger.Action = models.ActionManagerEscalation
		trigger.Message = "Team at capacity or critical issue requires immediate attention"
	case models.SeverityHigh:
		trigger.Action = models.ActionTeamConsultation
		trigger.Timeout = time.Hour
		trigger.Message = "No similar pattern found - team input needed"
	case models.SeverityMedium:
		trigger.Action = models.ActionTeamLeadReview
		trigger.Timeout = 15 * time.Minute
		trigger.Message = "Low confidence assignment - team lead review requested"
	}

	return &models.AssignmentDecision{
		Type:           decisionType,
		TicketID:       ticket.TicketID,
		AssignedAt:     now,
		ReviewTriggers: []models.ReviewTrigger{trigger},
		Reasoning: []string{
			"Human review triggered: " + reason + " (severity: " + severity + ")",
		},
	}
}
