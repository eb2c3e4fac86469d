package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ticketwise-io/ticketwise/internal/models"
)

// DecisionRepository persists assignment decisions and serves the
// pending-review queue the sweeper drains.
type DecisionRepository struct {
	db *sqlx.DB
}

func NewDecisionRepository(db *sqlx.DB) *DecisionRepository {
	return &DecisionRepository{db: db}
}

// PendingReview is one human-review decision waiting on its timeout.
type PendingReview struct {
	ID         string    `db:"id"`
	TicketID   string    `db:"ticket_id"`
	Reason     string    `db:"review_reason"`
	Severity   string    `db:"review_severity"`
	AssignedAt time.Time `db:"assigned_at"`
	TimeoutAt  time.Time `db:"timeout_at"`
}

// Save writes the decision with its reasoning and top candidates as JSON.
// Human-review decisions also record their trigger and timeout so the
// sweeper can escalate them later.
func (r *DecisionRepository) Save(ctx context.Context, d *models.AssignmentDecision) (string, error) {
	reasoning, err := json.Marshal(d.Reasoning)
	if err != nil {
		return "", fmt.Errorf("failed to marshal reasoning: %w", err)
	}
	topCandidates, err := json.Marshal(d.TopCandidates)
	if err != nil {
		return "", fmt.Errorf("failed to marshal top candidates: %w", err)
	}
	rules, err := json.Marshal(d.RulesApplied)
	if err != nil {
		return "", fmt.Errorf("failed to marshal rules: %w", err)
	}

	var reason, severity string
	var timeoutAt *time.Time
	if len(d.ReviewTriggers) > 0 {
		t := d.ReviewTriggers[0]
		reason, severity = t.Reason, t.Severity
		if t.Timeout > 0 {
			at := d.AssignedAt.Add(t.Timeout)
			timeoutAt = &at
		}
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO ticket_assignments
			(id, ticket_id, assignee_email, assignment_type, confidence,
			 reasoning, rules_applied, top_candidates,
			 review_reason, review_severity, timeout_at, resolved, assigned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, FALSE, $12)`,
		id, d.TicketID, d.PrimaryAssignee, string(d.Type), d.Confidence,
		reasoning, rules, topCandidates,
		reason, severity, timeoutAt, d.AssignedAt)
	if err != nil {
		return "", fmt.Errorf("failed to save decision for ticket %s: %w", d.TicketID, err)
	}
	return id, nil
}

// ListPendingReviews returns unresolved human-review decisions whose
// timeout has passed as of now.
func (r *DecisionRepository) ListPendingReviews(ctx context.Context, now time.Time) ([]PendingReview, error) {
	var rows []PendingReview
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, ticket_id, review_reason, review_severity, assigned_at, timeout_at
		FROM ticket_assignments
		WHERE assignment_type = 'human_review'
		  AND resolved = FALSE
		  AND timeout_at IS NOT NULL
		  AND timeout_at <= $1
		ORDER BY timeout_at`,
		now)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reviews: %w", err)
	}
	return rows, nil
}

// MarkEscalated closes out a pending review after the sweeper notified.
func (r *DecisionRepository) MarkEscalated(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE ticket_assignments SET resolved = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark review %s escalated: %w", id, err)
	}
	return nil
}
