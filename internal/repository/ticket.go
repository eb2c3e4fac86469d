// Package repository holds the sqlx persistence layer: active tickets,
// the historical archive, assignment rows and embeddings.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ticketwise-io/ticketwise/internal/models"
)

// TicketRepository manages the active tickets table and the archive path
// into historical_tickets.
type TicketRepository struct {
	db *sqlx.DB
}

func NewTicketRepository(db *sqlx.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// Upsert records an incoming ticket, updating the row in place when the
// same ServiceNow id arrives again.
func (r *TicketRepository) Upsert(ctx context.Context, t models.Ticket, status models.Status, createdAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tickets (snow_id, title, description, category, priority, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (snow_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			priority = EXCLUDED.priority,
			status = EXCLUDED.status`,
		t.TicketID, t.Title, t.Description, t.Category, string(t.Priority), string(status), createdAt)
	if err != nil {
		return fmt.Errorf("failed to upsert ticket %s: %w", t.TicketID, err)
	}
	return nil
}

// SetAssignee points the active ticket at the chosen member.
func (r *TicketRepository) SetAssignee(ctx context.Context, ticketID, assigneeEmail string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tickets
		SET assignee_id = (SELECT id FROM team_members WHERE email = $2),
		    status = 'InProgress'
		WHERE snow_id = $1`,
		ticketID, assigneeEmail)
	if err != nil {
		return fmt.Errorf("failed to set assignee on ticket %s: %w", ticketID, err)
	}
	return nil
}

// Archive moves a closed or resolved ticket into historical_tickets,
// denormalizing the assignee email onto the row so similarity matches
// outlive team member records.
func (r *TicketRepository) Archive(ctx context.Context, ticketID string, resolvedAt time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin archive tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO historical_tickets (snow_id, title, description, category, priority, assignee_email, created_at, resolved_at)
		SELECT t.snow_id, t.title, t.description, t.category, t.priority, COALESCE(m.email, ''), t.created_at, $2
		FROM tickets t
		LEFT JOIN team_members m ON m.id = t.assignee_id
		WHERE t.snow_id = $1
		ON CONFLICT (snow_id) DO UPDATE SET resolved_at = EXCLUDED.resolved_at`,
		ticketID, resolvedAt)
	if err != nil {
		return fmt.Errorf("failed to archive ticket %s: %w", ticketID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Nothing active under that id; closing event for an unknown
		// ticket is not an error.
		return tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tickets WHERE snow_id = $1`, ticketID); err != nil {
		return fmt.Errorf("failed to remove archived ticket %s: %w", ticketID, err)
	}
	return tx.Commit()
}
