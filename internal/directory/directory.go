// Package directory serves the team roster backing candidate evaluation.
package directory

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/ticketwise-io/ticketwise/internal/models"
)

// Service lists active operators with their skills. Two queries per call
// regardless of team size.
type Service struct {
	db     *sqlx.DB
	logger *log.Logger
}

func NewService(db *sqlx.DB, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{db: db, logger: logger}
}

type memberRow struct {
	ID       string `db:"id"`
	Email    string `db:"email"`
	Name     string `db:"name"`
	Timezone string `db:"timezone"`
	Role     string `db:"app_role"`
}

type skillRow struct {
	MemberID string `db:"member_id"`
	Name     string `db:"skill_name"`
}

// ListMembers returns every active operator with normalized skills,
// ordered by email for stable downstream ranking.
func (s *Service) ListMembers(ctx context.Context) ([]models.TeamMember, error) {
	var rows []memberRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, email, name, timezone, app_role
		FROM team_members
		WHERE is_active = TRUE AND app_role = 'user'
		ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}

	query, args, err := sqlx.In(`
		SELECT member_id, skill_name
		FROM member_skills
		WHERE member_id IN (?)
		ORDER BY member_id, skill_name`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build skills query: %w", err)
	}

	var skills []skillRow
	if err := s.db.SelectContext(ctx, &skills, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list member skills: %w", err)
	}

	byMember := make(map[string][]string, len(rows))
	for _, sk := range skills {
		byMember[sk.MemberID] = append(byMember[sk.MemberID], sk.Name)
	}

	members := make([]models.TeamMember, 0, len(rows))
	for _, r := range rows {
		members = append(members, models.TeamMember{
			ID:       r.ID,
			Email:    r.Email,
			Name:     r.Name,
			Timezone: r.Timezone,
			Role:     r.Role,
			Skills:   models.NormalizeSkills(byMember[r.ID]),
		})
	}
	return members, nil
}
