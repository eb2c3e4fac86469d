// Package workload builds the per-assignment runtime snapshot: active
// ticket burden, PTO and holiday flags, recent assignment counts. Every
// query is batched over the full member set; per-member queries are a bug.
package workload

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ticketwise-io/ticketwise/internal/clock"
	"github.com/ticketwise-io/ticketwise/internal/holiday"
	"github.com/ticketwise-io/ticketwise/internal/models"
)

const recentWindow = 7 * 24 * time.Hour

// Service assembles MemberRuntime snapshots.
type Service struct {
	db       *sqlx.DB
	holidays *holiday.Service
	logger   *log.Logger
}

func NewService(db *sqlx.DB, holidays *holiday.Service, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{db: db, holidays: holidays, logger: logger}
}

type activeRow struct {
	AssigneeID string    `db:"assignee_id"`
	Priority   string    `db:"priority"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
}

type countRow struct {
	AssigneeID string `db:"assignee_id"`
	Count      int    `db:"count"`
}

type tzRow struct {
	ID       string `db:"id"`
	Timezone string `db:"timezone"`
}

// LoadRuntime returns the availability and load snapshot for the given
// members as of today.
func (s *Service) LoadRuntime(ctx context.Context, memberIDs []string, today time.Time) (map[string]*models.MemberRuntime, error) {
	out := make(map[string]*models.MemberRuntime, len(memberIDs))
	if len(memberIDs) == 0 {
		return out, nil
	}
	for _, id := range memberIDs {
		out[id] = &models.MemberRuntime{}
	}

	if err := s.loadActiveTickets(ctx, memberIDs, out); err != nil {
		return nil, err
	}
	if err := s.loadRecentCounts(ctx, memberIDs, today, out); err != nil {
		return nil, err
	}

	onPTO, err := s.holidays.OnPTO(ctx, memberIDs, today)
	if err != nil {
		return nil, err
	}
	for id := range onPTO {
		out[id].OnPTO = true
	}

	if err := s.loadHolidayFlags(ctx, memberIDs, today, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) loadActiveTickets(ctx context.Context, memberIDs []string, out map[string]*models.MemberRuntime) error {
	query, args, err := sqlx.In(`
		SELECT assignee_id, priority, status, created_at
		FROM tickets
		WHERE assignee_id IN (?)
		  AND status NOT IN ('Closed', 'Resolved')`, memberIDs)
	if err != nil {
		return fmt.Errorf("failed to build active tickets query: %w", err)
	}

	var rows []activeRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to query active tickets: %w", err)
	}

	for _, r := range rows {
		rt, ok := out[r.AssigneeID]
		if !ok {
			continue
		}
		rt.ActiveTickets = append(rt.ActiveTickets, models.ActiveTicket{
			Priority:  models.ParsePriority(r.Priority),
			Status:    models.ParseStatus(r.Status),
			CreatedAt: r.CreatedAt,
		})
	}
	return nil
}

func (s *Service) loadRecentCounts(ctx context.Context, memberIDs []string, today time.Time, out map[string]*models.MemberRuntime) error {
	since := today.Add(-recentWindow)
	query, args, err := sqlx.In(`
		SELECT m.id AS assignee_id, COUNT(*) AS count
		FROM ticket_assignments a
		JOIN team_members m ON m.email = a.assignee_email
		WHERE m.id IN (?)
		  AND a.assigned_at >= ?
		GROUP BY m.id`, memberIDs, since)
	if err != nil {
		return fmt.Errorf("failed to build recent assignments query: %w", err)
	}

	var rows []countRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to query recent assignments: %w", err)
	}

	for _, r := range rows {
		if rt, ok := out[r.AssigneeID]; ok {
			rt.RecentAssignments = r.Count
		}
	}
	return nil
}

// loadHolidayFlags resolves each member's holiday region from their
// timezone and asks the holiday oracle once per distinct region.
func (s *Service) loadHolidayFlags(ctx context.Context, memberIDs []string, today time.Time, out map[string]*models.MemberRuntime) error {
	query, args, err := sqlx.In(`
		SELECT id, timezone FROM team_members WHERE id IN (?)`, memberIDs)
	if err != nil {
		return fmt.Errorf("failed to build timezone query: %w", err)
	}

	var rows []tzRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to query member timezones: %w", err)
	}

	type flags struct{ regional, global bool }
	byRegion := make(map[string]flags, 2)

	for _, r := range rows {
		region := clock.ClassifyTimezone(r.Timezone).HolidayRegion()
		f, seen := byRegion[region]
		if !seen {
			regional, global, err := s.holidays.Lookup(ctx, region, today)
			if err != nil {
				return err
			}
			f = flags{regional: regional, global: global}
			byRegion[region] = f
		}
		if rt, ok := out[r.ID]; ok {
			rt.RegionalHoliday = f.regional
			rt.GlobalHoliday = f.global
		}
	}
	return nil
}
