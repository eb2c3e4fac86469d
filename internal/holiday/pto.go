package holiday

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Time-off categories carried on PTO records.
const (
	TimeOffVacation = "vacation"
	TimeOffSick     = "sick"
	TimeOffTraining = "training"
	TimeOffCasual   = "casual"
	TimeOffOther    = "other"
)

// TimeOff is one approved absence window for a member.
type TimeOff struct {
	MemberID  string    `db:"member_id"`
	Type      string    `db:"time_off_type"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	Status    string    `db:"status"`
}

// OnPTO returns the subset of memberIDs with an approved absence covering
// today. One query regardless of team size.
func (s *Service) OnPTO(ctx context.Context, memberIDs []string, today time.Time) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	if s.db == nil || len(memberIDs) == 0 {
		return out, nil
	}

	day := today.UTC().Format("2006-01-02")
	query, args, err := sqlx.In(`
		SELECT DISTINCT member_id
		FROM time_offs
		WHERE member_id IN (?)
		  AND status = 'approved'
		  AND start_date <= ?
		  AND end_date >= ?`,
		memberIDs, day, day)
	if err != nil {
		return nil, fmt.Errorf("failed to build pto query: %w", err)
	}

	var ids []string
	if err := s.db.SelectContext(ctx, &ids, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query time offs: %w", err)
	}
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}
