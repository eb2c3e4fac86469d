package assignment

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ticketwise-io/ticketwise/internal/clock"
	"github.com/ticketwise-io/ticketwise/internal/models"
)

type stubOracle struct {
	members  []models.TeamMember
	runtimes map[string]*models.MemberRuntime

	membersErr error
	runtimeErr error
}

func (s *stubOracle) ListMembers(ctx context.Context) ([]models.TeamMember, error) {
	return s.members, s.membersErr
}

func (s *stubOracle) LoadRuntime(ctx context.Context, memberIDs []string, today time.Time) (map[string]*models.MemberRuntime, error) {
	if s.runtimeErr != nil {
		return nil, s.runtimeErr
	}
	return s.runtimes, nil
}

type stubExtractor struct {
	req models.SkillRequirements
	err error
}

func (s *stubExtractor) ExtractSkills(ctx context.Context, text, category string) (models.SkillRequirements, error) {
	return s.req, s.err
}

var engineClock = clock.FixedClock{T: time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)}

func awsExtractor() *stubExtractor {
	return &stubExtractor{req: models.SkillRequirements{
		Critical:  []string{"aws"},
		Important: []string{"s3"},
	}}
}

func solvedBy(email string, scores ...float64) []models.SimilarTicket {
	out := make([]models.SimilarTicket, 0, len(scores))
	for _, s := range scores {
		out = append(out, models.SimilarTicket{SimilarityScore: s, AssigneeEmail: email})
	}
	return out
}

func TestAssignExpertInZone(t *testing.T) {
	oracle := &stubOracle{
		members: []models.TeamMember{
			{ID: "m1", Email: "asha@corp.io", Name: "Asha", Timezone: "Asia/Kolkata", Skills: []string{"aws", "s3"}},
			{ID: "m2", Email: "bob@corp.io", Name: "Bob", Timezone: "America/New_York", Skills: []string{"aws"}},
		},
		runtimes: map[string]*models.MemberRuntime{
			"m1": {RecentAssignments: 1},
			"m2": {
				RecentAssignments: 2,
				ActiveTickets: []models.ActiveTicket{
					{Priority: models.PriorityMedium, Status: models.StatusInProgress, CreatedAt: engineClock.T.Add(-48 * time.Hour)},
					{Priority: models.PriorityMedium, Status: models.StatusInProgress, CreatedAt: engineClock.T.Add(-48 * time.Hour)},
				},
			},
		},
	}
	engine := NewEngine(oracle, awsExtractor(), engineClock, nil)
	ticket := models.Ticket{TicketID: "INC100", Title: "S3 bucket access denied", Priority: models.PriorityMedium}

	d, err := engine.Assign(context.Background(), ticket, solvedBy("asha@corp.io", 0.92, 0.88))
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}

	if d.Type != models.DecisionNormal {
		t.Fatalf("type = %s, want normal", d.Type)
	}
	if d.PrimaryAssignee != "asha@corp.io" {
		t.Errorf("primary = %q, want asha@corp.io", d.PrimaryAssignee)
	}
	if d.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", d.Confidence)
	}
	if len(d.RulesApplied) != 0 {
		t.Errorf("rules = %v, want none", d.RulesApplied)
	}
	if len(d.TopCandidates) != 2 || d.TopCandidates[0].Email != "asha@corp.io" {
		t.Errorf("top candidates = %+v, want asha first", d.TopCandidates)
	}
	if d.TopCandidates[0].Breakdown.Timezone != 1.0 {
		t.Errorf("breakdown timezone = %v, want 1.0 in IST hours", d.TopCandidates[0].Breakdown.Timezone)
	}
	if d.TicketID != "INC100" || !d.AssignedAt.Equal(engineClock.T) {
		t.Errorf("decision stamped %s/%s, want INC100 at the fixed clock", d.TicketID, d.AssignedAt)
	}
}

func TestAssignNoSimilarPattern(t *testing.T) {
	oracle := &stubOracle{members: []models.TeamMember{
		{ID: "m1", Email: "asha@corp.io", Timezone: "Asia/Kolkata"},
	}}
	engine := NewEngine(oracle, awsExtractor(), engineClock, nil)
	ticket := models.Ticket{TicketID: "INC101", Title: "Never seen before", Priority: models.PriorityMedium}

	for _, similar := range [][]models.SimilarTicket{
		nil,
		solvedBy("asha@corp.io", 0.69, 0.5),
	} {
		d, err := engine.Assign(context.Background(), ticket, similar)
		if err != nil {
			t.Fatalf("Assign returned error: %v", err)
		}

		if d.Type != models.DecisionHumanReview {
			t.Fatalf("type = %s, want human_review", d.Type)
		}
		if d.PrimaryAssignee != "" {
			t.Errorf("human review must not carry an assignee, got %q", d.PrimaryAssignee)
		}
		trigger := d.ReviewTriggers[0]
		if trigger.Reason != models.ReasonNoSimilarPattern || trigger.Severity != models.SeverityHigh {
			t.Errorf("trigger = %+v, want no_similar_pattern/high", trigger)
		}
		if trigger.Action != models.ActionTeamConsultation || trigger.Timeout != time.Hour {
			t.Errorf("trigger = %+v, want team_consultation_email with 1h timeout", trigger)
		}
	}
}

func TestAssignOverloadedTopYields(t *testing.T) {
	overloadedTickets := make([]models.ActiveTicket, 6)
	for i := range overloadedTickets {
		overloadedTickets[i] = models.ActiveTicket{
			Priority:  models.PriorityCritical,
			Status:    models.StatusInProgress,
			CreatedAt: engineClock.T.Add(-10 * 24 * time.Hour),
		}
	}

	oracle := &stubOracle{
		members: []models.TeamMember{
			{ID: "m1", Email: "carl@corp.io", Name: "Carl", Timezone: "Asia/Kolkata", Skills: []string{"aws", "s3"}},
			{ID: "m2", Email: "dana@corp.io", Name: "Dana", Timezone: "Asia/Kolkata", Skills: []string{"aws"}},
		},
		runtimes: map[string]*models.MemberRuntime{
			"m1": {ActiveTickets: overloadedTickets},
			"m2": {ActiveTickets: []models.ActiveTicket{
				{Priority: models.PriorityHigh, Status: models.StatusInProgress, CreatedAt: engineClock.T.Add(-time.Hour)},
				{Priority: models.PriorityHigh, Status: models.StatusInProgress, CreatedAt: engineClock.T.Add(-time.Hour)},
			}},
		},
	}
	engine := NewEngine(oracle, awsExtractor(), engineClock, nil)
	ticket := models.Ticket{TicketID: "INC102", Priority: models.PriorityMedium}

	d, err := engine.Assign(context.Background(), ticket, solvedBy("carl@corp.io", 0.9, 0.9, 0.9))
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}

	if d.Type != models.DecisionNormal {
		t.Fatalf("type = %s, want normal", d.Type)
	}
	if d.PrimaryAssignee != "dana@corp.io" {
		t.Errorf("primary = %q, want dana@corp.io", d.PrimaryAssignee)
	}
	found := false
	for _, r := range d.RulesApplied {
		if r == RuleOverloadPrevention {
			found = true
		}
	}
	if !found {
		t.Errorf("rules = %v, want overload_prevention", d.RulesApplied)
	}
}

func TestAssignGlobalHoliday(t *testing.T) {
	oracle := func() *stubOracle {
		return &stubOracle{
			members: []models.TeamMember{
				{ID: "m1", Email: "gita@corp.io", Name: "Gita", Timezone: "Asia/Kolkata", Skills: []string{"aws", "s3"}},
				{ID: "m2", Email: "hank@corp.io", Name: "Hank", Timezone: "America/Chicago", Skills: []string{"aws"}},
			},
			runtimes: map[string]*models.MemberRuntime{
				"m1": {GlobalHoliday: true},
				"m2": {GlobalHoliday: true},
			},
		}
	}
	similar := solvedBy("gita@corp.io", 0.9, 0.9)

	t.Run("low priority waits", func(t *testing.T) {
		engine := NewEngine(oracle(), awsExtractor(), engineClock, nil)
		ticket := models.Ticket{TicketID: "INC103", Priority: models.PriorityLow}

		d, err := engine.Assign(context.Background(), ticket, similar)
		if err != nil {
			t.Fatalf("Assign returned error: %v", err)
		}

		if d.Type != models.DecisionHumanReview {
			t.Fatalf("type = %s, want human_review", d.Type)
		}
		trigger := d.ReviewTriggers[0]
		if trigger.Reason != models.ReasonNoAvailableMember || trigger.Severity != models.SeverityCritical {
			t.Errorf("trigger = %+v, want no_available_members/critical", trigger)
		}
	})

	t.Run("critical priority overrides", func(t *testing.T) {
		engine := NewEngine(oracle(), awsExtractor(), engineClock, nil)
		ticket := models.Ticket{TicketID: "INC104", Priority: models.PriorityCritical}

		d, err := engine.Assign(context.Background(), ticket, similar)
		if err != nil {
			t.Fatalf("Assign returned error: %v", err)
		}

		if d.Type != models.DecisionNormal {
			t.Fatalf("type = %s, want normal", d.Type)
		}
		if d.PrimaryAssignee != "gita@corp.io" {
			t.Errorf("primary = %q, want gita@corp.io", d.PrimaryAssignee)
		}
		if d.TopCandidates[0].Breakdown.Availability != 0.5 {
			t.Errorf("availability = %v, want holiday-override 0.5", d.TopCandidates[0].Breakdown.Availability)
		}
		if d.Confidence != 0.8 {
			t.Errorf("confidence = %v, want 0.8 (availability check fails)", d.Confidence)
		}
	})
}

func TestAssignFairDistribution(t *testing.T) {
	oracle := &stubOracle{
		members: []models.TeamMember{
			{ID: "m1", Email: "eva@corp.io", Name: "Eva", Timezone: "Asia/Kolkata", Skills: []string{"aws", "s3"}},
			{ID: "m2", Email: "finn@corp.io", Name: "Finn", Timezone: "Asia/Kolkata", Skills: []string{"aws", "s3"}},
		},
		runtimes: map[string]*models.MemberRuntime{
			"m1": {RecentAssignments: 7},
			"m2": {RecentAssignments: 1},
		},
	}
	engine := NewEngine(oracle, awsExtractor(), engineClock, nil)
	ticket := models.Ticket{TicketID: "INC105", Priority: models.PriorityMedium}

	d, err := engine.Assign(context.Background(), ticket, solvedBy("eva@corp.io", 0.9, 0.9, 0.9))
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}

	if d.PrimaryAssignee != "finn@corp.io" {
		t.Errorf("primary = %q, want finn@corp.io", d.PrimaryAssignee)
	}
	if len(d.RulesApplied) != 1 || d.RulesApplied[0] != RuleFairDistribution {
		t.Errorf("rules = %v, want [fair_distribution]", d.RulesApplied)
	}
}

func TestAssignNoMembers(t *testing.T) {
	engine := NewEngine(&stubOracle{}, awsExtractor(), engineClock, nil)
	ticket := models.Ticket{TicketID: "INC106", Priority: models.PriorityMedium}

	d, err := engine.Assign(context.Background(), ticket, solvedBy("x@corp.io", 0.9))
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}

	if d.Type != models.DecisionHumanReview {
		t.Fatalf("type = %s, want human_review", d.Type)
	}
	if d.ReviewTriggers[0].Reason != models.ReasonNoAvailableMember {
		t.Errorf("reason = %q, want no_available_members", d.ReviewTriggers[0].Reason)
	}
}

func TestAssignOracleFailures(t *testing.T) {
	boom := errors.New("connection refused")
	ticket := models.Ticket{TicketID: "INC107", Priority: models.PriorityMedium}
	similar := solvedBy("x@corp.io", 0.9)

	tests := []struct {
		name      string
		oracle    *stubOracle
		extractor *stubExtractor
	}{
		{
			name:      "member listing fails",
			oracle:    &stubOracle{membersErr: boom},
			extractor: awsExtractor(),
		},
		{
			name: "runtime load fails",
			oracle: &stubOracle{
				members:    []models.TeamMember{{ID: "m1", Email: "a@corp.io", Timezone: "Asia/Kolkata"}},
				runtimeErr: boom,
			},
			extractor: awsExtractor(),
		},
		{
			name:      "skill extraction fails",
			oracle:    &stubOracle{members: []models.TeamMember{{ID: "m1", Email: "a@corp.io", Timezone: "Asia/Kolkata"}}},
			extractor: &stubExtractor{err: boom},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(tt.oracle, tt.extractor, engineClock, nil)

			d, err := engine.Assign(context.Background(), ticket, similar)
			if err != nil {
				t.Fatalf("oracle failures surface as decisions, not errors; got %v", err)
			}

			if d.Type != models.DecisionEscalation {
				t.Fatalf("type = %s, want escalation", d.Type)
			}
			if d.ReviewTriggers[0].Reason != models.ReasonOracleUnavailable {
				t.Errorf("reason = %q, want oracle_unavailable", d.ReviewTriggers[0].Reason)
			}
			if d.PrimaryAssignee != "" {
				t.Errorf("escalation must not carry an assignee, got %q", d.PrimaryAssignee)
			}
		})
	}
}

func TestAssignDeterministic(t *testing.T) {
	oracle := &stubOracle{
		members: []models.TeamMember{
			{ID: "m1", Email: "asha@corp.io", Name: "Asha", Timezone: "Asia/Kolkata", Skills: []string{"aws", "s3"}},
			{ID: "m2", Email: "bob@corp.io", Name: "Bob", Timezone: "America/New_York", Skills: []string{"aws"}},
			{ID: "m3", Email: "cleo@corp.io", Name: "Cleo", Timezone: "Europe/Berlin", Skills: []string{"s3"}},
		},
		runtimes: map[string]*models.MemberRuntime{
			"m1": {RecentAssignments: 2},
			"m2": {RecentAssignments: 3},
			"m3": {RecentAssignments: 1},
		},
	}
	engine := NewEngine(oracle, awsExtractor(), engineClock, nil)
	ticket := models.Ticket{TicketID: "INC108", Priority: models.PriorityHigh}
	similar := solvedBy("asha@corp.io", 0.88, 0.8)

	first, err := engine.Assign(context.Background(), ticket, similar)
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}
	second, err := engine.Assign(context.Background(), ticket, similar)
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("same inputs produced different decisions:\n%+v\n%+v", first, second)
	}
}

func TestAssignMissingRuntimeTreatedAsFresh(t *testing.T) {
	oracle := &stubOracle{
		members: []models.TeamMember{
			{ID: "m1", Email: "asha@corp.io", Name: "Asha", Timezone: "Asia/Kolkata", Skills: []string{"aws", "s3"}},
		},
		runtimes: map[string]*models.MemberRuntime{},
	}
	engine := NewEngine(oracle, awsExtractor(), engineClock, nil)
	ticket := models.Ticket{TicketID: "INC109", Priority: models.PriorityMedium}

	d, err := engine.Assign(context.Background(), ticket, solvedBy("asha@corp.io", 0.9))
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}

	if d.Type != models.DecisionNormal {
		t.Fatalf("type = %s, want normal", d.Type)
	}
	if d.TopCandidates[0].Breakdown.Availability != 1.0 || d.TopCandidates[0].Breakdown.Workload != 1.0 {
		t.Errorf("missing runtime should mean fully available, got %+v", d.TopCandidates[0].Breakdown)
	}
}
