// Package assignment implements the multi-factor ticket assignment engine:
// five component scores, a priority-conditioned weight matrix, business-rule
// arbitration and a confidence-gated human-in-the-loop escalation path.
//
// The engine is pure: given the same ticket, similar-ticket set, oracle
// snapshot and clock reading it produces the same decision.
package assignment

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ticketwise-io/ticketwise/internal/clock"
	"github.com/ticketwise-io/ticketwise/internal/models"
)

// SimilarityThreshold gates candidate evaluation: below it the ticket has
// no usable historical pattern and goes straight to human review.
const SimilarityThreshold = 0.70

// Oracle is the batched data-fetch layer backing an Assign call. One call
// to each method per assignment; per-candidate queries are forbidden.
type Oracle interface {
	// ListMembers returns all active operators with normalized skills.
	ListMembers(ctx context.Context) ([]models.TeamMember, error)
	// LoadRuntime returns the availability/workload snapshot for the
	// given members as of today.
	LoadRuntime(ctx context.Context, memberIDs []string, today time.Time) (map[string]*models.MemberRuntime, error)
}

// SkillExtractor derives skill requirements from ticket text. Extraction
// happens once per ticket, never per candidate.
type SkillExtractor interface {
	ExtractSkills(ctx context.Context, text, category string) (models.SkillRequirements, error)
}

var (
	decisionCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_decisions_total",
		Help: "Assignment decisions by type",
	}, []string{"type"})
	assignDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "assignment_duration_seconds",
		Help:    "Time spent inside Engine.Assign",
		Buckets: prometheus.DefBuckets,
	})
)

// Engine orchestrates candidate evaluation, scoring, business-rule
// arbitration and confidence gating.
type Engine struct {
	oracle    Oracle
	extractor SkillExtractor
	clock     clock.Clock
	logger    *log.Logger
}

// NewEngine creates an assignment engine. A nil clock falls back to the
// system clock; a nil logger to log.Default().
func NewEngine(oracle Oracle, extractor SkillExtractor, clk clock.Clock, logger *log.Logger) *Engine {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		oracle:    oracle,
		extractor: extractor,
		clock:     clk,
		logger:    logger,
	}
}

// Assign selects the best-fit operator for the ticket, or routes it to a
// human. Oracle failures surface as an escalation decision, never as a
// partial assignment.
func (e *Engine) Assign(ctx context.Context, ticket models.Ticket, similar []models.SimilarTicket) (*models.AssignmentDecision, error) {
	start := time.Now()
	defer func() { assignDuration.Observe(time.Since(start).Seconds()) }()

	now := e.clock.Now().UTC()

	// Step 1: similarity gate.
	if maxSim := models.MaxSimilarity(similar); maxSim < SimilarityThreshold {
		e.logger.Printf("ticket %s: no similar pattern (max %.2f), requesting human review",
			ticket.TicketID, maxSim)
		return e.finish(reviewDecision(models.DecisionHumanReview, ticket,
			models.ReasonNoSimilarPattern, models.SeverityHigh, now)), nil
	}

	// Skills are extracted once and shared by every candidate.
	req, err := e.extractor.ExtractSkills(ctx, ticket.Text(), ticket.Category)
	if err != nil {
		e.logger.Printf("ticket %s: skill extraction failed: %v", ticket.TicketID, err)
		return e.finish(reviewDecision(models.DecisionEscalation, ticket,
			models.ReasonOracleUnavailable, models.SeverityCritical, now)), nil
	}
	req = req.Normalize()

	// Step 2: candidate evaluation over the batched oracle snapshot.
	members, err := e.oracle.ListMembers(ctx)
	if err != nil {
		e.logger.Printf("ticket %s: member listing failed: %v", ticket.TicketID, err)
		return e.finish(reviewDecision(models.DecisionEscalation, ticket,
			models.ReasonOracleUnavailable, models.SeverityCritical, now)), nil
	}
	if len(members) == 0 {
		return e.finish(reviewDecision(models.DecisionHumanReview, ticket,
			models.ReasonNoAvailableMember, models.SeverityCritical, now)), nil
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	runtimes, err := e.oracle.LoadRuntime(ctx, ids, now)
	if err != nil {
		e.logger.Printf("ticket %s: runtime load failed: %v", ticket.TicketID, err)
		return e.finish(reviewDecision(models.DecisionEscalation, ticket,
			models.ReasonOracleUnavailable, models.SeverityCritical, now)), nil
	}

	candidates := make([]models.AssignmentCandidate, 0, len(members))
	anyAvailable := false
	for _, m := range members {
		rt := runtimes[m.ID]
		if rt == nil {
			rt = &models.MemberRuntime{}
		}
		c := evaluateCandidate(m, rt, req, similar, ticket.Priority, now)
		if c.AvailabilityScore > 0 {
			anyAvailable = true
		}
		candidates = append(candidates, c)
	}

	if !anyAvailable {
		e.logger.Printf("ticket %s: every candidate unavailable today", ticket.TicketID)
		return e.finish(reviewDecision(models.DecisionHumanReview, ticket,
			models.ReasonNoAvailableMember, models.SeverityCritical, now)), nil
	}

	// Step 3: rank.
	rankCandidates(candidates)

	// Step 4: business rules.
	decision := applyRules(ticket, candidates, now)
	decision.TopCandidates = topCandidates(candidates)

	if decision.PrimaryAssignee != "" {
		e.logger.Printf("ticket %s: assigned to %s (type=%s confidence=%.1f)",
			ticket.TicketID, decision.PrimaryAssignee, decision.Type, decision.Confidence)
	}
	return e.finish(decision), nil
}

func (e *Engine) finish(d *models.AssignmentDecision) *models.AssignmentDecision {
	decisionCounter.WithLabelValues(string(d.Type)).Inc()
	return d
}
