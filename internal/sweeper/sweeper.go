// Package sweeper runs the scheduled background jobs: escalating
// human-review decisions nobody acted on, and rolling the holiday cache
// over at midnight.
package sweeper

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"

	"github.com/ticketwise-io/ticketwise/internal/clock"
	"github.com/ticketwise-io/ticketwise/internal/models"
	"github.com/ticketwise-io/ticketwise/internal/notifications"
	"github.com/ticketwise-io/ticketwise/internal/repository"
)

var escalatedCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "review_timeouts_escalated_total",
	Help: "Human-review decisions escalated after their timeout expired",
})

// ReviewStore lists overdue human-review decisions and closes them out.
type ReviewStore interface {
	ListPendingReviews(ctx context.Context, now time.Time) ([]repository.PendingReview, error)
	MarkEscalated(ctx context.Context, id string) error
}

// CacheFlusher drops cached holiday lookups. Implemented by the holiday
// service.
type CacheFlusher interface {
	FlushCache()
}

const (
	reviewSweepSchedule = "@every 5m"
	cacheFlushSchedule  = "0 0 * * *"
	sweepTimeout        = 2 * time.Minute
)

// Sweeper owns the cron scheduler and its two jobs.
type Sweeper struct {
	reviews ReviewStore
	flusher CacheFlusher
	sinks   []notifications.Sink
	clock   clock.Clock
	logger  *log.Logger

	cron *cron.Cron
	wg   sync.WaitGroup
}

func New(reviews ReviewStore, flusher CacheFlusher, sinks []notifications.Sink, clk clock.Clock, logger *log.Logger) *Sweeper {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Sweeper{
		reviews: reviews,
		flusher: flusher,
		sinks:   sinks,
		clock:   clk,
		logger:  logger,
		cron:    cron.New(),
	}
}

// Start registers the jobs and launches the scheduler.
func (s *Sweeper) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(reviewSweepSchedule, func() {
		s.runJob(ctx, "review sweep", s.SweepReviews)
	}); err != nil {
		return fmt.Errorf("failed to schedule review sweep: %w", err)
	}
	if _, err := s.cron.AddFunc(cacheFlushSchedule, func() {
		s.runJob(ctx, "holiday cache flush", func(context.Context) error {
			s.flusher.FlushCache()
			return nil
		})
	}); err != nil {
		return fmt.Errorf("failed to schedule cache flush: %w", err)
	}

	s.cron.Start()
	s.logger.Println("sweeper started")
	return nil
}

// Stop halts the scheduler and waits for in-flight jobs.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	s.wg.Wait()
	<-ctx.Done()
	s.logger.Println("sweeper stopped")
}

func (s *Sweeper) runJob(ctx context.Context, name string, job func(context.Context) error) {
	s.wg.Add(1)
	defer s.wg.Done()

	jobCtx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	start := time.Now()
	if err := job(jobCtx); err != nil {
		s.logger.Printf("%s failed after %v: %v", name, time.Since(start), err)
		return
	}
	s.logger.Printf("%s completed in %v", name, time.Since(start))
}

// SweepReviews escalates every unresolved human-review decision whose
// timeout has passed. Each review is notified first and marked resolved
// second, so a crash in between renotifies rather than losing the
// escalation.
func (s *Sweeper) SweepReviews(ctx context.Context) error {
	now := s.clock.Now().UTC()

	pending, err := s.reviews.ListPendingReviews(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list pending reviews: %w", err)
	}

	for _, r := range pending {
		overdue := now.Sub(r.TimeoutAt).Round(time.Minute)
		d := &models.AssignmentDecision{
			Type:       models.DecisionEscalation,
			Confidence: 0,
			Reasoning: []string{fmt.Sprintf(
				"Human review for ticket %s expired %v ago without action", r.TicketID, overdue)},
			RulesApplied: []string{"review_timeout_escalation"},
			ReviewTriggers: []models.ReviewTrigger{{
				Reason:   r.Reason,
				Severity: r.Severity,
				Action:   models.ActionManagerEscalation,
				Message:  "review window expired, escalating to manager",
				TicketID: r.TicketID,
			}},
			TicketID:   r.TicketID,
			AssignedAt: now,
		}
		notifications.Broadcast(ctx, s.sinks, d, s.logger)

		if err := s.reviews.MarkEscalated(ctx, r.ID); err != nil {
			s.logger.Printf("failed to mark review %s escalated: %v", r.ID, err)
			continue
		}
		escalatedCounter.Inc()
		s.logger.Printf("escalated review %s for ticket %s (%s)", r.ID, r.TicketID, r.Reason)
	}
	return nil
}
