// Package notifications fans assignment decisions out to humans:
// assignees, team leads and managers, depending on the decision type and
// its review triggers.
package notifications

import (
	"context"
	"log"

	"github.com/ticketwise-io/ticketwise/internal/models"
)

// Sink delivers one decision to a destination. Delivery failures are the
// sink's problem; the pipeline never blocks on them.
type Sink interface {
	Deliver(ctx context.Context, decision *models.AssignmentDecision) error
}

// LogSink writes decisions to the service log. Always configured; doubles
// as the development sink.
type LogSink struct {
	Logger *log.Logger
}

func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{Logger: logger}
}

func (s *LogSink) Deliver(ctx context.Context, d *models.AssignmentDecision) error {
	switch {
	case d.NeedsHuman():
		for _, t := range d.ReviewTriggers {
			s.Logger.Printf("ticket %s needs a human: %s (severity=%s action=%s)",
				d.TicketID, t.Reason, t.Severity, t.Action)
		}
	case d.PrimaryAssignee != "":
		s.Logger.Printf("ticket %s assigned to %s (confidence=%.1f)",
			d.TicketID, d.PrimaryAssignee, d.Confidence)
	}
	return nil
}

// Broadcast delivers to every sink, logging failures instead of
// propagating them.
func Broadcast(ctx context.Context, sinks []Sink, d *models.AssignmentDecision, logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}
	for _, sink := range sinks {
		if err := sink.Deliver(ctx, d); err != nil {
			logger.Printf("notification delivery failed for ticket %s: %v", d.TicketID, err)
		}
	}
}
