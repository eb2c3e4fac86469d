// Package worker consumes ticket events from the bus push subscription
// and runs the assignment pipeline: persist, embed, search, decide,
// notify.
package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ticketwise-io/ticketwise/internal/clock"
	"github.com/ticketwise-io/ticketwise/internal/models"
	"github.com/ticketwise-io/ticketwise/internal/notifications"
	"github.com/ticketwise-io/ticketwise/internal/similarity"
)

// TicketStore persists live tickets and retires them to history.
type TicketStore interface {
	Upsert(ctx context.Context, t models.Ticket, status models.Status, createdAt time.Time) error
	SetAssignee(ctx context.Context, ticketID, assigneeEmail string) error
	Archive(ctx context.Context, ticketID string, resolvedAt time.Time) error
}

// DecisionStore records assignment decisions for audit and review sweeps.
type DecisionStore interface {
	Save(ctx context.Context, d *models.AssignmentDecision) (string, error)
}

// EmbeddingStore keeps ticket embeddings for future similarity searches.
type EmbeddingStore interface {
	Save(ctx context.Context, ticketID string, vec []float32) error
}

// SimilarityIndex searches historical tickets by an already-computed
// embedding, so the pipeline embeds each ticket exactly once.
type SimilarityIndex interface {
	FindSimilarByVector(ctx context.Context, vec []float32) ([]models.SimilarTicket, error)
}

// Assigner produces an assignment decision for a new ticket.
type Assigner interface {
	Assign(ctx context.Context, ticket models.Ticket, similar []models.SimilarTicket) (*models.AssignmentDecision, error)
}

// Pipeline is the per-event processing chain.
type Pipeline struct {
	tickets    TicketStore
	decisions  DecisionStore
	embeddings EmbeddingStore
	embedder   similarity.Embedder
	index      SimilarityIndex
	engine     Assigner
	sinks      []notifications.Sink
	clock      clock.Clock
	logger     *log.Logger
}

func NewPipeline(
	tickets TicketStore,
	decisions DecisionStore,
	embeddings EmbeddingStore,
	embedder similarity.Embedder,
	index SimilarityIndex,
	engine Assigner,
	sinks []notifications.Sink,
	clk clock.Clock,
	logger *log.Logger,
) *Pipeline {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{
		tickets:    tickets,
		decisions:  decisions,
		embeddings: embeddings,
		embedder:   embedder,
		index:      index,
		engine:     engine,
		sinks:      sinks,
		clock:      clk,
		logger:     logger,
	}
}

// Process handles one validated ticket event. Closing events retire the
// ticket to history; creation events run the full assignment pipeline
// and return the decision. Any error means the event should be
// redelivered by the bus.
func (p *Pipeline) Process(ctx context.Context, payload *models.ServiceNowPayload) (*models.AssignmentDecision, error) {
	now := p.clock.Now().UTC()

	if payload.IsClosing() {
		if err := p.tickets.Archive(ctx, payload.TicketID, now); err != nil {
			return nil, fmt.Errorf("failed to archive ticket %s: %w", payload.TicketID, err)
		}
		p.logger.Printf("archived ticket %s on %s", payload.TicketID, payload.EventType)
		return nil, nil
	}

	ticket := payload.Ticket()
	createdAt := parseEventTime(payload.CreatedAt, now)

	if err := p.tickets.Upsert(ctx, ticket, models.ParseStatus(payload.Status), createdAt); err != nil {
		return nil, fmt.Errorf("failed to persist ticket %s: %w", ticket.TicketID, err)
	}

	vec, err := p.embedder.Embed(ctx, ticket.Text())
	if err != nil {
		return nil, fmt.Errorf("failed to embed ticket %s: %w", ticket.TicketID, err)
	}
	if err := p.embeddings.Save(ctx, ticket.TicketID, vec); err != nil {
		return nil, fmt.Errorf("failed to store embedding for %s: %w", ticket.TicketID, err)
	}

	similar, err := p.index.FindSimilarByVector(ctx, vec)
	if err != nil {
		return nil, fmt.Errorf("failed to search similar tickets for %s: %w", ticket.TicketID, err)
	}

	decision, err := p.engine.Assign(ctx, ticket, similar)
	if err != nil {
		return nil, fmt.Errorf("assignment failed for %s: %w", ticket.TicketID, err)
	}

	if _, err := p.decisions.Save(ctx, decision); err != nil {
		return nil, fmt.Errorf("failed to record decision for %s: %w", ticket.TicketID, err)
	}

	if decision.PrimaryAssignee != "" {
		if err := p.tickets.SetAssignee(ctx, ticket.TicketID, decision.PrimaryAssignee); err != nil {
			return nil, fmt.Errorf("failed to assign ticket %s to %s: %w",
				ticket.TicketID, decision.PrimaryAssignee, err)
		}
	}

	notifications.Broadcast(ctx, p.sinks, decision, p.logger)

	return decision, nil
}

// parseEventTime accepts the timestamp formats ServiceNow emits and
// falls back to the receive time on anything it cannot read.
func parseEventTime(raw string, fallback time.Time) time.Time {
	if raw == "" {
		return fallback
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return fallback
}
