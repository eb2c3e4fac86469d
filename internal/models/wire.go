package models

import (
	"fmt"
	"strings"
)

// Accepted webhook event types.
var AllowedEventTypes = map[string]struct{}{
	"incident.created":  {},
	"incident.closed":   {},
	"incident.resolved": {},
	"task.created":      {},
	"task.closed":       {},
	"task.resolved":     {},
}

// ServiceNowPayload is the webhook body pushed by ServiceNow.
type ServiceNowPayload struct {
	EventType   string            `json:"event_type" binding:"required"`
	TicketID    string            `json:"ticket_id" binding:"required"`
	Title       string            `json:"title" binding:"required"`
	Description string            `json:"description" binding:"required"`
	Priority    string            `json:"priority" binding:"required"`
	Status      string            `json:"status" binding:"required"`
	CallerID    string            `json:"caller_id" binding:"required"`
	DueDate     string            `json:"due_date" binding:"required"`
	Category    string            `json:"category,omitempty"`
	CreatedAt   string            `json:"created_at,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Validate checks the fields gin's binding cannot express.
func (p *ServiceNowPayload) Validate() error {
	if _, ok := AllowedEventTypes[p.EventType]; !ok {
		allowed := make([]string, 0, len(AllowedEventTypes))
		for t := range AllowedEventTypes {
			allowed = append(allowed, t)
		}
		return fmt.Errorf("event type %q is not supported (allowed: %s)",
			p.EventType, strings.Join(allowed, ", "))
	}
	return nil
}

// IsClosing reports whether the event retires the ticket instead of
// opening one for assignment.
func (p *ServiceNowPayload) IsClosing() bool {
	return strings.HasSuffix(p.EventType, ".closed") || strings.HasSuffix(p.EventType, ".resolved")
}

// Ticket converts the wire payload into the canonical engine input.
func (p *ServiceNowPayload) Ticket() Ticket {
	return Ticket{
		TicketID:    p.TicketID,
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Priority:    ParsePriority(p.Priority),
	}
}

// PubSubMessage is the inner message of a push-subscription delivery.
// Data is base64-encoded by Pub/Sub.
type PubSubMessage struct {
	Data        string            `json:"data"`
	MessageID   string            `json:"messageId"`
	PublishTime string            `json:"publishTime"`
	Attributes  map[string]string `json:"attributes"`
}

// PubSubEnvelope is the push-subscription wrapper delivered to the worker.
type PubSubEnvelope struct {
	Message      PubSubMessage `json:"message"`
	Subscription string        `json:"subscription"`
}
