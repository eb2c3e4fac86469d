package models

import "testing"

func TestServiceNowPayloadValidate(t *testing.T) {
	p := &ServiceNowPayload{EventType: "incident.created"}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	p.EventType = "incident.reassigned"
	if err := p.Validate(); err == nil {
		t.Error("Validate() should reject unsupported event type")
	}
}

func TestServiceNowPayloadIsClosing(t *testing.T) {
	tests := []struct {
		event string
		want  bool
	}{
		{"incident.created", false},
		{"incident.closed", true},
		{"incident.resolved", true},
		{"task.resolved", true},
		{"task.created", false},
	}

	for _, tt := range tests {
		p := &ServiceNowPayload{EventType: tt.event}
		if got := p.IsClosing(); got != tt.want {
			t.Errorf("IsClosing(%q) = %v, want %v", tt.event, got, tt.want)
		}
	}
}

func TestServiceNowPayloadTicket(t *testing.T) {
	p := &ServiceNowPayload{
		TicketID:    "INC0012345",
		Title:       "S3 bucket unreachable",
		Description: "403 on all objects",
		Category:    "AWS",
		Priority:    "2 - High",
	}

	ticket := p.Ticket()
	if ticket.TicketID != "INC0012345" {
		t.Errorf("TicketID = %q, want INC0012345", ticket.TicketID)
	}
	if ticket.Priority != PriorityHigh {
		t.Errorf("Priority = %q, want High", ticket.Priority)
	}
	if ticket.Text() != "Title: S3 bucket unreachable\n\nDescription: 403 on all objects" {
		t.Errorf("Text() = %q", ticket.Text())
	}
}

func TestMaxSimilarity(t *testing.T) {
	if got := MaxSimilarity(nil); got != 0 {
		t.Errorf("MaxSimilarity(nil) = %v, want 0", got)
	}

	similar := []SimilarTicket{
		{SimilarityScore: 0.42},
		{SimilarityScore: 0.91},
		{SimilarityScore: 0.77},
	}
	if got := MaxSimilarity(similar); got != 0.91 {
		t.Errorf("MaxSimilarity = %v, want 0.91", got)
	}
}
