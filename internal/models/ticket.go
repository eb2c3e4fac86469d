package models

import "time"

// Ticket is the engine's view of an incoming ticket. Priority has already
// been canonicalized; the engine does not reclassify it.
type Ticket struct {
	TicketID    string   `json:"ticket_id" db:"snow_id"`
	Title       string   `json:"title" db:"title"`
	Description string   `json:"description" db:"description"`
	Category    string   `json:"category" db:"category"`
	Priority    Priority `json:"priority" db:"priority"`
}

// Text returns the combined ticket text used for embedding and skill
// extraction.
func (t Ticket) Text() string {
	return "Title: " + t.Title + "\n\nDescription: " + t.Description
}

// SimilarTicket is a historically resolved ticket returned by the
// similarity search. AssigneeEmail is denormalized onto the historical
// record so past assignees survive team-member deletion.
type SimilarTicket struct {
	SimilarityScore float64   `json:"similarity_score" db:"similarity_score"`
	AssigneeEmail   string    `json:"assignee_email" db:"assignee_email"`
	Priority        Priority  `json:"priority" db:"priority"`
	ResolvedAt      time.Time `json:"resolved_at" db:"resolved_at"`
}

// MaxSimilarity returns the highest similarity score in the set, 0 if empty.
func MaxSimilarity(similar []SimilarTicket) float64 {
	max := 0.0
	for _, s := range similar {
		if s.SimilarityScore > max {
			max = s.SimilarityScore
		}
	}
	return max
}

// ActiveTicket is one entry of a member's current workload.
type ActiveTicket struct {
	Priority  Priority  `json:"priority" db:"priority"`
	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
