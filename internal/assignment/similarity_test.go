package assignment

import (
	"math"
	"testing"

	"github.com/ticketwise-io/ticketwise/internal/models"
)

func TestSimilarityScore(t *testing.T) {
	similar := []models.SimilarTicket{
		{SimilarityScore: 0.92, AssigneeEmail: "a@corp.io"},
		{SimilarityScore: 0.88, AssigneeEmail: "a@corp.io"},
		{SimilarityScore: 0.75, AssigneeEmail: "b@corp.io"},
	}

	tests := []struct {
		name      string
		email     string
		similar   []models.SimilarTicket
		wantScore float64
		wantCount int
	}{
		{
			name:      "two resolved",
			email:     "a@corp.io",
			similar:   similar,
			wantScore: 0.3*(math.Log(3)/math.Log(6)) + 0.7*0.90,
			wantCount: 2,
		},
		{
			name:      "one resolved",
			email:     "b@corp.io",
			similar:   similar,
			wantScore: 0.3*(math.Log(2)/math.Log(6)) + 0.7*0.75,
			wantCount: 1,
		},
		{name: "none resolved", email: "c@corp.io", similar: similar},
		{name: "empty set", email: "a@corp.io"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, count := similarityScore(tt.email, tt.similar)
			if math.Abs(score-tt.wantScore) > 1e-9 {
				t.Errorf("score = %v, want %v", score, tt.wantScore)
			}
			if count != tt.wantCount {
				t.Errorf("count = %d, want %d", count, tt.wantCount)
			}
		})
	}
}

func TestSimilarityScoreExpertiseSaturates(t *testing.T) {
	var similar []models.SimilarTicket
	for i := 0; i < 20; i++ {
		similar = append(similar, models.SimilarTicket{SimilarityScore: 1.0, AssigneeEmail: "a@corp.io"})
	}

	score, count := similarityScore("a@corp.io", similar)
	if count != 20 {
		t.Fatalf("count = %d, want 20", count)
	}
	if score != 1.0 {
		t.Errorf("score = %v, want capped at 1.0", score)
	}
}
