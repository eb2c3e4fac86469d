package assignment

import (
	"testing"

	"github.com/ticketwise-io/ticketwise/internal/models"
)

func TestConfidenceScore(t *testing.T) {
	strong := models.AssignmentCandidate{
		SimilarityScore:   0.85,
		SkillMatchScore:   0.9,
		AvailabilityScore: 1.0,
		TimezoneScore:     1.0,
		FinalScore:        0.9,
	}
	runnerUp := models.AssignmentCandidate{FinalScore: 0.5}

	tests := []struct {
		name string
		top  models.AssignmentCandidate
		all  []models.AssignmentCandidate
		want float64
	}{
		{
			name: "all checks pass",
			top:  strong,
			all:  []models.AssignmentCandidate{strong, runnerUp},
			want: 1.0,
		},
		{
			name: "single candidate never has a clear winner margin",
			top:  strong,
			all:  []models.AssignmentCandidate{strong},
			want: 0.8,
		},
		{
			name: "nothing passes",
			top: models.AssignmentCandidate{
				SimilarityScore:   0.1,
				SkillMatchScore:   0.2,
				AvailabilityScore: 0.5,
				TimezoneScore:     0.4,
				FinalScore:        0.3,
			},
			all: []models.AssignmentCandidate{
				{FinalScore: 0.3}, {FinalScore: 0.28},
			},
			want: 0.0,
		},
		{
			name: "quarter margin is a clear winner",
			top: models.AssignmentCandidate{
				SimilarityScore:   0.85,
				SkillMatchScore:   0.9,
				AvailabilityScore: 1.0,
				TimezoneScore:     1.0,
				FinalScore:        0.75,
			},
			all: []models.AssignmentCandidate{
				{FinalScore: 0.75}, {FinalScore: 0.5},
			},
			want: 1.0,
		},
		{
			name: "threshold values do not pass",
			top: models.AssignmentCandidate{
				SimilarityScore:   0.70,
				SkillMatchScore:   0.5,
				AvailabilityScore: 0.7,
				TimezoneScore:     1.0,
				// 0.625 and 0.5 are exact in binary, so the margin is
				// exactly 0.125 and stays under the 0.15 cutoff.
				FinalScore: 0.625,
			},
			all: []models.AssignmentCandidate{
				{FinalScore: 0.625}, {FinalScore: 0.5},
			},
			want: 0.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := confidenceScore(tt.top, tt.all); got != tt.want {
				t.Errorf("confidenceScore = %v, want %v", got, tt.want)
			}
		})
	}
}

// Improving any single component never lowers confidence.
func TestConfidenceMonotonic(t *testing.T) {
	base := models.AssignmentCandidate{
		SimilarityScore:   0.4,
		SkillMatchScore:   0.4,
		AvailabilityScore: 0.4,
		TimezoneScore:     0.4,
		FinalScore:        0.5,
	}
	all := []models.AssignmentCandidate{base, {FinalScore: 0.45}}
	before := confidenceScore(base, all)

	better := base
	better.SimilarityScore = 0.9
	better.AvailabilityScore = 1.0
	if after := confidenceScore(better, all); after < before {
		t.Errorf("confidence dropped from %v to %v after improving components", before, after)
	}
}
