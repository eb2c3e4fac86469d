package assignment

import "github.com/ticketwise-io/ticketwise/internal/models"

// weightSet holds the five component weights for one priority.
// Each row sums to 1.0.
type weightSet struct {
	Similarity   float64
	Skill        float64
	Availability float64
	Workload     float64
	Timezone     float64
}

// weightTable is the priority-conditioned weight matrix. Urgent tickets
// lean on timezone and prior expertise; Low leans on workload balance.
var weightTable = map[models.Priority]weightSet{
	models.PriorityCritical: {Similarity: 0.25, Skill: 0.15, Availability: 0.15, Workload: 0.10, Timezone: 0.35},
	models.PriorityHigh:     {Similarity: 0.25, Skill: 0.15, Availability: 0.15, Workload: 0.15, Timezone: 0.30},
	models.PriorityMedium:   {Similarity: 0.20, Skill: 0.25, Availability: 0.20, Workload: 0.20, Timezone: 0.15},
	models.PriorityLow:      {Similarity: 0.15, Skill: 0.15, Availability: 0.15, Workload: 0.40, Timezone: 0.15},
}

// weightsFor returns the weight row for a priority, falling back to Medium
// for anything unknown.
func weightsFor(p models.Priority) weightSet {
	if w, ok := weightTable[p]; ok {
		return w
	}
	return weightTable[models.PriorityMedium]
}

func (w weightSet) sum() float64 {
	return w.Similarity + w.Skill + w.Availability + w.Workload + w.Timezone
}
