package assignment

import "github.com/ticketwise-io/ticketwise/internal/models"

// globalHolidayOverride is the priority-indexed availability during a
// global holiday. Critical incidents still get handled, with a penalty;
// routine work waits for the next working day.
var globalHolidayOverride = map[models.Priority]float64{
	models.PriorityCritical: 0.5,
	models.PriorityHigh:     0.3,
	models.PriorityMedium:   0.0,
	models.PriorityLow:      0.0,
}

// availabilityScore computes the binary-with-override availability gate.
// PTO and regional holidays are hard blockers; a global holiday is soft,
// overridable by ticket priority. First match wins.
func availabilityScore(rt *models.MemberRuntime, priority models.Priority) (float64, string) {
	switch {
	case rt.OnPTO:
		return 0.0, "On PTO/TimeOff"
	case rt.RegionalHoliday:
		return 0.0, "Regional public holiday"
	case rt.GlobalHoliday:
		score := globalHolidayOverride[priority]
		if score > 0 {
			return score, "Global holiday (emergency override for " + priority.String() + " priority)"
		}
		return 0.0, "Global holiday (" + priority.String() + " priority can wait)"
	default:
		return 1.0, ""
	}
}
