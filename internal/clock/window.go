package clock

import "time"

// Follow-the-Sun boundaries, expressed as UTC hour-of-day.
//
// Morning overlap: US wrapping up, IST starting (6:00-8:00 IST).
// Evening overlap: IST wrapping up, US starting (17:30-20:00 IST).
const (
	MorningOverlapStartUTC = 0.5
	MorningOverlapEndUTC   = 2.5
	ISTStartUTC            = 2.5
	EveningOverlapStartUTC = 12.0
	EveningOverlapEndUTC   = 14.5
)

// Window is the current Follow-the-Sun shift window.
type Window string

const (
	WindowMorningOverlap Window = "MORNING_OVERLAP"
	WindowISTOnly        Window = "IST_ONLY"
	WindowEveningOverlap Window = "EVENING_OVERLAP"
	WindowUSOnly         Window = "US_ONLY"
)

// ClassifyWindow returns the shift window containing the given instant.
func ClassifyWindow(t time.Time) Window {
	h := HourOfDay(t)
	switch {
	case h >= MorningOverlapStartUTC && h < MorningOverlapEndUTC:
		return WindowMorningOverlap
	case h >= ISTStartUTC && h < EveningOverlapStartUTC:
		return WindowISTOnly
	case h >= EveningOverlapStartUTC && h < EveningOverlapEndUTC:
		return WindowEveningOverlap
	default:
		return WindowUSOnly
	}
}

// IsOverlap reports whether both regions are on shift.
func (w Window) IsOverlap() bool {
	return w == WindowMorningOverlap || w == WindowEveningOverlap
}

// PreferredRegion returns the region that should be picking up new work
// right now: IST during its extended day (2.5-14.5 UTC), US otherwise.
func PreferredRegion(t time.Time) Region {
	h := HourOfDay(t)
	if h >= ISTStartUTC && h < EveningOverlapEndUTC {
		return RegionIST
	}
	return RegionUS
}
