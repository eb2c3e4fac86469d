package clock

import "strings"

// Region is the coarse team region derived from an IANA timezone string.
// A proper tz database lookup would work too; the prefix match is what the
// routing tables are defined against.
type Region string

const (
	RegionIST   Region = "IST"
	RegionUS    Region = "US"
	RegionOther Region = "Other"
)

// ClassifyTimezone maps an IANA timezone name to a team region.
// "Asia/*" is IST, "America/*" and "US/*" are US, everything else Other.
func ClassifyTimezone(tz string) Region {
	switch {
	case strings.HasPrefix(tz, "Asia/"):
		return RegionIST
	case strings.HasPrefix(tz, "America/"), strings.HasPrefix(tz, "US/"):
		return RegionUS
	default:
		return RegionOther
	}
}

// HolidayRegion maps the routing region to the holiday table's region code.
func (r Region) HolidayRegion() string {
	if r == RegionIST {
		return "IN"
	}
	return "US"
}
