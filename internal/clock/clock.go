// Package clock provides the injectable UTC clock and the coarse
// timezone/window classification used by follow-the-sun routing.
package clock

import "time"

// Clock yields the current UTC time. The engine takes a Clock instead of
// calling time.Now so decisions are reproducible in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time {
	return c.T.UTC()
}

// HourOfDay returns the UTC hour as a real number in [0,24),
// e.g. 13:30 UTC -> 13.5.
func HourOfDay(t time.Time) float64 {
	t = t.UTC()
	return float64(t.Hour()) + float64(t.Minute())/60.0
}
