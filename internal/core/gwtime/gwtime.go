// Package gwtime provides GPS time handling and the observing run table
package gwtime

import "time"

// GPS is a timestamp in GPS seconds. Event times carry sub-second
// fractions, so this is a float even though run boundaries are integral
type GPS float64

// gpsEpoch is 1980-01-06T00:00:00Z
var gpsEpoch = time.Date(1980, time.January, 6, 0, 0, 0, 0, time.UTC)

// leapStep records the cumulative GPS-UTC offset effective from a GPS time
type leapStep struct {
	effective GPS
	offset    int
}

// Only the steps relevant to the observing era are carried; times before
// 2012 are not resolvable against the run table anyway
var leapSteps = []leapStep{
	{1025136016, 16}, // 2012-07-01
	{1119744017, 17}, // 2015-07-01
	{1167264018, 18}, // 2017-01-01
}

// leapOffset returns the GPS-UTC offset in effect at t
func leapOffset(t GPS) int {
	off := leapSteps[0].offset
	for _, s := range leapSteps {
		if t >= s.effective {
			off = s.offset
		}
	}
	return off
}

// UTC converts a GPS time to wall-clock UTC
func (t GPS) UTC() time.Time {
	secs := float64(t) - float64(leapOffset(t))
	whole := int64(secs)
	frac := secs - float64(whole)
	return gpsEpoch.Add(time.Duration(whole)*time.Second + time.Duration(frac*float64(time.Second)))
}

// FromUTC converts a wall-clock UTC time to GPS
func FromUTC(u time.Time) GPS {
	d := u.Sub(gpsEpoch)
	t := GPS(d.Seconds())
	// the offset at time t is within one step of the offset at t+offset
	return t + GPS(leapOffset(t))
}

// Window is a half-open GPS interval [Start, End)
type Window struct {
	Start GPS
	End   GPS
}

// Duration returns the window length in seconds
func (w Window) Duration() float64 { return float64(w.End - w.Start) }

// Contains reports whether t lies inside the window
func (w Window) Contains(t GPS) bool { return t >= w.Start && t < w.End }
