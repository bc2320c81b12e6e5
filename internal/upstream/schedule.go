package upstream

import "time"

// Schedule describes the weekly draw calendar.
type Schedule struct {
	Epoch        time.Time     // draw #1
	Cadence      time.Duration // time between draws
	PublishDelay time.Duration // results appear this long after the draw
}

// LatestDrawNo returns the newest draw number whose results should be
// published at now, or 0 before the first one.
func (s Schedule) LatestDrawNo(now time.Time) int {
	elapsed := now.Sub(s.Epoch) - s.PublishDelay
	if elapsed < 0 || s.Cadence <= 0 {
		return 0
	}
	return int(elapsed/s.Cadence) + 1
}

// DrawTime returns when draw no takes place.
func (s Schedule) DrawTime(no int) time.Time {
	return s.Epoch.Add(time.Duration(no-1) * s.Cadence)
}
