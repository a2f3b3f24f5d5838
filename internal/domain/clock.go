package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock supplies "now" for request defaults. Tests swap it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// CurrentHour returns the hour of day of the package clock in loc.
func CurrentHour(loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	return clock.Now().In(loc).Hour()
}
