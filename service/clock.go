package service

import (
	"time"
)

// Clock supplies the current time. Poll expiry and the daily spin read time
// through this so the cutoff logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns a Clock backed by the wall clock
func SystemClock() Clock {
	return systemClock{}
}
