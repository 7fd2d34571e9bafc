package autosave

import "time"

// Clock abstracts timer scheduling so the controller's state machine can be
// driven by a simulated clock in tests.
type Clock interface {
	Now() time.Time
	// AfterFunc schedules fn to run once d has elapsed.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop cancels the timer. It reports whether the callback was prevented
	// from running.
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// SystemClock is the wall clock.
var SystemClock Clock = realClock{}
