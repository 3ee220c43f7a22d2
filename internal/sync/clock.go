package sync

import "time"

// Clock abstracts timer creation so the scheduler can be tested without
// real wall-clock waits.
type Clock interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is the subset of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
