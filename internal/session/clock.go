package session

import "time"

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop prevents the timer from firing.  It reports whether the call
	// stopped a pending timer.
	Stop() bool
}

// Clock abstracts time so that inactivity deadlines can be driven by a
// virtual clock in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }
