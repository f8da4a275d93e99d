package importer

import "time"

// Scheduler defers a function call. The returned stop function cancels the
// pending call; stopping an already-fired call is a no-op. The debounced
// search runs on top of this so tests can drive time by hand.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) (stop func())
}

type timerScheduler struct{}

func (timerScheduler) Schedule(delay time.Duration, fn func()) func() {
	timer := time.AfterFunc(delay, fn)
	return func() { timer.Stop() }
}

func NewTimerScheduler() Scheduler {
	return timerScheduler{}
}
