package engine

import "time"

// CancelFunc stops scheduled work. It reports whether the call prevented the
// work from running.
type CancelFunc func() bool

// Scheduler runs fn once after d has elapsed. fn must not be run
// synchronously from within ScheduleAfter.
type Scheduler interface {
	ScheduleAfter(d time.Duration, fn func()) CancelFunc
}

// TimerScheduler schedules work on runtime timers. fn runs on its own goroutine.
type TimerScheduler struct{}

func (TimerScheduler) ScheduleAfter(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return t.Stop
}
