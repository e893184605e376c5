package chat

import "time"

// ComposeDelay is how long the assistant appears to be typing before its
// reply is appended.
const ComposeDelay = 1500 * time.Millisecond

// Scheduler defers a callback. Scheduled callbacks always run exactly once;
// there is no cancellation.
type Scheduler interface {
	Schedule(delay time.Duration, fn func())
}

// TimerScheduler runs callbacks on their own goroutine after the delay.
type TimerScheduler struct{}

// Schedule implements Scheduler.
func (TimerScheduler) Schedule(delay time.Duration, fn func()) {
	time.AfterFunc(delay, fn)
}

// ImmediateScheduler runs callbacks synchronously, ignoring the delay.
// Used by the CLI's --no-delay flag and by tests.
type ImmediateScheduler struct{}

// Schedule implements Scheduler.
func (ImmediateScheduler) Schedule(_ time.Duration, fn func()) {
	fn()
}
