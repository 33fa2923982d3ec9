package haptic

import "time"

// Timer is a cancellable one-shot deferred execution handle. Cancel is
// idempotent: cancelling an already-fired or already-cancelled timer is a
// no-op, not an error.
type Timer interface {
	Cancel()
}

// Clock abstracts time for the scheduler so predictive dispatch is testable
// with a fake clock.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

type systemClock struct{}

type systemTimer struct {
	t *time.Timer
}

func (t *systemTimer) Cancel() {
	t.t.Stop()
}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return &systemTimer{t: time.AfterFunc(d, fn)}
}

// SystemClock returns a Clock backed by the runtime timer.
func SystemClock() Clock { return systemClock{} }
