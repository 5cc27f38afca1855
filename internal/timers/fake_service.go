package timers

import "time"

// FakeService is a deterministic Service for tests: timers never fire
// on their own. Tests call Fire (by arming order) or FireAll to run
// pending callbacks synchronously, on the same goroutine, matching
// the single-threaded execution model spec.md §5 assumes.
type FakeService struct {
	pending []*fakeTimer
}

// NewFakeService returns a Service that arms timers without a
// running clock.
func NewFakeService() *FakeService {
	return &FakeService{}
}

type fakeTimer struct {
	d         time.Duration
	cb        Callback
	cancelled bool
	fired     bool
}

func (t *fakeTimer) Cancel() {
	t.cancelled = true
}

func (s *FakeService) Start(d time.Duration, cb Callback) Timer {
	t := &fakeTimer{d: d, cb: cb}
	s.pending = append(s.pending, t)
	return t
}

// Pending returns the number of timers armed and neither fired nor cancelled.
func (s *FakeService) Pending() int {
	n := 0
	for _, t := range s.pending {
		if !t.fired && !t.cancelled {
			n++
		}
	}
	return n
}

// FireOldest fires the oldest still-pending timer, invoking its
// callback, and reports whether one was found.
func (s *FakeService) FireOldest() bool {
	for _, t := range s.pending {
		if !t.fired && !t.cancelled {
			t.fired = true
			t.cb()
			return true
		}
	}
	return false
}

// FireAll fires every still-pending timer in arming order.
func (s *FakeService) FireAll() {
	for s.FireOldest() {
	}
}
