// Package timers models the timer-service collaborator spec.md §4.7
// requires: one-shot, millisecond-granularity timers that can be
// cancelled on bearer teardown. The original's
// create_unique_timer()/set()/run() split collapses naturally onto
// Go's time.AfterFunc, which is why Service.Start both arms and
// returns the cancellable handle in one call.
package timers

import "time"

// Callback is invoked on the same logical scheduler spec.md §5
// requires every PDCP TX entrypoint to run on; it carries no
// argument because the COUNT a discard timer fires for is already
// bound into the closure the caller passes to Start.
type Callback func()

// Timer is a single armed one-shot timer.
type Timer interface {
	// Cancel stops the timer if it has not yet fired. Cancelling an
	// already-fired or already-cancelled timer is a no-op.
	Cancel()
}

// Service creates one-shot timers.
type Service interface {
	// Start arms a timer that invokes cb after d elapses.
	Start(d time.Duration, cb Callback) Timer
}

// RealService arms timers on Go's runtime timer wheel via
// time.AfterFunc. It is the Service used by a live PDCP TX entity;
// tests substitute FakeService (fake_service.go) to control firing
// deterministically.
type RealService struct{}

// NewRealService returns the production Service implementation.
func NewRealService() *RealService {
	return &RealService{}
}

func (RealService) Start(d time.Duration, cb Callback) Timer {
	t := time.AfterFunc(d, cb)
	return (*realTimer)(t)
}

type realTimer time.Timer

func (t *realTimer) Cancel() {
	(*time.Timer)(t).Stop()
}
