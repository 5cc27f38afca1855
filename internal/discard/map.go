// Package discard implements the COUNT-ordered discard-timer map
// spec.md §3/§4.4 describes: every data PDU with a configured discard
// timer gets an entry that is erased either by the timer firing, by a
// status report, or (for AM DRBs) is re-delivered wholesale during
// data recovery.
//
// The map assumes the single-threaded cooperative execution model of
// spec.md §5: every entrypoint — Insert, Erase, PruneBelow, the timer
// callback — runs on the same logical scheduler, so no internal
// locking is used, unlike the teacher's network.TransactionTracker
// (which guards a map shared with a receiver goroutine).
package discard

import (
	"sort"

	"pdcp-tx/internal/timers"
)

// Entry is one in-flight PDU tracked for possible discard or
// recovery. Cached is non-empty only for AM DRBs (spec.md §3,
// invariant 5): it is the exact byte-for-byte protected PDU that was
// handed to the lower layer for this COUNT.
type Entry struct {
	Cached []byte
	Timer  timers.Timer
}

// Map is an ascending-COUNT-ordered collection of discard entries. A
// plain Go map plus a sorted key slice stands in for the ordered tree
// / flat ordered structure spec.md's Design Notes call for — counts
// only ever grow, so the slice stays sorted by construction as long
// as insertion order tracks COUNT order, which handle_sdu guarantees.
type Map struct {
	entries map[uint32]*Entry
	order   []uint32
}

// New returns an empty discard map.
func New() *Map {
	return &Map{entries: make(map[uint32]*Entry)}
}

// Insert adds an entry for count. By invariant 1 (spec.md §3), count
// is never already present; callers may rely on that rather than
// checking Contains first.
func (m *Map) Insert(count uint32, entry *Entry) {
	m.entries[count] = entry
	m.order = append(m.order, count)
}

// Erase removes the entry for count, if present, cancelling its
// timer. It reports whether an entry was found.
func (m *Map) Erase(count uint32) (*Entry, bool) {
	e, ok := m.entries[count]
	if !ok {
		return nil, false
	}
	delete(m.entries, count)
	m.removeFromOrder(count)
	if e.Timer != nil {
		e.Timer.Cancel()
	}
	return e, true
}

// EraseTimerFired removes the entry for count without touching its
// timer — used from inside the timer's own callback, where the timer
// has already fired and cancelling it would be a no-op performed on
// storage the callback itself is about to free (spec.md §4.4: "must
// be the last action in the callback because it destroys the
// callback's own storage").
func (m *Map) EraseTimerFired(count uint32) (*Entry, bool) {
	e, ok := m.entries[count]
	if !ok {
		return nil, false
	}
	delete(m.entries, count)
	m.removeFromOrder(count)
	return e, true
}

func (m *Map) removeFromOrder(count uint32) {
	idx := sort.Search(len(m.order), func(i int) bool { return m.order[i] >= count })
	if idx < len(m.order) && m.order[idx] == count {
		m.order = append(m.order[:idx], m.order[idx+1:]...)
	}
}

// PruneBelow erases every entry with COUNT < fmc, invoking onErase for
// each before it is removed (spec.md §4.5 step 1). Entries are
// visited in ascending COUNT order.
func (m *Map) PruneBelow(fmc uint32, onErase func(count uint32, e *Entry)) {
	var cut int
	for cut = 0; cut < len(m.order); cut++ {
		if m.order[cut] >= fmc {
			break
		}
		count := m.order[cut]
		e := m.entries[count]
		onErase(count, e)
		if e.Timer != nil {
			e.Timer.Cancel()
		}
		delete(m.entries, count)
	}
	m.order = m.order[cut:]
}

// Len returns the number of live entries.
func (m *Map) Len() int {
	return len(m.entries)
}

// Ascending calls fn for every entry in ascending COUNT order,
// required by data_recovery (spec.md §4.6) and by tests asserting
// invariant 4.
func (m *Map) Ascending(fn func(count uint32, e *Entry)) {
	for _, count := range m.order {
		fn(count, m.entries[count])
	}
}

// Get returns the entry for count, if present.
func (m *Map) Get(count uint32) (*Entry, bool) {
	e, ok := m.entries[count]
	return e, ok
}
