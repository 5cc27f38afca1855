package discard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdcp-tx/internal/timers"
)

func TestInsertGetLen(t *testing.T) {
	m := New()
	svc := timers.NewFakeService()

	m.Insert(3, &Entry{Timer: svc.Start(0, func() {})})
	m.Insert(1, &Entry{Timer: svc.Start(0, func() {})})
	m.Insert(2, &Entry{Timer: svc.Start(0, func() {})})

	assert.Equal(t, 3, m.Len())
	_, ok := m.Get(2)
	assert.True(t, ok)
}

func TestAscendingOrder(t *testing.T) {
	m := New()
	svc := timers.NewFakeService()
	m.Insert(5, &Entry{Timer: svc.Start(0, func() {})})
	m.Insert(1, &Entry{Timer: svc.Start(0, func() {})})
	m.Insert(3, &Entry{Timer: svc.Start(0, func() {})})

	var seen []uint32
	m.Ascending(func(count uint32, _ *Entry) { seen = append(seen, count) })

	assert.Equal(t, []uint32{1, 3, 5}, seen)
}

func TestErase_CancelsTimer(t *testing.T) {
	m := New()
	svc := timers.NewFakeService()
	m.Insert(1, &Entry{Timer: svc.Start(0, func() {})})

	_, ok := m.Erase(1)
	require.True(t, ok)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, svc.Pending())
}

func TestErase_MissingReturnsFalse(t *testing.T) {
	m := New()
	_, ok := m.Erase(99)
	assert.False(t, ok)
}

func TestEraseTimerFired_DoesNotTouchTimer(t *testing.T) {
	m := New()
	svc := timers.NewFakeService()
	timer := svc.Start(0, func() {})
	m.Insert(1, &Entry{Timer: timer})

	_, ok := m.EraseTimerFired(1)
	require.True(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestPruneBelow_RemovesAscendingPrefix(t *testing.T) {
	m := New()
	svc := timers.NewFakeService()
	for _, c := range []uint32{3, 4, 5, 7, 9} {
		m.Insert(c, &Entry{Timer: svc.Start(0, func() {})})
	}

	var erased []uint32
	m.PruneBelow(5, func(count uint32, _ *Entry) { erased = append(erased, count) })

	assert.Equal(t, []uint32{3, 4}, erased)
	assert.Equal(t, 3, m.Len())
	_, ok := m.Get(5)
	assert.True(t, ok)
}

func TestPruneBelow_NoneBelowFMC(t *testing.T) {
	m := New()
	svc := timers.NewFakeService()
	m.Insert(10, &Entry{Timer: svc.Start(0, func() {})})

	var erased []uint32
	m.PruneBelow(5, func(count uint32, _ *Entry) { erased = append(erased, count) })

	assert.Empty(t, erased)
	assert.Equal(t, 1, m.Len())
}
