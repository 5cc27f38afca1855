package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pdcp-tx/pkg/types"
)

func TestCollector_TotalsSumsAcrossEntities(t *testing.T) {
	c := NewCollector()
	c.Record("entity-a", types.Metrics{SDUs: 10, PDUs: 10, TXNext: 10, DiscardMapDepth: 2})
	c.Record("entity-b", types.Metrics{SDUs: 5, PDUs: 5, TXNext: 100, DiscardMapDepth: 7})

	totals := c.Totals()
	assert.Equal(t, uint64(15), totals.SDUs)
	assert.Equal(t, uint64(15), totals.PDUs)
	assert.Equal(t, uint32(100), totals.TXNext)
	assert.Equal(t, 7, totals.DiscardMapDepth)
}

func TestCollector_RecordOverwritesPreviousSnapshot(t *testing.T) {
	c := NewCollector()
	c.Record("entity-a", types.Metrics{SDUs: 1})
	c.Record("entity-a", types.Metrics{SDUs: 2})

	snap := c.Snapshot()
	assert.Equal(t, uint64(2), snap["entity-a"].SDUs)
}

func TestReporter_FormatReportIncludesEntities(t *testing.T) {
	c := NewCollector()
	c.Record("entity-a", types.Metrics{SDUs: 3, PDUs: 3})
	r := NewReporter(c, 0, "")

	out := r.FormatReport()
	assert.Contains(t, out, "entity-a")
	assert.Contains(t, out, "Totals:")
}
