package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
)

// Reporter outputs statistics to console and/or file.
type Reporter struct {
	collector   *Collector
	intervalSec int
	exportFile  string

	wg conc.WaitGroup
}

// NewReporter creates a new statistics reporter.
func NewReporter(collector *Collector, intervalSec int, exportFile string) *Reporter {
	return &Reporter{
		collector:   collector,
		intervalSec: intervalSec,
		exportFile:  exportFile,
	}
}

// StartPeriodicReport begins periodic statistics reporting in a
// panic-safe goroutine managed by conc.WaitGroup, mirroring the
// teacher's StartPeriodicReport but recovering from a formatting
// panic instead of taking the whole process down with it.
func (r *Reporter) StartPeriodicReport(ctx context.Context) {
	if r.intervalSec <= 0 {
		return
	}

	r.wg.Go(func() {
		ticker := time.NewTicker(time.Duration(r.intervalSec) * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Println(r.FormatReport())
			}
		}
	})
}

// Wait blocks until the periodic reporting goroutine, if any, exits.
func (r *Reporter) Wait() {
	r.wg.Wait()
}

// PrintFinalReport prints the final statistics summary.
func (r *Reporter) PrintFinalReport() {
	r.collector.Finish()
	fmt.Println(r.FormatReport())
}

// ExportJSON exports statistics to a JSON file.
func (r *Reporter) ExportJSON() error {
	if r.exportFile == "" {
		return nil
	}

	snap := r.collector.Snapshot()
	totals := r.collector.Totals()
	duration := r.collector.Duration().Seconds()

	entities := make(map[string]interface{}, len(snap))
	for id, m := range snap {
		entities[id] = map[string]interface{}{
			"sdus":               m.SDUs,
			"sdu_bytes":          m.SDUBytes,
			"pdus":               m.PDUs,
			"pdu_bytes":          m.PDUBytes,
			"discard_timeouts":   m.DiscardTimeouts,
			"tx_next":            m.TXNext,
			"discard_map_depth":  m.DiscardMapDepth,
		}
	}

	export := map[string]interface{}{
		"start_time":   r.collector.StartTime.Format(time.RFC3339),
		"end_time":     r.collector.EndTime.Format(time.RFC3339),
		"duration_sec": duration,
		"entities":     entities,
		"totals": map[string]interface{}{
			"sdus":             totals.SDUs,
			"sdu_bytes":        totals.SDUBytes,
			"pdus":             totals.PDUs,
			"pdu_bytes":        totals.PDUBytes,
			"discard_timeouts": totals.DiscardTimeouts,
		},
	}
	if duration > 0 {
		export["throughput_pdu_per_sec"] = float64(totals.PDUs) / duration
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats JSON: %w", err)
	}

	if err := os.WriteFile(r.exportFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write stats file %s: %w", r.exportFile, err)
	}

	log.WithField("file", r.exportFile).Info("statistics exported to JSON")
	return nil
}

// FormatReport generates a formatted statistics report string.
func (r *Reporter) FormatReport() string {
	snap := r.collector.Snapshot()
	elapsed := r.collector.Duration()
	totals := r.collector.Totals()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n=== PDCP TX Statistics (elapsed: %s) ===\n", elapsed.Round(time.Second)))
	sb.WriteString("Entities:\n")

	ids := make([]string, 0, len(snap))
	for id := range snap {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		m := snap[id]
		sb.WriteString(fmt.Sprintf("  %-36s sdus=%-6d pdus=%-6d discard_timeouts=%-5d tx_next=%-8d map_depth=%-4d\n",
			id, m.SDUs, m.PDUs, m.DiscardTimeouts, m.TXNext, m.DiscardMapDepth))
	}

	sb.WriteString("Totals:\n")
	sb.WriteString(fmt.Sprintf("  SDUs: %d (%d bytes)  |  PDUs: %d (%d bytes)  |  Discard timeouts: %d\n",
		totals.SDUs, totals.SDUBytes, totals.PDUs, totals.PDUBytes, totals.DiscardTimeouts))

	if elapsed.Seconds() > 0 {
		sb.WriteString("Throughput:\n")
		sb.WriteString(fmt.Sprintf("  %.1f pdu/s\n", float64(totals.PDUs)/elapsed.Seconds()))
	}

	sb.WriteString("================================================\n")
	return sb.String()
}
