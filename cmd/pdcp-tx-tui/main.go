// Command pdcp-tx-tui is a live terminal dashboard for one PDCP TX
// entity. It never touches the entity directly — it subscribes to the
// same Redis telemetry channel telemetry.RedisSink publishes to,
// grounded on the RADIUS admin-tui's StatisticsScreen (poll a store,
// render into a tview.TextView, QueueUpdateDraw on refresh), but here
// the "store" is a live pub/sub feed instead of a cached HTTP lookup.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"

	"pdcp-tx/internal/telemetry"
)

var (
	redisAddr string
	channel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pdcp-tx-tui",
		Short: "Live dashboard for a PDCP TX entity's telemetry channel",
		RunE:  run,
	}
	rootCmd.Flags().StringVar(&redisAddr, "redis-addr", "localhost:6379", "Redis server address")
	rootCmd.Flags().StringVar(&channel, "channel", "pdcp-tx:metrics", "Telemetry channel to subscribe to")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// dashboard holds the most recently observed snapshot per entity,
// keyed by entity ID, plus enough history to derive a rolling
// PDU/s throughput figure.
type dashboard struct {
	mu        sync.Mutex
	latest    map[string]telemetry.Snapshot
	prevPDUs  map[string]uint64
	prevTime  map[string]time.Time
	throughpt map[string]float64
}

func newDashboard() *dashboard {
	return &dashboard{
		latest:    make(map[string]telemetry.Snapshot),
		prevPDUs:  make(map[string]uint64),
		prevTime:  make(map[string]time.Time),
		throughpt: make(map[string]float64),
	}
}

func (d *dashboard) ingest(snap telemetry.Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if prevT, ok := d.prevTime[snap.EntityID]; ok {
		elapsed := now.Sub(prevT).Seconds()
		if elapsed > 0 {
			delta := float64(snap.PDUs - d.prevPDUs[snap.EntityID])
			d.throughpt[snap.EntityID] = delta / elapsed
		}
	}
	d.prevPDUs[snap.EntityID] = snap.PDUs
	d.prevTime[snap.EntityID] = now
	d.latest[snap.EntityID] = snap
}

func (d *dashboard) render() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.latest) == 0 {
		return "[yellow]Waiting for telemetry...[-]\n\n[gray]No snapshot received yet on this channel.[-]"
	}

	var content string
	content += "[yellow::b]PDCP TX Live Dashboard[-::-]\n\n"

	for id, snap := range d.latest {
		content += fmt.Sprintf("[cyan::b]Entity %s[-::-]\n", id)
		content += fmt.Sprintf("  TX_NEXT:           %d\n", snap.TXNext)
		content += fmt.Sprintf("  Discard map depth: %d\n", snap.DiscardMapDepth)
		content += fmt.Sprintf("  SDUs / PDUs:       %d / %d\n", snap.SDUs, snap.PDUs)
		content += fmt.Sprintf("  Bytes (SDU/PDU):   %d / %d\n", snap.SDUBytes, snap.PDUBytes)
		content += fmt.Sprintf("  Discard timeouts:  %d\n", snap.DiscardTimeouts)
		content += fmt.Sprintf("  Throughput:        %.1f pdu/s\n", d.throughpt[id])
		content += fmt.Sprintf("  Last update:       %s\n", time.Unix(snap.Timestamp, 0).Format("15:04:05"))
		content += "\n"
	}

	content += "[gray]q/Esc - quit[-]\n"
	return content
}

func run(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer client.Close()

	sub := client.Subscribe(ctx, channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s on %s: %w", channel, redisAddr, err)
	}

	board := newDashboard()

	app := tview.NewApplication()
	textView := tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	textView.SetBorder(true).
		SetTitle(" pdcp-tx-tui ").
		SetTitleAlign(tview.AlignCenter).
		SetBorderColor(tcell.ColorBlue)

	textView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEsc:
			app.Stop()
			return nil
		}
		if event.Rune() == 'q' {
			app.Stop()
			return nil
		}
		return event
	})

	go func() {
		msgCh := sub.Channel()
		for {
			select {
			case msg, ok := <-msgCh:
				if !ok {
					return
				}
				var snap telemetry.Snapshot
				if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
					continue
				}
				board.ingest(snap)
				app.QueueUpdateDraw(func() {
					textView.SetText(board.render())
				})
			case <-ctx.Done():
				return
			}
		}
	}()

	textView.SetText(board.render())
	if err := app.SetRoot(textView, true).Run(); err != nil {
		return fmt.Errorf("tui exited with error: %w", err)
	}
	return nil
}
