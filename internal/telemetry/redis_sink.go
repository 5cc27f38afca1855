// Package telemetry periodically publishes PDCP TX entity metrics to
// a Redis channel, grounded on the teacher's
// stats.Reporter.StartPeriodicReport background-goroutine shape but
// fanning out to Redis instead of stdout/file, the pattern the
// EAP-AKA RADIUS pack uses to ship operational state to a central
// store.
package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"

	"pdcp-tx/internal/stats"
)

// Snapshot is the JSON shape published to the telemetry channel.
type Snapshot struct {
	EntityID        string `json:"entity_id"`
	Timestamp       int64  `json:"timestamp_unix"`
	SDUs            uint64 `json:"sdus"`
	SDUBytes        uint64 `json:"sdu_bytes"`
	PDUs            uint64 `json:"pdus"`
	PDUBytes        uint64 `json:"pdu_bytes"`
	DiscardTimeouts uint64 `json:"discard_timeouts"`
	TXNext          uint32 `json:"tx_next"`
	DiscardMapDepth int    `json:"discard_map_depth"`
}

// RedisSink publishes periodic snapshots of a Collector's tracked
// entities to a Redis pub/sub channel. Its background goroutine only
// ever reads the Collector's snapshot map (itself guarded by a plain
// mutex) and the entity's atomic metric mirrors, never the entity's
// single-threaded fields directly (spec.md §5).
type RedisSink struct {
	client    *redis.Client
	collector *stats.Collector
	channel   string
	interval  time.Duration
	logger    *log.Entry

	wg conc.WaitGroup
}

// NewRedisSink builds a sink bound to an existing *redis.Client
// (production callers construct one with redis.NewClient; tests wire
// in a miniredis-backed client instead).
func NewRedisSink(client *redis.Client, collector *stats.Collector, channel string, interval time.Duration, logger *log.Entry) *RedisSink {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &RedisSink{client: client, collector: collector, channel: channel, interval: interval, logger: logger}
}

// Start begins the periodic publish loop in a panic-safe goroutine.
// It returns immediately; call Stop (via context cancellation) and
// Wait to join it on shutdown.
func (s *RedisSink) Start(ctx context.Context) {
	s.wg.Go(func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.publishOnce(ctx)
			}
		}
	})
}

// Wait blocks until the publish loop exits.
func (s *RedisSink) Wait() {
	s.wg.Wait()
}

func (s *RedisSink) publishOnce(ctx context.Context) {
	now := time.Now().Unix()
	for entityID, m := range s.collector.Snapshot() {
		snap := Snapshot{
			EntityID:        entityID,
			Timestamp:       now,
			SDUs:            m.SDUs,
			SDUBytes:        m.SDUBytes,
			PDUs:            m.PDUs,
			PDUBytes:        m.PDUBytes,
			DiscardTimeouts: m.DiscardTimeouts,
			TXNext:          m.TXNext,
			DiscardMapDepth: m.DiscardMapDepth,
		}
		data, err := json.Marshal(snap)
		if err != nil {
			s.logger.WithError(err).Error("failed to marshal telemetry snapshot")
			continue
		}
		if err := s.client.Publish(ctx, s.channel, data).Err(); err != nil {
			s.logger.WithError(err).WithField("entity", entityID).Warn("failed to publish telemetry snapshot")
		}
	}
}
