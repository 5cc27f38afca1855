// Package pdcp implements the PDCP transmit entity: spec.md's core.
// One Entity exists per radio bearer per user; it is constructed once
// with a fully populated configuration and set of collaborators and
// lives until the bearer is torn down (spec.md §3, §5).
package pdcp

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"pdcp-tx/internal/discard"
	"pdcp-tx/internal/pdu"
	"pdcp-tx/internal/security"
	"pdcp-tx/internal/timers"
	"pdcp-tx/pkg/types"
)

// Entity is a single PDCP TX entity. Every exported method is an
// entrypoint spec.md §5 requires to run on the same logical
// scheduler; the entity keeps no internal lock because of that
// single-threaded cooperative contract.
type Entity struct {
	id uuid.UUID

	cfg types.Config
	sec *security.Pipeline

	upperCN UpperControlNotifier
	lowerDN LowerDataNotifier
	status  StatusProvider
	timerSvc timers.Service

	logger *log.Entry

	txNext      uint32
	notifySent  bool
	hardStopped bool

	discardMap *discard.Map

	sdus            atomic.Uint64
	sduBytes        atomic.Uint64
	pdus            atomic.Uint64
	pduBytes        atomic.Uint64
	discardTimeouts atomic.Uint64

	// txNextMirror and discardDepthMirror shadow txNext and
	// discardMap.Len(), which are only safe to touch from the
	// entity's own single-threaded scheduler. A telemetry sink
	// running on a separate goroutine reads these atomics instead of
	// calling into the entity directly (spec.md §5).
	txNextMirror       atomic.Uint32
	discardDepthMirror atomic.Int64
}

// New constructs a PDCP TX entity bound to its collaborators. initialTxNext
// is almost always 0; a non-zero value is used when re-establishing an
// entity after a handover or key refresh that preserves COUNT.
func New(
	cfg types.Config,
	secCfg types.SecurityConfig,
	upperCN UpperControlNotifier,
	lowerDN LowerDataNotifier,
	status StatusProvider,
	timerSvc timers.Service,
	logger *log.Logger,
	initialTxNext uint32,
) (*Entity, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid PDCP TX config: %w", err)
	}

	id := uuid.New()
	if logger == nil {
		logger = log.StandardLogger()
	}
	entry := logger.WithFields(log.Fields{
		"entity":      id.String(),
		"bearer_kind": cfg.BearerKind.String(),
		"rlc_mode":    cfg.RLCMode.String(),
		"direction":   cfg.Direction.String(),
	})

	return &Entity{
		id:         id,
		cfg:        cfg,
		sec:        security.New(secCfg, cfg.BearerKind, cfg.Direction, cfg.BearerID(), entry),
		upperCN:    upperCN,
		lowerDN:    lowerDN,
		status:     status,
		timerSvc:   timerSvc,
		logger:     entry,
		txNext:     initialTxNext,
		discardMap: discard.New(),
	}, nil
}

// ID returns the entity's correlation UUID, used to tag log lines and
// telemetry snapshots produced for this bearer instance.
func (e *Entity) ID() uuid.UUID {
	return e.id
}

func (e *Entity) isSRB() bool { return e.cfg.BearerKind == types.BearerSRB }
func (e *Entity) isDRB() bool { return e.cfg.BearerKind == types.BearerDRB }
func (e *Entity) isUM() bool  { return e.cfg.RLCMode == types.RLCUnacknowledged }
func (e *Entity) isAM() bool  { return e.cfg.RLCMode == types.RLCAcknowledged }

// HandleSDU accepts one SDU from the upper layer and, absent a hard
// or configuration-time refusal, turns it into a protected PDU for
// the lower layer (spec.md §4.1). SDUs are processed strictly in
// arrival order; no reordering is performed.
func (e *Entity) HandleSDU(sdu []byte) {
	e.sdus.Inc()
	e.sduBytes.Add(uint64(len(sdu)))

	if e.txNext >= e.cfg.MaxCount.Hard {
		if !e.hardStopped {
			e.logger.WithField("count", e.txNext).Error("reached maximum COUNT, refusing to transmit further")
			e.upperCN.OnProtocolFailure()
			e.hardStopped = true
		}
		return
	}
	if e.txNext >= e.cfg.MaxCount.Notify {
		if !e.notifySent {
			e.logger.WithField("count", e.txNext).Warn("approaching COUNT wrap-around, notifying RRC")
			e.upperCN.OnMaxCountReached()
			e.notifySent = true
		}
	}

	// Header (de)compression is reserved for future work and acts as
	// identity at this layer (spec.md §1 Non-goals).

	header, err := pdu.EncodeDataHeader(types.DataPDUHeader{
		Kind: e.cfg.BearerKind,
		Size: e.cfg.SNSize,
		SN:   e.txNext % e.cfg.SNSize.Modulus(),
	})
	if err != nil {
		e.logger.WithError(err).Error("failed to encode data PDU header, dropping SDU")
		return
	}

	protected, err := e.sec.Protect(header, sdu, e.txNext)
	if err != nil {
		e.logger.WithError(err).Error("security pipeline failed, dropping SDU")
		return
	}

	count := e.txNext
	e.armDiscard(count, protected)
	e.deliverData(count, protected)

	e.txNext++
	e.txNextMirror.Store(e.txNext)
}

// armDiscard inserts a discard-map entry and starts its timer, if a
// discard timer is configured (spec.md §4.4). AM DRBs cache the
// protected PDU so data_recovery can re-deliver it verbatim
// (invariant 5, spec.md §3).
func (e *Entity) armDiscard(count uint32, protected []byte) {
	if !e.cfg.DiscardTimer.Enabled() {
		return
	}

	entry := &discard.Entry{}
	if e.isAM() && e.isDRB() {
		entry.Cached = append([]byte(nil), protected...)
	}

	entry.Timer = e.timerSvc.Start(time.Duration(e.cfg.DiscardTimer.Milliseconds())*time.Millisecond, func() {
		e.onDiscardTimerFired(count)
	})

	e.discardMap.Insert(count, entry)
	e.discardDepthMirror.Store(int64(e.discardMap.Len()))
	e.logger.WithFields(log.Fields{"count": count, "timeout_ms": e.cfg.DiscardTimer.Milliseconds()}).Debug("discard timer set")
}

// onDiscardTimerFired is the discard-timer callback. Erasing the
// entry is the last action, per spec.md §4.4, since it frees the
// storage this very closure is running from.
func (e *Entity) onDiscardTimerFired(count uint32) {
	e.logger.WithField("count", count).Debug("discard timer expired")
	e.lowerDN.OnDiscardPDU(count)
	e.discardTimeouts.Inc()
	e.discardMap.EraseTimerFired(count)
	e.discardDepthMirror.Store(int64(e.discardMap.Len()))
}

func (e *Entity) deliverData(count uint32, protected []byte) {
	e.logger.WithFields(log.Fields{
		"count":     count,
		"hfn":       types.COUNT(count).HFN(e.cfg.SNSize),
		"sn":        types.COUNT(count).SN(e.cfg.SNSize),
		"bytes":     len(protected),
		"integrity": e.sec.Cfg.IntegrityEnabled,
		"ciphering": e.sec.Cfg.CipheringEnabled,
	}).Info("TX data PDU")

	e.pdus.Inc()
	e.pduBytes.Add(uint64(len(protected)))

	txPDU := types.TXPDU{Buf: protected}
	if e.isDRB() {
		txPDU.PDCPCount = count
		txPDU.HasCount = true
	}
	e.lowerDN.OnNewPDU(txPDU)
}

func (e *Entity) deliverControl(buf []byte) {
	e.logger.WithField("bytes", len(buf)).Info("TX control PDU")
	e.pdus.Inc()
	e.pduBytes.Add(uint64(len(buf)))
	e.lowerDN.OnNewPDU(types.TXPDU{Buf: buf})
}

// HandleStatusReport decodes an incoming control PDU believed to
// carry a PDCP status report and prunes the discard map accordingly
// (spec.md §4.5). Malformed input is logged and otherwise ignored;
// it never mutates entity state.
func (e *Entity) HandleStatusReport(raw []byte) {
	report, err := pdu.DecodeStatusReport(raw)
	if err != nil {
		e.logger.WithError(err).Warn("cannot handle status report")
		return
	}
	e.logger.WithField("fmc", report.FMC).Info("received PDCP status report")

	e.discardMap.PruneBelow(report.FMC, func(count uint32, _ *discard.Entry) {
		e.logger.WithField("count", count).Debug("discarding SDU below FMC")
		e.lowerDN.OnDiscardPDU(count)
	})

	pdu.StatusBitmapWalk(report, func(count uint32, bit uint8) bool {
		if bit == 1 {
			if _, ok := e.discardMap.Erase(count); ok {
				e.logger.WithField("count", count).Debug("discarding SDU acknowledged by bitmap")
				e.lowerDN.OnDiscardPDU(count)
			}
		}
		return true
	})

	e.discardDepthMirror.Store(int64(e.discardMap.Len()))
}

// SendStatusReport compiles and ships a status report, if
// status_report_required is configured (spec.md §4.6). Otherwise it
// logs and is a no-op.
func (e *Entity) SendStatusReport() {
	if !e.cfg.StatusReportRequired {
		e.logger.Warn("status report triggered but not configured")
		return
	}
	e.logger.Info("status report triggered")
	report, err := e.status.CompileStatusReport()
	if err != nil {
		e.logger.WithError(err).Error("failed to compile status report")
		return
	}
	e.deliverControl(report)
}

// DataRecovery re-delivers every cached PDU in the discard map, in
// ascending COUNT order, after first emitting a status report if
// configured (spec.md §4.6). It is only valid for AM DRBs; any other
// caller is a programming error.
//
// Discard timers are neither cancelled nor re-armed for re-delivered
// PDUs — spec.md's Design Notes flag this as an open question the
// original leaves unresolved, and this port preserves that behavior
// rather than silently deciding it.
func (e *Entity) DataRecovery() {
	if !(e.isDRB() && e.isAM()) {
		panic("data_recovery is only valid for AM DRBs")
	}
	e.logger.Info("data recovery requested")

	if e.cfg.StatusReportRequired {
		e.SendStatusReport()
	}

	e.discardMap.Ascending(func(count uint32, entry *discard.Entry) {
		cached := append([]byte(nil), entry.Cached...)
		e.deliverData(count, cached)
	})
}

// Close cancels every outstanding discard timer and drops the map,
// matching bearer teardown (spec.md §3, §5). The entity must not be
// used afterward.
func (e *Entity) Close() {
	e.discardMap.Ascending(func(_ uint32, entry *discard.Entry) {
		if entry.Timer != nil {
			entry.Timer.Cancel()
		}
	})
	e.discardMap = discard.New()
	e.discardDepthMirror.Store(0)
}

// Metrics returns a point-in-time snapshot of the entity's counters
// (spec.md §2, "Metrics & logging hooks"). It is safe to call from a
// goroutine other than the entity's own scheduler — every field it
// reads is an atomic, including the txNext/discard-depth mirrors kept
// alongside the authoritative single-threaded state.
func (e *Entity) Metrics() types.Metrics {
	return types.Metrics{
		SDUs:            e.sdus.Load(),
		SDUBytes:        e.sduBytes.Load(),
		PDUs:            e.pdus.Load(),
		PDUBytes:        e.pduBytes.Load(),
		DiscardTimeouts: e.discardTimeouts.Load(),
		TXNext:          e.txNextMirror.Load(),
		DiscardMapDepth: int(e.discardDepthMirror.Load()),
	}
}
