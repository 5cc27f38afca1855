// Package alert implements the default UpperControlNotifier: it POSTs
// a JSON alert to a configured webhook on the at-most-once
// on_max_count_reached/on_protocol_failure callbacks, grounded on the
// RADIUS auth-server's resty+gobreaker vector-gateway client.
package alert

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

// Event names the two notifications spec.md §4.7 defines for
// upper_cn; both fire at most once per entity lifetime.
type Event string

const (
	EventMaxCountReached Event = "max_count_reached"
	EventProtocolFailure Event = "protocol_failure"
)

type payload struct {
	EntityID string `json:"entity_id"`
	Event    string `json:"event"`
	TXNext   uint32 `json:"tx_next"`
}

// Webhook is an UpperControlNotifier that posts to a URL through a
// circuit breaker, so a down alerting endpoint cannot stall the
// notification path the core treats as infallible (spec.md §4.7/§7).
//
// OnMaxCountReached/OnProtocolFailure take no arguments (they are
// called directly from the entity's single-threaded HandleSDU path),
// so the current TX_NEXT is pulled through txNextFn at post time
// rather than threaded through the callback signature.
type Webhook struct {
	entityID string
	http     *resty.Client
	cb       *gobreaker.CircuitBreaker[[]byte]
	url      string
	logger   *log.Entry
	txNextFn func() uint32
}

// New builds a Webhook notifier. timeout bounds every HTTP call;
// the breaker trips after 5 consecutive failures and probes again
// after 30s, mirroring the RADIUS pack's vector-gateway client
// defaults. txNextFn is consulted when a payload is built; callers
// typically pass entity.Metrics paired with a field access, e.g.
// func() uint32 { return ent.Metrics().TXNext }.
func New(entityID, url string, timeout time.Duration, txNextFn func() uint32, logger *log.Entry) *Webhook {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	if txNextFn == nil {
		txNextFn = func() uint32 { return 0 }
	}

	cbSettings := gobreaker.Settings{
		Name:    "alert-webhook",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(log.Fields{"breaker": name, "from": from, "to": to}).Warn("alert webhook circuit breaker state change")
		},
	}

	return &Webhook{
		entityID: entityID,
		http:     resty.New().SetTimeout(timeout),
		cb:       gobreaker.NewCircuitBreaker[[]byte](cbSettings),
		url:      strings.TrimRight(url, "/"),
		logger:   logger,
		txNextFn: txNextFn,
	}
}

// OnMaxCountReached implements pdcp.UpperControlNotifier.
func (w *Webhook) OnMaxCountReached() {
	w.post(EventMaxCountReached)
}

// OnProtocolFailure implements pdcp.UpperControlNotifier.
func (w *Webhook) OnProtocolFailure() {
	w.post(EventProtocolFailure)
}

func (w *Webhook) post(event Event) {
	_, err := w.cb.Execute(func() ([]byte, error) {
		resp, err := w.http.R().
			SetHeader("Content-Type", "application/json").
			SetBody(payload{EntityID: w.entityID, Event: string(event), TXNext: w.txNextFn()}).
			Post(w.url)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= 500 {
			return nil, fmt.Errorf("alert webhook returned %d", resp.StatusCode())
		}
		return resp.Body(), nil
	})
	if err != nil {
		w.logger.WithError(err).WithField("event", event).Warn("failed to deliver alert webhook")
	}
}
