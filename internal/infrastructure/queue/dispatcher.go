package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/agrolink/logistics-engine/internal/api/metrics"
	"github.com/agrolink/logistics-engine/internal/core/domain"
	"github.com/agrolink/logistics-engine/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// AlertDeduper abstracts the cross-instance duplicate guard (Redis).
type AlertDeduper interface {
	IsDuplicate(ctx context.Context, alert domain.AlertTrigger) (bool, error)
	Mark(ctx context.Context, alert domain.AlertTrigger) error
}

// AlertDispatcher routes alert triggers to a fixed set of workers using
// consistent hashing on the trip id, guaranteeing per-trip alert ordering.
// It implements ports.AlertGateway so the tracker can hand alerts off
// without blocking on delivery.
type AlertDispatcher struct {
	workers []chan domain.AlertTrigger
	gateway ports.AlertGateway
	dedup   AlertDeduper // optional
	log     zerolog.Logger
}

// NewAlertDispatcher creates an AlertDispatcher with numWorkers sharded
// workers delivering to gateway. If numWorkers <= 0, defaultWorkers is
// used. dedup may be nil when no cross-instance guard is configured.
func NewAlertDispatcher(numWorkers int, gateway ports.AlertGateway, dedup AlertDeduper, log zerolog.Logger) *AlertDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &AlertDispatcher{
		workers: make([]chan domain.AlertTrigger, numWorkers),
		gateway: gateway,
		dedup:   dedup,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AlertTrigger, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *AlertDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Notify enqueues an alert for its trip's worker. The call never blocks:
// when the worker's buffer is full the alert is dropped and counted, since
// alert delivery is best-effort and must not stall the tracker.
func (d *AlertDispatcher) Notify(_ context.Context, alert domain.AlertTrigger) error {
	idx := d.shardIndex(alert.TripID)
	select {
	case d.workers[idx] <- alert:
		metrics.AlertQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.AlertsDroppedTotal.WithLabelValues(string(alert.Kind)).Inc()
		d.log.Warn().
			Str("trip_id", alert.TripID).
			Str("kind", string(alert.Kind)).
			Msg("alert queue full, alert dropped")
	}
	return nil
}

// shardIndex maps a trip id deterministically to a worker index.
func (d *AlertDispatcher) shardIndex(tripID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tripID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *AlertDispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AlertTrigger) {
	for {
		select {
		case <-ctx.Done():
			return
		case alert, ok := <-ch:
			if !ok {
				return
			}
			metrics.AlertQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
			d.deliver(ctx, id, alert)
		}
	}
}

// deliver runs the dedup guard and hands the alert to the gateway.
// Heartbeat alerts are repeating by contract and bypass deduplication.
func (d *AlertDispatcher) deliver(ctx context.Context, workerID int, alert domain.AlertTrigger) {
	if d.dedup != nil && alert.Kind != domain.AlertEtaUpdate {
		isDup, err := d.dedup.IsDuplicate(ctx, alert)
		if err != nil {
			d.log.Warn().Err(err).Str("trip_id", alert.TripID).Msg("alert dedup check failed, delivering anyway")
		} else if isDup {
			d.log.Debug().
				Str("trip_id", alert.TripID).
				Str("kind", string(alert.Kind)).
				Msg("duplicate alert skipped")
			return
		}
		if markErr := d.dedup.Mark(ctx, alert); markErr != nil {
			d.log.Warn().Err(markErr).Str("trip_id", alert.TripID).Msg("failed to set alert dedup key")
		}
	}

	if err := d.gateway.Notify(ctx, alert); err != nil {
		metrics.AlertsFailedTotal.WithLabelValues(string(alert.Kind)).Inc()
		d.log.Error().Err(err).
			Str("trip_id", alert.TripID).
			Str("kind", string(alert.Kind)).
			Int("worker_id", workerID).
			Msg("alert delivery failed")
		return
	}
	metrics.AlertsEmittedTotal.WithLabelValues(string(alert.Kind)).Inc()
}
