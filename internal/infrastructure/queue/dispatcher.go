package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/medicore/clinic-portal/internal/core/domain"
	"github.com/medicore/clinic-portal/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes session events to a fixed set of workers using
// consistent hashing on the visitor ID, so each visitor's events reach the
// audit trail in commit order.
type Dispatcher struct {
	workers []chan domain.SessionEvent
	service ports.AuditService
	log     zerolog.Logger

	// OnDepth, when set, receives the buffered count of a worker after each
	// enqueue and dequeue.
	OnDepth func(workerID, depth int)
	// OnError, when set, is called for every event the service rejects.
	OnError func(domain.SessionEvent, error)
}

var _ ports.EventSink = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.AuditService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.SessionEvent, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.SessionEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands an event to the worker responsible for its visitor. When
// that worker's buffer is full the event is dropped and logged; session
// commits never wait on the audit trail.
func (d *Dispatcher) Enqueue(event domain.SessionEvent) {
	id := d.shardIndex(event.VisitorID)
	select {
	case d.workers[id] <- event:
		d.reportDepth(id)
	default:
		d.log.Warn().
			Str("visitor", event.VisitorID).
			Str("event", string(event.Type)).
			Int("worker_id", id).
			Msg("audit queue full, event dropped")
	}
}

// shardIndex maps a visitor ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(visitorID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(visitorID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) reportDepth(id int) {
	if d.OnDepth != nil {
		d.OnDepth(id, len(d.workers[id]))
	}
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.SessionEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			d.reportDepth(id)
			if err := d.service.Process(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("visitor", event.VisitorID).
					Str("event", string(event.Type)).
					Int("worker_id", id).
					Msg("session event processing failed")
				if d.OnError != nil {
					d.OnError(event, err)
				}
			}
		}
	}
}
