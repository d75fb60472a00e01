package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/fieldforce/location-tracker/internal/core/domain"
	"github.com/fieldforce/location-tracker/internal/infrastructure/broadcast"
	"github.com/fieldforce/location-tracker/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// ErrBacklogFull is returned by Publish when the target shard cannot accept the event.
var ErrBacklogFull = errors.New("broadcast backlog full")

// Dispatcher decouples ingestion from broadcast delivery. Events are routed to
// a fixed set of workers by hashing the identity, which keeps each identity's
// updates in ingestion order.
type Dispatcher struct {
	workers     []chan domain.PositionUpdated
	broadcaster broadcast.Broadcaster
	log         zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used; buffer <= 0 means channelBuffer.
func NewDispatcher(numWorkers, buffer int, broadcaster broadcast.Broadcaster, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if buffer <= 0 {
		buffer = channelBuffer
	}
	d := &Dispatcher{
		workers:     make([]chan domain.PositionUpdated, numWorkers),
		broadcaster: broadcaster,
		log:         log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.PositionUpdated, buffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Publish implements ports.PositionPublisher. It never blocks: when the shard
// is full the event is dropped and ErrBacklogFull returned.
func (d *Dispatcher) Publish(_ context.Context, event domain.PositionUpdated) error {
	idx := d.shardIndex(event.UserID)
	select {
	case d.workers[idx] <- event:
		metrics.BroadcastQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	default:
		metrics.BroadcastBacklogDroppedTotal.Inc()
		return ErrBacklogFull
	}
}

// shardIndex maps an identity deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.PositionUpdated) {
	depth := metrics.BroadcastQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-ch:
			depth.Set(float64(len(ch)))
			if err := d.broadcaster.Broadcast(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("user_id", event.UserID).
					Int("worker_id", id).
					Msg("broadcast failed")
			}
		}
	}
}
