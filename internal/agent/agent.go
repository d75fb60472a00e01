// Package agent is the device-side sampling loop. It reads the location
// capability on a fixed cadence, delivers samples to the ingestion endpoint and
// parks whatever it cannot deliver in a durable offline queue.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/rs/zerolog"
	"github.com/tevino/abool/v2"
	"go.uber.org/ratelimit"

	"github.com/fieldforce/location-tracker/internal/agent/offlinequeue"
	"github.com/fieldforce/location-tracker/internal/core/domain"
	"github.com/fieldforce/location-tracker/internal/core/geo"
)

// OfflineQueue is the durable buffer behind the agent.
type OfflineQueue interface {
	Enqueue(ctx context.Context, payload []byte) (offlinequeue.Entry, int, error)
	DrainInOrder(ctx context.Context, deliver offlinequeue.DeliverFunc) (offlinequeue.DrainResult, error)
	Len(ctx context.Context) (int, error)
}

// Option customises an Agent.
type Option func(*Agent)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

// Agent runs one cooperative sampling task. Start and Stop are idempotent.
type Agent struct {
	cfg     Config
	locator Locator
	sender  Sender
	queue   OfflineQueue
	log     zerolog.Logger
	now     func() time.Time

	running *abool.AtomicBool
	mu      sync.Mutex
	handle  Handle
	cancel  context.CancelFunc
	done    chan struct{}

	// Loop state, only touched from the sampling goroutine (or tests
	// driving tick directly).
	lastPoint  *domain.Point
	lastSentAt time.Time
	retry      *backoff.ExponentialBackOff
	drainAfter time.Time
	limiter    ratelimit.Limiter
}

func New(cfg Config, locator Locator, sender Sender, queue OfflineQueue, log zerolog.Logger, opts ...Option) *Agent {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = cfg.RetryInitial
	retry.MaxInterval = cfg.RetryMax
	retry.Multiplier = 2
	retry.RandomizationFactor = 0.2
	retry.MaxElapsedTime = 0
	retry.Reset()

	rate := cfg.DrainRate
	if rate <= 0 {
		rate = 1
	}

	a := &Agent{
		cfg:     cfg,
		locator: locator,
		sender:  sender,
		queue:   queue,
		log:     log,
		now:     time.Now,
		running: abool.New(),
		retry:   retry,
		limiter: ratelimit.New(rate),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Running reports whether the sampling loop is active.
func (a *Agent) Running() bool { return a.running.IsSet() }

// Start asks for location permission, opens the capability and begins
// sampling. A refused permission is returned as domain.ErrPermissionDenied
// and the agent stays stopped. Calling Start on a running agent is a no-op.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running.IsSet() {
		return nil
	}

	if err := a.locator.RequestPermission(ctx); err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrPermissionDenied, err)
	}

	handle, err := a.locator.Open(ctx)
	if err != nil {
		return fmt.Errorf("open location capability: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.handle = handle
	a.cancel = cancel
	a.done = make(chan struct{})
	a.running.Set()

	go a.loop(runCtx, handle, a.done)

	a.log.Info().
		Dur("interval", a.cfg.Interval).
		Float64("min_displacement_m", a.cfg.MinDisplacement).
		Msg("sampling started")
	return nil
}

// Stop halts sampling and releases the capability handle. Queued samples are
// left untouched for the next Start. Calling Stop twice is a no-op.
func (a *Agent) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running.SetToIf(true, false) {
		return nil
	}

	a.cancel()
	<-a.done

	err := a.handle.Close()
	a.handle = nil
	a.log.Info().Msg("sampling stopped")
	return err
}

func (a *Agent) loop(ctx context.Context, handle Handle, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()

	a.tick(ctx, handle)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.tick(ctx, handle)
		}
	}
}

// tick takes one reading, delivers it (or queues it) and drains the queue
// when delivery is possible.
func (a *Agent) tick(ctx context.Context, handle Handle) {
	reading, err := handle.Current(ctx)
	if err != nil {
		if ctx.Err() == nil {
			a.log.Warn().Err(err).Msg("location reading failed")
		}
		return
	}

	if !a.due(reading) {
		a.maybeDrain(ctx)
		return
	}

	sample := a.toSample(reading)
	if err := a.sender.Send(ctx, sample); err != nil {
		a.park(ctx, sample, err)
		a.deferDrain()
		return
	}

	a.lastPoint = &reading.Point
	a.lastSentAt = a.now()
	a.log.Debug().
		Float64("lon", reading.Point.Lon).
		Float64("lat", reading.Point.Lat).
		Msg("sample delivered")

	// Live delivery worked, so connectivity is back.
	a.retry.Reset()
	a.drainAfter = time.Time{}
	a.drain(ctx)
}

// due applies the displacement filter with a heartbeat fallback.
func (a *Agent) due(r Reading) bool {
	if a.lastPoint == nil || a.cfg.MinDisplacement <= 0 {
		return true
	}
	if a.cfg.Heartbeat > 0 && a.now().Sub(a.lastSentAt) >= a.cfg.Heartbeat {
		return true
	}
	return geo.DistanceMeters(*a.lastPoint, r.Point) >= a.cfg.MinDisplacement
}

func (a *Agent) toSample(r Reading) Sample {
	s := Sample{
		Coordinates:  r.Point.Coordinates(),
		UserID:       a.cfg.Identity,
		Accuracy:     r.Accuracy,
		Altitude:     r.Altitude,
		Speed:        r.Speed,
		BatteryLevel: r.BatteryLevel,
		ActivityType: string(r.Activity),
		Metadata: &domain.DeviceMetadata{
			DeviceModel: a.cfg.DeviceModel,
			AppVersion:  a.cfg.AppVersion,
			NetworkType: a.cfg.NetworkType,
		},
		Timestamp: r.CapturedAt,
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = a.now().UTC()
	}
	return s
}

// park stores an undelivered sample, marked as an offline redelivery.
func (a *Agent) park(ctx context.Context, s Sample, cause error) {
	storedAt := a.now().UTC()
	s.StoredOffline = true
	s.StoredAt = &storedAt

	payload, err := json.Marshal(s)
	if err != nil {
		a.log.Error().Err(err).Msg("encode sample for offline queue")
		return
	}

	entry, evicted, err := a.queue.Enqueue(context.WithoutCancel(ctx), payload)
	if err != nil {
		a.log.Error().Err(err).Msg("offline queue write failed, sample lost")
		return
	}

	ev := a.log.Warn().Err(cause).Str("entry_id", entry.ID)
	if evicted > 0 {
		ev = ev.Int("evicted", evicted)
	}
	ev.Msg("sample queued offline")
}

func (a *Agent) deferDrain() {
	wait := a.retry.NextBackOff()
	if wait == backoff.Stop {
		wait = a.cfg.RetryMax
	}
	a.drainAfter = a.now().Add(wait)
}

func (a *Agent) maybeDrain(ctx context.Context) {
	if a.now().Before(a.drainAfter) {
		return
	}
	a.drain(ctx)
}

// drain redelivers queued samples oldest first, paced by the limiter. Any
// failure pushes the next drain back by the retry policy.
func (a *Agent) drain(ctx context.Context) {
	n, err := a.queue.Len(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("offline queue unavailable")
		return
	}
	if n == 0 {
		return
	}

	res, err := a.queue.DrainInOrder(ctx, func(ctx context.Context, e offlinequeue.Entry) error {
		var s Sample
		if err := json.Unmarshal(e.Payload, &s); err != nil {
			return fmt.Errorf("decode entry %s: %w", e.ID, err)
		}
		a.limiter.Take()
		if err := a.sender.Send(ctx, s); err != nil {
			if a.cfg.AttemptWarn > 0 && e.Attempts+1 > a.cfg.AttemptWarn {
				a.log.Warn().
					Err(err).
					Str("entry_id", e.ID).
					Int("attempts", e.Attempts+1).
					Time("enqueued_at", e.EnqueuedAt).
					Msg("offline sample still undeliverable")
			}
			return err
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		a.log.Error().Err(err).Msg("offline drain aborted")
	}

	a.log.Info().
		Int("queued", n).
		Int("delivered", res.Delivered).
		Int("failed", res.Failed).
		Msg("offline queue drained")

	if res.Failed > 0 {
		a.deferDrain()
		return
	}
	a.retry.Reset()
	a.drainAfter = time.Time{}
}
