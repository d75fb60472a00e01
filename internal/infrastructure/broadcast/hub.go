// Package broadcast fans position-update events out to connected observers.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"github.com/fieldforce/location-tracker/internal/core/domain"
	"github.com/fieldforce/location-tracker/internal/pkg/metrics"
)

// DefaultSessionBuffer is the number of frames a slow observer may fall behind
// before new frames are dropped for it.
const DefaultSessionBuffer = 64

// Broadcaster delivers one event to every observer reachable from this process.
type Broadcaster interface {
	Broadcast(ctx context.Context, event domain.PositionUpdated) error
}

// Hub is the in-process observer registry. Publishing never blocks on a session.
type Hub struct {
	sessions cmap.ConcurrentMap[string, *Subscription]
	buffer   int
	log      zerolog.Logger
}

func NewHub(buffer int, log zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultSessionBuffer
	}
	return &Hub{sessions: cmap.New[*Subscription](), buffer: buffer, log: log}
}

// Subscription is one observer's view of the hub.
type Subscription struct {
	ID     string
	UserID string

	events chan []byte
	done   chan struct{}
	once   sync.Once
	hub    *Hub
}

// Events yields encoded frames. It is never closed; select on Done as well.
func (s *Subscription) Events() <-chan []byte { return s.events }

// Done is closed once the subscription is removed from the hub.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.sessions.Remove(s.ID)
		close(s.done)
		metrics.ObserversConnected.Dec()
	})
}

func (s *Subscription) offer(frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- frame:
		return true
	default:
		return false
	}
}

// Subscribe registers a new observer session.
func (h *Hub) Subscribe(userID string) *Subscription {
	sub := &Subscription{
		ID:     uuid.NewString(),
		UserID: userID,
		events: make(chan []byte, h.buffer),
		done:   make(chan struct{}),
		hub:    h,
	}
	h.sessions.Set(sub.ID, sub)
	metrics.ObserversConnected.Inc()
	h.log.Debug().Str("session_id", sub.ID).Str("user_id", userID).Msg("observer subscribed")
	return sub
}

// Broadcast encodes event once and delivers it to every local session.
func (h *Hub) Broadcast(_ context.Context, event domain.PositionUpdated) error {
	frame, err := Encode(event)
	if err != nil {
		return err
	}
	metrics.BroadcastPublishedTotal.Inc()
	h.Deliver(frame)
	return nil
}

// Deliver hands an already encoded frame to every local session and returns
// how many accepted it.
func (h *Hub) Deliver(frame []byte) int {
	delivered := 0
	for item := range h.sessions.IterBuffered() {
		sub := item.Val
		if sub.offer(frame) {
			delivered++
			metrics.BroadcastDeliveriesTotal.WithLabelValues("delivered").Inc()
			continue
		}
		metrics.BroadcastDeliveriesTotal.WithLabelValues("dropped").Inc()
		h.log.Warn().Str("session_id", sub.ID).Msg("observer buffer full, event dropped")
	}
	return delivered
}

// Count returns the number of open sessions.
func (h *Hub) Count() int { return h.sessions.Count() }

// Close ends every session.
func (h *Hub) Close() {
	for _, sub := range h.sessions.Items() {
		sub.Close()
	}
}

// Encode renders the observer wire frame for event.
func Encode(event domain.PositionUpdated) ([]byte, error) {
	frame, err := json.Marshal(domain.Envelope{Event: domain.EventPositionUpdated, Data: event})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", domain.EventPositionUpdated, err)
	}
	return frame, nil
}
