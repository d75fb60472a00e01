package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldforce/location-tracker/internal/core/domain"
)

func sampleEvent() domain.PositionUpdated {
	return domain.PositionUpdated{
		UserID:      "alice",
		Name:        "Alice",
		Coordinates: domain.Point{Lon: 2.35, Lat: 48.85},
		Timestamp:   time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestHub_EveryObserverReceivesEventOnce(t *testing.T) {
	hub := NewHub(4, zerolog.Nop())
	a := hub.Subscribe("maria")
	b := hub.Subscribe("maria")
	defer a.Close()
	defer b.Close()

	if err := hub.Broadcast(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	for _, sub := range []*Subscription{a, b} {
		select {
		case frame := <-sub.Events():
			var env struct {
				Event string `json:"event"`
				Data  struct {
					UserID      string     `json:"userId"`
					Name        string     `json:"name"`
					Coordinates [2]float64 `json:"coordinates"`
				} `json:"data"`
			}
			if err := json.Unmarshal(frame, &env); err != nil {
				t.Fatalf("decode frame: %v", err)
			}
			if env.Event != domain.EventPositionUpdated || env.Data.UserID != "alice" || env.Data.Name != "Alice" {
				t.Fatalf("unexpected frame: %s", frame)
			}
			if env.Data.Coordinates != [2]float64{2.35, 48.85} {
				t.Fatalf("coordinates not [lon, lat]: %v", env.Data.Coordinates)
			}
		default:
			t.Fatalf("session %s received nothing", sub.ID)
		}
		select {
		case extra := <-sub.Events():
			t.Fatalf("session %s received a second frame: %s", sub.ID, extra)
		default:
		}
	}
}

func TestHub_FullBufferDropsWithoutBlocking(t *testing.T) {
	hub := NewHub(1, zerolog.Nop())
	slow := hub.Subscribe("slow")
	fast := hub.Subscribe("fast")
	defer slow.Close()
	defer fast.Close()

	frame, _ := Encode(sampleEvent())
	if n := hub.Deliver(frame); n != 2 {
		t.Fatalf("first delivery reached %d sessions, want 2", n)
	}
	<-fast.Events()

	done := make(chan int)
	go func() { done <- hub.Deliver(frame) }()
	select {
	case n := <-done:
		if n != 1 {
			t.Fatalf("second delivery reached %d sessions, want 1", n)
		}
	case <-time.After(time.Second):
		t.Fatalf("Deliver blocked on a full session")
	}
}

func TestHub_CloseUnsubscribes(t *testing.T) {
	hub := NewHub(1, zerolog.Nop())
	sub := hub.Subscribe("maria")
	if hub.Count() != 1 {
		t.Fatalf("Count = %d, want 1", hub.Count())
	}

	sub.Close()
	sub.Close()

	if hub.Count() != 0 {
		t.Fatalf("Count after close = %d, want 0", hub.Count())
	}
	select {
	case <-sub.Done():
	default:
		t.Fatalf("Done not closed")
	}

	frame, _ := Encode(sampleEvent())
	if n := hub.Deliver(frame); n != 0 {
		t.Fatalf("closed session still receives frames")
	}
}

func TestHub_CloseAll(t *testing.T) {
	hub := NewHub(1, zerolog.Nop())
	a := hub.Subscribe("a")
	b := hub.Subscribe("b")

	hub.Close()

	if hub.Count() != 0 {
		t.Fatalf("Count = %d after Close", hub.Count())
	}
	for _, s := range []*Subscription{a, b} {
		select {
		case <-s.Done():
		default:
			t.Fatalf("session %s still open", s.ID)
		}
	}
}

func TestHub_ConcurrentSubscribeDeliverClose(t *testing.T) {
	hub := NewHub(8, zerolog.Nop())
	frame, _ := Encode(sampleEvent())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sub := hub.Subscribe("maria")
				sub.Close()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				hub.Deliver(frame)
			}
		}()
	}

	kept := hub.Subscribe("maria")
	wg.Wait()
	for drained := false; !drained; {
		select {
		case <-kept.Events():
		default:
			drained = true
		}
	}

	if hub.Count() != 1 {
		t.Fatalf("Count = %d, want only the kept session", hub.Count())
	}
	if n := hub.Deliver(frame); n != 1 {
		t.Fatalf("Deliver reached %d sessions, want 1", n)
	}
	hub.Close()
	select {
	case <-kept.Done():
	default:
		t.Fatalf("kept session still open after Close")
	}
}
