package agent

import (
	"context"
	"math/rand"
	"sync"
	"time"

	geolib "github.com/kellydunn/golang-geo"

	"github.com/fieldforce/location-tracker/internal/core/domain"
)

// Reading is one fix taken from the device location capability.
type Reading struct {
	Point        domain.Point
	Accuracy     *float64
	Altitude     *float64
	Speed        *float64
	BatteryLevel *int
	Activity     domain.ActivityType
	CapturedAt   time.Time
}

// Locator is the device location capability.
type Locator interface {
	// RequestPermission returns domain.ErrPermissionDenied when the user
	// refuses location access.
	RequestPermission(ctx context.Context) error
	Open(ctx context.Context) (Handle, error)
}

// Handle is an open location session, released with Close.
type Handle interface {
	Current(ctx context.Context) (Reading, error)
	Close() error
}

// SimulatedLocator walks a random route around an origin. It stands in for a
// real GPS receiver on development machines.
type SimulatedLocator struct {
	Origin domain.Point
	// StepMeters is the maximum distance covered between two readings.
	StepMeters float64
	Denied     bool
	Seed       int64
}

func (l *SimulatedLocator) RequestPermission(context.Context) error {
	if l.Denied {
		return domain.ErrPermissionDenied
	}
	return nil
}

func (l *SimulatedLocator) Open(context.Context) (Handle, error) {
	seed := l.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &simulatedHandle{
		pos:     geolib.NewPoint(l.Origin.Lat, l.Origin.Lon),
		step:    l.StepMeters,
		battery: 100,
		rnd:     rand.New(rand.NewSource(seed)),
	}, nil
}

type simulatedHandle struct {
	mu      sync.Mutex
	pos     *geolib.Point
	step    float64
	battery int
	rnd     *rand.Rand
	closed  bool
}

func (h *simulatedHandle) Current(ctx context.Context) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return Reading{}, context.Canceled
	}

	moved := h.rnd.Float64() * h.step
	if moved > 0 {
		h.pos = h.pos.PointAtDistanceAndBearing(moved/1000, h.rnd.Float64()*360)
	}
	if h.battery > 5 && h.rnd.Intn(4) == 0 {
		h.battery--
	}

	accuracy := 5 + h.rnd.Float64()*20
	speed := moved / 60
	battery := h.battery
	activity := domain.ActivityStationary
	switch {
	case speed > 3:
		activity = domain.ActivityDriving
	case speed > 0.5:
		activity = domain.ActivityWalking
	}

	return Reading{
		Point:        domain.Point{Lon: h.pos.Lng(), Lat: h.pos.Lat()},
		Accuracy:     &accuracy,
		Speed:        &speed,
		BatteryLevel: &battery,
		Activity:     activity,
		CapturedAt:   time.Now().UTC(),
	}, nil
}

func (h *simulatedHandle) Close() error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	return nil
}
