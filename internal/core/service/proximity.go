package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/fieldforce/location-tracker/internal/core/domain"
	"github.com/fieldforce/location-tracker/internal/core/geo"
	"github.com/fieldforce/location-tracker/internal/core/ports"
	"github.com/fieldforce/location-tracker/internal/pkg/metrics"
)

// DefaultRadiusMeters applies when a nearby query omits maxDistance.
const DefaultRadiusMeters = 5000.0

// Nearby returns at most one result per identity: its qualifying sample closest
// to the origin, sorted by ascending distance.
func (s *locationService) Nearby(ctx context.Context, in ports.NearbyInput) (results []domain.ProximityResult, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		switch {
		case err != nil:
			outcome = "error"
		case len(results) == 0:
			outcome = "empty"
		}
		metrics.ProximityQueryDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	origin, err := domain.NewPoint(in.Origin)
	if err != nil {
		return nil, fmt.Errorf("nearby: %w", err)
	}
	radius := in.RadiusMeters
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
		return nil, fmt.Errorf("nearby: %w: maxDistance must be a positive finite number", domain.ErrValidation)
	}
	window := s.window
	if in.Window > 0 {
		window = in.Window
	}
	since := s.now().UTC().Add(-window)

	// Phase 1: candidates inside radius and recency window.
	candidates, err := s.samples.Within(ctx, origin, radius, since)
	if err != nil {
		return nil, fmt.Errorf("nearby: %w: %w", domain.ErrPersistence, err)
	}

	// Phase 2: reduce to the minimum distance per identity.
	nearest := nearestPerIdentity(origin, radius, since, candidates)
	if len(nearest) == 0 {
		return []domain.ProximityResult{}, nil
	}

	// Phase 3: join display metadata.
	ids := make([]string, 0, len(nearest))
	for id := range nearest {
		ids = append(ids, id)
	}
	identities, err := s.identities.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("nearby: %w: %w", domain.ErrPersistence, err)
	}

	results = make([]domain.ProximityResult, 0, len(nearest))
	for id, r := range nearest {
		identity, ok := identities[id]
		if !ok {
			continue
		}
		r.Identity = identity.Summary()
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Identity.ID < results[j].Identity.ID
	})
	return results, nil
}

// nearestPerIdentity recomputes distances on the spatial prefilter output and
// keeps each identity's closest sample. Ties prefer the newer sample.
func nearestPerIdentity(origin domain.Point, radius float64, since time.Time, candidates []*domain.LocationSample) map[string]domain.ProximityResult {
	nearest := make(map[string]domain.ProximityResult)
	for _, c := range candidates {
		if c.Timestamp.Before(since) {
			continue
		}
		d := geo.DistanceMeters(origin, c.Point)
		if d > radius {
			continue
		}
		best, ok := nearest[c.UserID]
		if ok && (d > best.Distance || (d == best.Distance && !c.Timestamp.After(best.Timestamp))) {
			continue
		}
		nearest[c.UserID] = domain.ProximityResult{
			Identity:  domain.IdentitySummary{ID: c.UserID},
			SampleID:  c.ID,
			Point:     c.Point,
			Timestamp: c.Timestamp,
			Distance:  d,
		}
	}
	return nearest
}
