package geo

import (
	"math"
	"testing"

	"github.com/fieldforce/location-tracker/internal/core/domain"
)

func TestDistanceMeters_AlongMeridian(t *testing.T) {
	origin := domain.Point{Lon: 2.35, Lat: 48.85}
	// 0.01 degree of latitude on a 6371 km sphere.
	north := domain.Point{Lon: 2.35, Lat: 48.86}
	want := 0.01 * math.Pi / 180 * EarthRadiusMeters

	got := DistanceMeters(origin, north)
	if math.Abs(got-want) > 0.5 {
		t.Fatalf("expected ~%.2fm, got %.2fm", want, got)
	}
}

func TestDistanceMeters_SamePointIsZero(t *testing.T) {
	p := domain.Point{Lon: -99.13, Lat: 19.43}
	if d := DistanceMeters(p, p); d > 1e-6 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestDistanceMeters_Symmetric(t *testing.T) {
	a := domain.Point{Lon: -0.1276, Lat: 51.5072}
	b := domain.Point{Lon: 2.3522, Lat: 48.8566}
	if math.Abs(DistanceMeters(a, b)-DistanceMeters(b, a)) > 1e-6 {
		t.Fatal("distance must be symmetric")
	}
	// London to Paris is roughly 344 km.
	if d := DistanceMeters(a, b); d < 340_000 || d > 348_000 {
		t.Fatalf("unexpected London-Paris distance: %.0fm", d)
	}
}
