package ports

import (
	"context"
	"time"

	"github.com/fieldforce/location-tracker/internal/core/domain"
)

// Caller is the validated identity injected by the auth middleware.
type Caller struct {
	UserID string
	Name   string
	Role   string
}

// RecordLocationInput is the DTO passed from the transport layer to LocationService.Record.
type RecordLocationInput struct {
	Caller       Caller
	UserID       string // optional: explicit identity, privileged callers only
	Coordinates  []float64
	Accuracy     *float64
	Altitude     *float64
	Speed        *float64
	BatteryLevel *int
	ActivityType string
	Address      *domain.Address
	Metadata     *domain.DeviceMetadata
	// CapturedAt is the device capture time; zero means "use receive time".
	CapturedAt    time.Time
	StoredOffline bool
}

// RecordResult is returned after an ingestion.
type RecordResult struct {
	Sample *domain.LocationSample
	// Duplicate is true when the same capture was already ingested; nothing new was stored.
	Duplicate bool
	// LatestApplied is false when a newer position already held the projection.
	LatestApplied bool
}

// LocationQuery selects whose positions to read.
type LocationQuery struct {
	Caller Caller
	UserID string // empty = caller
}

// HistoryInput carries the history endpoint parameters.
type HistoryInput struct {
	LocationQuery
	From  time.Time
	To    time.Time
	Page  int
	Limit int
}

// HistoryResult is one page of history plus pagination metadata.
type HistoryResult struct {
	Items []*domain.LocationSample
	Total int64
	Page  int
	Limit int
	Pages int
}

// IdentityPosition pairs an active identity with its latest position, if any.
type IdentityPosition struct {
	Identity *domain.Identity
	Latest   *domain.LatestPosition
}

// NearbyInput carries a proximity query.
type NearbyInput struct {
	Origin       []float64
	RadiusMeters float64
	// Window overrides the configured recency window when > 0.
	Window time.Duration
}

// LocationService defines the location-tracking use cases.
type LocationService interface {
	Record(ctx context.Context, in RecordLocationInput) (*RecordResult, error)
	Last(ctx context.Context, q LocationQuery) (*domain.LocationSample, error)
	History(ctx context.Context, in HistoryInput) (*HistoryResult, error)
	AllLatest(ctx context.Context, caller Caller) ([]IdentityPosition, error)
	Nearby(ctx context.Context, in NearbyInput) ([]domain.ProximityResult, error)
}
