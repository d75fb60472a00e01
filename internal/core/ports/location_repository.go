package ports

import (
	"context"
	"time"

	"github.com/fieldforce/location-tracker/internal/core/domain"
)

// HistoryFilter carries the query parameters for one identity's sample history.
type HistoryFilter struct {
	UserID string
	From   time.Time // optional: timestamp >= From
	To     time.Time // optional: timestamp <= To
	Page   int       // 1-based
	Limit  int
}

// SampleRepository is the append-only sample history.
type SampleRepository interface {
	Insert(ctx context.Context, s *domain.LocationSample) error
	FindByID(ctx context.Context, id string) (*domain.LocationSample, error)
	// Newest returns the sample with the greatest timestamp for userID, or domain.ErrNoLocation.
	Newest(ctx context.Context, userID string) (*domain.LocationSample, error)
	// History returns one page sorted newest-first and the total match count.
	History(ctx context.Context, filter HistoryFilter) ([]*domain.LocationSample, int64, error)
	// Within returns samples no older than since whose point may lie within
	// radiusMeters of origin. It is a spatial prefilter: callers recompute distances.
	Within(ctx context.Context, origin domain.Point, radiusMeters float64, since time.Time) ([]*domain.LocationSample, error)
}

// LatestPositionRepository holds the latest-position projection.
type LatestPositionRepository interface {
	// Upsert overwrites the projection only when lp is not older than the stored
	// record. applied is false when a newer position was already present.
	Upsert(ctx context.Context, lp *domain.LatestPosition) (applied bool, err error)
	FindByUser(ctx context.Context, userID string) (*domain.LatestPosition, error)
	FindAll(ctx context.Context) ([]*domain.LatestPosition, error)
}
