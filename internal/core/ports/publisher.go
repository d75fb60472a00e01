package ports

import (
	"context"

	"github.com/fieldforce/location-tracker/internal/core/domain"
)

// PositionPublisher hands a position-update event to the broadcast path.
// Implementations are best-effort; a returned error never undoes persistence.
type PositionPublisher interface {
	Publish(ctx context.Context, event domain.PositionUpdated) error
}
