package ports

import (
	"context"

	"github.com/fieldforce/location-tracker/internal/core/domain"
)

// IdentityRepository reads the identity directory owned by the identity subsystem.
type IdentityRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	// FindByIDs returns the identities that exist, keyed by ID. Unknown IDs are omitted.
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Identity, error)
	ListActive(ctx context.Context) ([]*domain.Identity, error)
	Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)
}
