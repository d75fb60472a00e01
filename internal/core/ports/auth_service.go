package ports

import (
	"context"

	"github.com/fieldforce/location-tracker/internal/core/domain"
)

// RegisterInput provisions an identity with credentials.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Identity, error)
	Login(ctx context.Context, email, password string) (string, *domain.Identity, error)
}
