package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/fieldforce/location-tracker/internal/core/domain"
	"github.com/fieldforce/location-tracker/internal/core/ports"
)

// AuthService provisions identities and issues bearer credentials for them.
type AuthService struct {
	repo      ports.IdentityRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(repo ports.IdentityRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Identity, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || email == "" || len(in.Password) < 6 {
		return nil, domain.ErrInvalidCredentials
	}
	role := in.Role
	if role == "" {
		role = domain.RoleCommercial
	}
	if role != domain.RoleManager && role != domain.RoleCommercial {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return s.repo.Create(ctx, &domain.Identity{
		Name:         in.Name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       domain.StatusOffline,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.Identity, error) {
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	identity, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !identity.Active {
		return "", nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(identity)
	if err != nil {
		return "", nil, err
	}
	return token, identity, nil
}

func (s *AuthService) generateToken(identity *domain.Identity) (string, error) {
	claims := jwt.MapClaims{
		"sub":  identity.ID,
		"name": identity.Name,
		"role": identity.Role,
		"exp":  time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
