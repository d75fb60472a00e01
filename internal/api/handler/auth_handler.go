package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fieldforce/location-tracker/internal/core/domain"
	"github.com/fieldforce/location-tracker/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"     validate:"omitempty,oneof=manager commercial"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Success bool             `json:"success"`
	Token   string           `json:"token,omitempty"`
	User    *domain.Identity `json:"user,omitempty"`
}

// Register creates a new identity.
//
// @Summary      Register a field representative or manager
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Identity details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid payload", domain.ErrValidation)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	identity, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		if err == domain.ErrInvalidCredentials {
			return fmt.Errorf("%w: name, email and a password of at least 6 characters are required", domain.ErrValidation)
		}
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{Success: true, User: identity})
}

// Login authenticates an identity and returns a JWT.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid payload", domain.ErrValidation)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, identity, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{Success: true, Token: token, User: identity})
}
