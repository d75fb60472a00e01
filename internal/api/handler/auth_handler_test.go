package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/fieldforce/location-tracker/internal/core/domain"
	"github.com/fieldforce/location-tracker/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.Identity, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.Identity, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Identity, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.Identity, error) {
	return s.loginFn(ctx, email, password)
}

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.Identity, error) {
			if in.Name != "Alice" || in.Email != "alice@example.com" || in.Role != domain.RoleCommercial {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Identity{ID: "u1", Name: in.Name, Email: in.Email, Role: in.Role, PasswordHash: "hash"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/auth/register",
		`{"name":"Alice","email":"alice@example.com","password":"secret1","role":"commercial"}`)
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["id"] != "u1" || user["role"] != "commercial" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if strings.Contains(rec.Body.String(), "hash") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}
}

func TestAuthHandler_Register_Invalid(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.Identity, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	})

	for _, body := range []string{
		`{"email":"bob@example.com","password":"secret1"}`,
		`{"name":"Bob","email":"not-an-email","password":"secret1"}`,
		`{"name":"Bob","email":"bob@example.com","password":"123"}`,
		`{"name":"Bob","email":"bob@example.com","password":"secret1","role":"admin"}`,
	} {
		c, _ := newJSONContext(http.MethodPost, "/auth/register", body)
		if err := handler.Register(c); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", body, err)
		}
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.Identity, error) {
			return nil, domain.ErrUserExists
		},
	})

	c, _ := newJSONContext(http.MethodPost, "/auth/register", `{"name":"Bob","email":"bob@example.com","password":"secret1"}`)
	if err := handler.Register(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *domain.Identity, error) {
			if email != "alice@example.com" || password != "secret1" {
				t.Fatalf("unexpected credentials %s/%s", email, password)
			}
			return "token-123", &domain.Identity{ID: "u1", Name: "Alice"}, nil
		},
	})

	c, rec := newJSONContext(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"secret1"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["token"] != "token-123" || resp["success"] != true {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{
		loginFn: func(context.Context, string, string) (string, *domain.Identity, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	})

	c, _ := newJSONContext(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"wrong"}`)
	if err := handler.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
