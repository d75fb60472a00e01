package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/fieldforce/location-tracker/internal/core/domain"
)

func roleContext(role string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/locations/all", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != "" {
		c.Set(ctxRole, role)
	}
	return c, rec
}

func TestRequireRole_Allows(t *testing.T) {
	c, rec := roleContext(domain.RoleManager)

	called := false
	handler := RequireRole(domain.RoleManager)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected next handler to run, called=%v code=%d", called, rec.Code)
	}
}

func TestRequireRole_ForbidsOtherRoles(t *testing.T) {
	c, _ := roleContext(domain.RoleCommercial)

	err := RequireRole(domain.RoleManager)(func(echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})(c)

	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRequireRole_WithoutAuthIsUnauthorized(t *testing.T) {
	c, _ := roleContext("")

	err := RequireRole(domain.RoleManager)(func(echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
