package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fieldforce/location-tracker/internal/core/ports"
)

// ctxCaller extracts the identity injected by the Auth middleware. An empty
// user_id means the middleware did not run, which is a wiring bug surfaced as 401.
func ctxCaller(c echo.Context) (ports.Caller, error) {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return ports.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	name, _ := c.Get("name").(string)
	role, _ := c.Get("role").(string)
	return ports.Caller{UserID: userID, Name: name, Role: role}, nil
}
