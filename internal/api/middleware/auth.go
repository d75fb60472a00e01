package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys read back by handler.ctxCaller.
const (
	ctxUserID = "user_id"
	ctxName   = "name"
	ctxRole   = "role"
)

// Auth validates the bearer JWT and injects user_id, name and role into context.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return authenticate(jwtSecret, false)
}

// WebSocketAuth is Auth for upgrade requests: browsers cannot set headers on a
// websocket handshake, so the token may also arrive as ?token=.
func WebSocketAuth(jwtSecret string) echo.MiddlewareFunc {
	return authenticate(jwtSecret, true)
}

func authenticate(jwtSecret string, allowQuery bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c, allowQuery)
			if err != nil {
				return err
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sub, _ := claims["sub"].(string)
			if sub == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing subject")
			}
			name, _ := claims["name"].(string)
			role, _ := claims["role"].(string)

			c.Set(ctxUserID, sub)
			c.Set(ctxName, name)
			c.Set(ctxRole, role)

			return next(c)
		}
	}
}

func bearerToken(c echo.Context, allowQuery bool) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if t := c.QueryParam("token"); allowQuery && t != "" {
			return t, nil
		}
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}
