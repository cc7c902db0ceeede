package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"
)

// AdminTokenMiddleware guards admin endpoints with a static token from
// configuration, checked against the X-Admin-Token header. With no token
// configured the endpoints are hidden entirely.
func AdminTokenMiddleware(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token == "" {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
			}
			key := strings.TrimSpace(c.Request().Header.Get("X-Admin-Token"))
			if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(token)) != 1 {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid admin token"})
			}
			return next(c)
		}
	}
}
