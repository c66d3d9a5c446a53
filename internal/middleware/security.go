package middleware

import (
	"github.com/labstack/echo/v4"

	"gateway-proxy-go/internal/headers"
)

// SecurityHeaders returns an Echo middleware that adds security headers
// and strips hop-by-hop headers from incoming requests.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header
			for name := range h {
				if headers.IsHopByHop(name) {
					delete(h, name)
				}
			}

			// Set before next: once the handler writes, headers are on the wire.
			c.Response().Header().Set("X-Content-Type-Options", "nosniff")
			c.Response().Header().Set("X-Frame-Options", "DENY")

			return next(c)
		}
	}
}
