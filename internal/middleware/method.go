package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// AllowMethods answers 405 with {"error": msg} and an Allow header for
// any method not listed.  Routes using it are registered with e.Any so
// that the check runs in the route's own middleware order.
func AllowMethods(msg string, methods ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(methods))
	for _, m := range methods {
		allowed[strings.ToUpper(m)] = true
	}
	allow := strings.Join(methods, ", ")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[c.Request().Method] {
				c.Response().Header().Set(echo.HeaderAllow, allow)
				return c.JSON(http.StatusMethodNotAllowed, echo.Map{"error": msg})
			}
			return next(c)
		}
	}
}
