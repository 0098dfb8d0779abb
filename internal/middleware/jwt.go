package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-navigator/internal/utils"
)

func bearerToken(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return raw, raw != ""
}

// Identify stores the caller of a valid bearer token in the context and
// lets every request through.  It runs ahead of the rate limiter so that
// buckets can be keyed by user.
func Identify(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw, ok := bearerToken(c); ok {
				if caller, err := utils.ParseAccessToken(secret, raw); err == nil {
					setCaller(c, caller)
				}
			}
			return next(c)
		}
	}
}

// JWTAuth rejects requests without a valid Bearer access token with 401.
// On success the caller is available through CallerFrom.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := CallerFrom(c); ok {
				return next(c)
			}
			raw, ok := bearerToken(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			caller, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			setCaller(c, caller)
			return next(c)
		}
	}
}
