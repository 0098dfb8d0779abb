package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-navigator/internal/model"
	"github.com/iliyamo/campus-navigator/internal/repository"
)

// UserLookup is implemented by *repository.UserRepo.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// RequireSuperuser aborts with 403 unless the caller set by JWTAuth has
// the superuser flag.  Anonymous requests get 401.
//
// With a non-nil users the flag and the active state are read from the
// account, not from the token, so a demoted or deactivated admin loses
// access before the token expires.
func RequireSuperuser(users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := CallerFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			if users != nil {
				u, err := users.GetByID(c.Request().Context(), caller.UserID)
				switch {
				case errors.Is(err, repository.ErrUserNotFound):
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
				case err != nil:
					return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
				case !u.IsActive:
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
				}
				caller.Username, caller.IsSuperuser = u.Username, u.IsSuperuser
				setCaller(c, caller)
			}
			if !caller.IsSuperuser {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
