package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-navigator/internal/model"
)

// Context keys set by Identify and JWTAuth.
const (
	callerKey = "caller"
	userIDKey = "user_id"
)

// CallerFrom returns the authenticated caller stored in the context, or
// false for anonymous requests.
func CallerFrom(c echo.Context) (model.Caller, bool) {
	caller, ok := c.Get(callerKey).(model.Caller)
	return caller, ok && caller.UserID != 0
}

func setCaller(c echo.Context, caller model.Caller) {
	c.Set(callerKey, caller)
	c.Set(userIDKey, strconv.FormatUint(caller.UserID, 10))
}

// currentUserID is the rate limit identity: the user id, or "anon".
func currentUserID(c echo.Context) string {
	if s, ok := c.Get(userIDKey).(string); ok && s != "" {
		return s
	}
	return "anon"
}
