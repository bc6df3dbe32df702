package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// CurrentUser returns the user attached by LoadSession, or nil.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(CtxUser).(*model.User)
	return u
}

// userID returns the session user's id as a string, or "anon" for
// anonymous requests. It tags request log lines.
func userID(c echo.Context) string {
	if id, ok := c.Get(CtxUserID).(uint64); ok && id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
