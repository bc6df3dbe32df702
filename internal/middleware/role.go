package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/service"
	"github.com/iliyamo/cinema-booking/internal/view"
)

// RequireRole lets the request through only when the session user holds
// one of roles. Anonymous requests are sent to the login page; users with
// another role are sent home with an access-denied flash.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch err := service.Authorize(CurrentUser(c), roles...); {
			case errors.Is(err, service.ErrUnauthenticated):
				return redirectToLogin(c)
			case errors.Is(err, service.ErrForbidden):
				view.SetFlash(c, view.FlashError, "Access denied.")
				return c.Redirect(http.StatusSeeOther, "/")
			}
			return next(c)
		}
	}
}
