package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/service"
	"github.com/iliyamo/cinema-booking/internal/view"
)

// render executes a page with the values every page expects: the session
// user, a pending flash message and the search box query.
func render(c echo.Context, status int, name string, data echo.Map) error {
	if data == nil {
		data = echo.Map{}
	}
	data["User"] = middleware.CurrentUser(c)
	data["Flash"] = view.PopFlash(c)
	if _, ok := data["Query"]; !ok {
		data["Query"] = ""
	}
	return c.Render(status, name, data)
}

// errorPage renders the generic error page.
func errorPage(c echo.Context, status int, msg string) error {
	return render(c, status, "error", echo.Map{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": msg,
	})
}

// failure renders the error page for an error no handler recognised. The
// error is logged; the user only sees a generic message.
func failure(c echo.Context, log *logrus.Logger, err error) error {
	if errors.Is(err, service.ErrNotFound) {
		return errorPage(c, http.StatusNotFound, "The page you requested does not exist.")
	}
	log.WithError(err).WithFields(logrus.Fields{
		"path":       c.Request().URL.Path,
		"request_id": c.Get("request_id"),
	}).Error("request failed")
	return errorPage(c, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

// formStatus maps an error that should re-render a form to its status
// code. ok is false for errors that are not form errors.
func formStatus(err error) (status int, ok bool) {
	switch {
	case service.IsValidation(err):
		return http.StatusBadRequest, true
	case errors.Is(err, service.ErrDuplicateIdentity), errors.Is(err, service.ErrSeatAlreadyBooked):
		return http.StatusConflict, true
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, true
	}
	return 0, false
}

// formMessage is the text shown above a re-rendered form.
func formMessage(err error) string {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	switch {
	case errors.Is(err, service.ErrDuplicateIdentity):
		return "That username or email is already registered."
	case errors.Is(err, service.ErrSeatAlreadyBooked):
		return "This seat is already booked. Please choose another one."
	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid email or password."
	}
	return err.Error()
}

// getUserID extracts the session user's id from the context.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get(middleware.CtxUserID).(type) {
	case uint64:
		return t, nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, service.ErrUnauthenticated
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// pageParam reads ?page=, defaulting to 1.
func pageParam(c echo.Context) int {
	p, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// safeNext accepts only local absolute paths so login cannot redirect to
// another site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// wantsJSON reports whether the client posted JSON and should get JSON
// back.
func wantsJSON(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}
