package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/service"
	"github.com/iliyamo/cinema-booking/internal/view"
)

// BookingHandler serves the seat booking form.
type BookingHandler struct {
	Catalog  *service.CatalogService
	Bookings *service.BookingService
	Log      *logrus.Logger
}

func NewBookingHandler(catalog *service.CatalogService, bookings *service.BookingService, log *logrus.Logger) *BookingHandler {
	return &BookingHandler{Catalog: catalog, Bookings: bookings, Log: log}
}

type bookingForm struct {
	SeatNumber string `form:"seat_number" json:"seat_number"`
}

// Form shows the screening and its seats.
func (h *BookingHandler) Form(c echo.Context) error {
	id, ok := parseID(c, "screening_id")
	if !ok {
		return errorPage(c, http.StatusNotFound, "Screening not found.")
	}
	return h.renderForm(c, http.StatusOK, id, "", "")
}

func (h *BookingHandler) renderForm(c echo.Context, status int, id uint64, seat, msg string) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	v, err := h.Catalog.BookingContext(ctx, id)
	if err != nil {
		return failure(c, h.Log, err)
	}
	return render(c, status, "book", echo.Map{
		"Title": "Book " + v.Screening.MovieTitle,
		"View":  v,
		"Seat":  seat,
		"Error": msg,
	})
}

// Submit books the chosen seat. A taken seat re-renders the form with 409.
func (h *BookingHandler) Submit(c echo.Context) error {
	id, ok := parseID(c, "screening_id")
	if !ok {
		return errorPage(c, http.StatusNotFound, "Screening not found.")
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}
	var f bookingForm
	if err := c.Bind(&f); err != nil {
		return errorPage(c, http.StatusBadRequest, "invalid form")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	b, err := h.Bookings.Book(ctx, uid, id, f.SeatNumber)
	if err != nil {
		if status, ok := formStatus(err); ok {
			if wantsJSON(c) {
				return c.JSON(status, echo.Map{"error": formMessage(err)})
			}
			return h.renderForm(c, status, id, f.SeatNumber, formMessage(err))
		}
		if wantsJSON(c) && errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "screening not found"})
		}
		return failure(c, h.Log, err)
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusCreated, echo.Map{
			"id": b.ID, "screening_id": b.ScreeningID, "seat_number": b.SeatNumber, "created_at": b.CreatedAt,
		})
	}
	view.SetFlash(c, view.FlashSuccess, "Booking successful!")
	return c.Redirect(http.StatusSeeOther, "/")
}
