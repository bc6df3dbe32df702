package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/service"
	"github.com/iliyamo/cinema-booking/internal/view"
)

// SocialHandler serves favorites and the personal list page.
type SocialHandler struct {
	Social  *service.SocialService
	Catalog *service.CatalogService
	Log     *logrus.Logger
}

func NewSocialHandler(social *service.SocialService, catalog *service.CatalogService, log *logrus.Logger) *SocialHandler {
	return &SocialHandler{Social: social, Catalog: catalog, Log: log}
}

// ToggleFavorite flips the movie in the user's list and returns to the
// movie page.
func (h *SocialHandler) ToggleFavorite(c echo.Context) error {
	movieID, ok := parseID(c, "movie_id")
	if !ok {
		return errorPage(c, http.StatusNotFound, "Movie not found.")
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	state, err := h.Social.ToggleFavorite(ctx, uid, movieID)
	if err != nil {
		return failure(c, h.Log, err)
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, echo.Map{"movie_id": movieID, "favorited": bool(state)})
	}
	if state == service.Favorited {
		view.SetFlash(c, view.FlashSuccess, "Added to your list.")
	} else {
		view.SetFlash(c, view.FlashInfo, "Removed from your list.")
	}
	return c.Redirect(http.StatusSeeOther, "/movie/"+strconv.FormatUint(movieID, 10))
}

// MyList shows the user's favorites and bookings.
func (h *SocialHandler) MyList(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	favs, err := h.Social.ListFavorites(ctx, uid)
	if err != nil {
		return failure(c, h.Log, err)
	}
	bookings, err := h.Catalog.ListUserBookings(ctx, uid)
	if err != nil {
		return failure(c, h.Log, err)
	}
	return render(c, http.StatusOK, "my_list", echo.Map{"Title": "My list", "Favorites": favs, "Bookings": bookings})
}
