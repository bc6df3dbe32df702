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

// ReviewHandler accepts reviews posted from the movie page.
type ReviewHandler struct {
	Reviews *service.ReviewService
	Browse  *BrowseHandler
	Log     *logrus.Logger
}

func NewReviewHandler(reviews *service.ReviewService, browse *BrowseHandler, log *logrus.Logger) *ReviewHandler {
	return &ReviewHandler{Reviews: reviews, Browse: browse, Log: log}
}

type reviewForm struct {
	Content string  `form:"content" json:"content"`
	Rate    float64 `form:"rate" json:"rate"`
}

// Add stores the review and returns to the movie page.
func (h *ReviewHandler) Add(c echo.Context) error {
	movieID, ok := parseID(c, "id")
	if !ok {
		return errorPage(c, http.StatusNotFound, "Movie not found.")
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}
	var f reviewForm
	if err := c.Bind(&f); err != nil {
		return errorPage(c, http.StatusBadRequest, "invalid form")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if _, err := h.Reviews.AddReview(ctx, uid, movieID, f.Content, f.Rate); err != nil {
		if service.IsValidation(err) {
			data, derr := h.Browse.movieData(c, movieID)
			if derr != nil {
				return failure(c, h.Log, derr)
			}
			data["Error"] = formMessage(err)
			return render(c, http.StatusBadRequest, "movie", data)
		}
		return failure(c, h.Log, err)
	}
	view.SetFlash(c, view.FlashSuccess, "Thanks for your review!")
	return c.Redirect(http.StatusSeeOther, "/movie/"+strconv.FormatUint(movieID, 10))
}
