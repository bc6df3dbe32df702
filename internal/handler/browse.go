package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/service"
)

// BrowseHandler serves the public catalog pages.
type BrowseHandler struct {
	Catalog *service.CatalogService
	Social  *service.SocialService
	Log     *logrus.Logger
}

func NewBrowseHandler(catalog *service.CatalogService, social *service.SocialService, log *logrus.Logger) *BrowseHandler {
	return &BrowseHandler{Catalog: catalog, Social: social, Log: log}
}

// Home lists current, top-rated and most-commented movies.
func (h *BrowseHandler) Home(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	home, err := h.Catalog.HomeListing(ctx)
	if err != nil {
		return failure(c, h.Log, err)
	}
	return render(c, http.StatusOK, "home", echo.Map{"Home": home})
}

// Movie shows a movie with its screenings and reviews.
func (h *BrowseHandler) Movie(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return errorPage(c, http.StatusNotFound, "Movie not found.")
	}
	data, err := h.movieData(c, id)
	if err != nil {
		return failure(c, h.Log, err)
	}
	return render(c, http.StatusOK, "movie", data)
}

// movieData gathers what the movie page renders. It is shared with the
// review handler, which re-renders the page on invalid input.
func (h *BrowseHandler) movieData(c echo.Context, id uint64) (echo.Map, error) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	d, err := h.Catalog.MovieDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	fav := false
	if u := middleware.CurrentUser(c); u != nil {
		if fav, err = h.Social.IsFavorite(ctx, u.ID, id); err != nil {
			return nil, err
		}
	}
	return echo.Map{"Title": d.Movie.Title, "Detail": d, "IsFavorite": fav}, nil
}

func (h *BrowseHandler) listing(c echo.Context, title, base string, fetch func(context.Context, int) (*service.MoviePage, error)) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	p, err := fetch(ctx, pageParam(c))
	if err != nil {
		return failure(c, h.Log, err)
	}
	return render(c, http.StatusOK, "movies", echo.Map{"Title": title, "Page": p, "BasePath": base})
}

// ShowingMovies pages through current movies.
func (h *BrowseHandler) ShowingMovies(c echo.Context) error {
	return h.listing(c, "Now showing", "/movies/showing", h.Catalog.ShowingMovies)
}

// TopRated pages through movies by rating.
func (h *BrowseHandler) TopRated(c echo.Context) error {
	return h.listing(c, "Top rated", "/movies/top-rated", h.Catalog.TopRated)
}

// MostCommented pages through movies by review count.
func (h *BrowseHandler) MostCommented(c echo.Context) error {
	return h.listing(c, "Most commented", "/movies/most-commented", h.Catalog.MostCommented)
}

// Cinemas lists every cinema.
func (h *BrowseHandler) Cinemas(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	list, err := h.Catalog.ListCinemas(ctx)
	if err != nil {
		return failure(c, h.Log, err)
	}
	return render(c, http.StatusOK, "cinemas", echo.Map{"Title": "Cinemas", "Cinemas": list})
}

// CinemaScreenings lists the screenings of one cinema.
func (h *BrowseHandler) CinemaScreenings(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return errorPage(c, http.StatusNotFound, "Cinema not found.")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	d, err := h.Catalog.CinemaScreenings(ctx, id)
	if err != nil {
		return failure(c, h.Log, err)
	}
	return render(c, http.StatusOK, "cinema", echo.Map{"Title": d.Cinema.Name, "Detail": d})
}

// Search matches movie titles against ?query=.
func (h *BrowseHandler) Search(c echo.Context) error {
	q := c.QueryParam("query")
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	movies, err := h.Catalog.Search(ctx, q)
	if err != nil {
		return failure(c, h.Log, err)
	}
	return render(c, http.StatusOK, "search", echo.Map{"Title": "Search", "Query": q, "Movies": movies})
}
