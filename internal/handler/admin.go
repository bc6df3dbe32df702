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

// AdminHandler serves the admin overview and movie editing. Routes are
// guarded by RequireRole("ADMIN").
type AdminHandler struct {
	Catalog *service.CatalogService
	Admin   *service.AdminService
	Log     *logrus.Logger
}

func NewAdminHandler(catalog *service.CatalogService, admin *service.AdminService, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{Catalog: catalog, Admin: admin, Log: log}
}

type movieForm struct {
	ID          uint64 `form:"id" json:"id"`
	Title       string `form:"title" json:"title"`
	Description string `form:"description" json:"description"`
	Genre       string `form:"genre" json:"genre"`
	ReleaseDate string `form:"release_date" json:"release_date"`
	PosterURL   string `form:"poster_url" json:"poster_url"`
	IsCurrent   bool   `form:"is_current" json:"is_current"`
}

func (f movieForm) input() service.MovieInput {
	return service.MovieInput{
		Title:       f.Title,
		Description: f.Description,
		Genre:       f.Genre,
		ReleaseDate: f.ReleaseDate,
		PosterURL:   f.PosterURL,
		IsCurrent:   f.IsCurrent,
	}
}

// Overview lists every cinema with its current movies.
func (h *AdminHandler) Overview(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	list, err := h.Catalog.AdminOverview(ctx)
	if err != nil {
		return failure(c, h.Log, err)
	}
	return render(c, http.StatusOK, "admin", echo.Map{"Title": "Admin", "Overview": list})
}

func (h *AdminHandler) form(c echo.Context, status int, title, action string, f movieForm, msg string) error {
	return render(c, status, "movie_form", echo.Map{"Title": title, "Action": action, "Form": f, "Error": msg})
}

// InsertForm shows an empty movie form.
func (h *AdminHandler) InsertForm(c echo.Context) error {
	return h.form(c, http.StatusOK, "Add movie", "/insert", movieForm{IsCurrent: true}, "")
}

// Insert creates a movie.
func (h *AdminHandler) Insert(c echo.Context) error {
	var f movieForm
	if err := c.Bind(&f); err != nil {
		return errorPage(c, http.StatusBadRequest, "invalid form")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	m, err := h.Admin.CreateMovie(ctx, f.input())
	if err != nil {
		if status, ok := formStatus(err); ok {
			return h.form(c, status, "Add movie", "/insert", f, formMessage(err))
		}
		return failure(c, h.Log, err)
	}
	view.SetFlash(c, view.FlashSuccess, "Movie added.")
	return c.Redirect(http.StatusSeeOther, "/movie/"+strconv.FormatUint(m.ID, 10))
}

// UpdateForm shows the edit form for ?id=.
func (h *AdminHandler) UpdateForm(c echo.Context) error {
	id, err := strconv.ParseUint(c.QueryParam("id"), 10, 64)
	if err != nil || id == 0 {
		return errorPage(c, http.StatusNotFound, "Movie not found.")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	m, err := h.Admin.GetMovie(ctx, id)
	if err != nil {
		return failure(c, h.Log, err)
	}
	f := movieForm{ID: m.ID, Title: m.Title, Description: m.Description, Genre: m.Genre,
		ReleaseDate: m.ReleaseDate, PosterURL: m.PosterURL, IsCurrent: m.IsCurrent}
	return h.form(c, http.StatusOK, "Edit movie", "/update", f, "")
}

// Update saves the edit form.
func (h *AdminHandler) Update(c echo.Context) error {
	var f movieForm
	if err := c.Bind(&f); err != nil || f.ID == 0 {
		return errorPage(c, http.StatusBadRequest, "invalid form")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if _, err := h.Admin.UpdateMovie(ctx, f.ID, f.input()); err != nil {
		if status, ok := formStatus(err); ok {
			return h.form(c, status, "Edit movie", "/update", f, formMessage(err))
		}
		return failure(c, h.Log, err)
	}
	view.SetFlash(c, view.FlashSuccess, "Movie updated.")
	return c.Redirect(http.StatusSeeOther, "/movie/"+strconv.FormatUint(f.ID, 10))
}

// Delete removes the movie given by the id form field.
func (h *AdminHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.FormValue("id"), 10, 64)
	if err != nil || id == 0 {
		return errorPage(c, http.StatusBadRequest, "invalid form")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Admin.DeleteMovie(ctx, id); err != nil {
		return failure(c, h.Log, err)
	}
	view.SetFlash(c, view.FlashSuccess, "Movie deleted.")
	return c.Redirect(http.StatusSeeOther, "/admin")
}
