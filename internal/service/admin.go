package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// MovieInput carries the editable fields of a movie. Length bounds follow
// the movies table.
type MovieInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Genre       string `json:"genre" validate:"max=100"`
	ReleaseDate string `json:"release_date" validate:"max=50"`
	PosterURL   string `json:"poster_url" validate:"max=300"`
	IsCurrent   bool   `json:"is_current"`
}

func (in *MovieInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Genre = strings.TrimSpace(in.Genre)
	in.ReleaseDate = strings.TrimSpace(in.ReleaseDate)
	in.PosterURL = strings.TrimSpace(in.PosterURL)
	return check(in)
}

func (in MovieInput) apply(m *model.Movie) {
	m.Title = in.Title
	m.Description = in.Description
	m.Genre = in.Genre
	m.ReleaseDate = in.ReleaseDate
	m.PosterURL = in.PosterURL
	m.IsCurrent = in.IsCurrent
}

// AdminService edits the movie catalogue. Callers must have checked the
// ADMIN role.
type AdminService struct {
	Movies *repository.MovieRepo
	Log    *logrus.Logger
}

func NewAdminService(movies *repository.MovieRepo, log *logrus.Logger) *AdminService {
	return &AdminService{Movies: movies, Log: log}
}

// CreateMovie validates and inserts a movie.
func (s *AdminService) CreateMovie(ctx context.Context, in MovieInput) (*model.Movie, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var m model.Movie
	in.apply(&m)
	if err := s.Movies.Create(ctx, &m); err != nil {
		return nil, fmt.Errorf("insert movie: %w", err)
	}
	s.Log.WithFields(logrus.Fields{"movie_id": m.ID, "title": m.Title}).Info("movie created")
	return &m, nil
}

// UpdateMovie overwrites the editable fields of a movie.
func (s *AdminService) UpdateMovie(ctx context.Context, id uint64, in MovieInput) (*model.Movie, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	m := model.Movie{ID: id}
	in.apply(&m)
	if err := s.Movies.Update(ctx, &m); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update movie: %w", err)
	}
	s.Log.WithField("movie_id", id).Info("movie updated")
	return s.GetMovie(ctx, id)
}

// DeleteMovie removes a movie with everything that references it.
func (s *AdminService) DeleteMovie(ctx context.Context, id uint64) error {
	if err := s.Movies.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete movie: %w", err)
	}
	s.Log.WithField("movie_id", id).Info("movie deleted")
	return nil
}

// GetMovie loads a movie for the edit form.
func (s *AdminService) GetMovie(ctx context.Context, id uint64) (*model.Movie, error) {
	m, err := s.Movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}
