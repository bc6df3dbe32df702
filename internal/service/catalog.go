package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

const (
	// HomeListSize is the number of movies in each home page section.
	HomeListSize = 6
	// PageSize is the number of movies per page on paginated listings.
	PageSize = 12
)

// CatalogService answers the read-only queries behind the public pages.
type CatalogService struct {
	Movies     *repository.MovieRepo
	Cinemas    *repository.CinemaRepo
	Screenings *repository.ScreeningRepo
	Seats      *repository.SeatRepo
	Bookings   *repository.BookingRepo
	Reviews    *repository.ReviewRepo
}

func NewCatalogService(movies *repository.MovieRepo, cinemas *repository.CinemaRepo, screenings *repository.ScreeningRepo,
	seats *repository.SeatRepo, bookings *repository.BookingRepo, reviews *repository.ReviewRepo) *CatalogService {
	return &CatalogService{Movies: movies, Cinemas: cinemas, Screenings: screenings, Seats: seats, Bookings: bookings, Reviews: reviews}
}

// Home holds the three sections of the home page.
type Home struct {
	Current       []model.Movie
	TopRated      []model.Movie
	MostCommented []model.Movie
}

// MoviePage is one page of a movie listing.
type MoviePage struct {
	Items      []model.Movie
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
}

func (p MoviePage) HasPrev() bool { return p.Page > 1 }
func (p MoviePage) HasNext() bool { return p.Page < p.TotalPages }
func (p MoviePage) PrevPage() int { return p.Page - 1 }
func (p MoviePage) NextPage() int { return p.Page + 1 }

// MovieDetail is a movie with its screenings and reviews.
type MovieDetail struct {
	Movie      model.Movie
	Screenings []model.Screening
	Reviews    []model.Review
}

// CinemaDetail is a cinema with its screenings.
type CinemaDetail struct {
	Cinema     model.Cinema
	Screenings []model.Screening
}

// BookingView is what the booking form needs: the screening and its seats
// with derived availability.
type BookingView struct {
	Screening model.Screening
	Seats     []model.Seat
}

// HomeListing returns the current, top-rated and most-commented sections.
func (s *CatalogService) HomeListing(ctx context.Context) (*Home, error) {
	var h Home
	var err error
	if h.Current, err = s.Movies.ListCurrent(ctx, repository.OrderNewest, HomeListSize, 0); err != nil {
		return nil, fmt.Errorf("list current: %w", err)
	}
	if h.TopRated, err = s.Movies.List(ctx, repository.OrderRating, HomeListSize, 0); err != nil {
		return nil, fmt.Errorf("list top rated: %w", err)
	}
	if h.MostCommented, err = s.Movies.List(ctx, repository.OrderComments, HomeListSize, 0); err != nil {
		return nil, fmt.Errorf("list most commented: %w", err)
	}
	return &h, nil
}

// ShowingMovies pages through current movies, newest first.
func (s *CatalogService) ShowingMovies(ctx context.Context, page int) (*MoviePage, error) {
	total, err := s.Movies.CountCurrent(ctx)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, page, total, func(limit, offset int) ([]model.Movie, error) {
		return s.Movies.ListCurrent(ctx, repository.OrderNewest, limit, offset)
	})
}

// TopRated pages through all movies by average rate, highest first.
func (s *CatalogService) TopRated(ctx context.Context, page int) (*MoviePage, error) {
	return s.allOrdered(ctx, page, repository.OrderRating)
}

// MostCommented pages through all movies by review count, highest first.
func (s *CatalogService) MostCommented(ctx context.Context, page int) (*MoviePage, error) {
	return s.allOrdered(ctx, page, repository.OrderComments)
}

func (s *CatalogService) allOrdered(ctx context.Context, page int, order repository.MovieOrder) (*MoviePage, error) {
	total, err := s.Movies.Count(ctx)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, page, total, func(limit, offset int) ([]model.Movie, error) {
		return s.Movies.List(ctx, order, limit, offset)
	})
}

func (s *CatalogService) page(_ context.Context, page int, total int64, fetch func(limit, offset int) ([]model.Movie, error)) (*MoviePage, error) {
	pages := int((total + PageSize - 1) / PageSize)
	if pages < 1 {
		pages = 1
	}
	// Pages past the end show the last page.
	page = max(1, min(page, pages))
	items, err := fetch(PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, err
	}
	return &MoviePage{Items: items, Page: page, PageSize: PageSize, Total: total, TotalPages: pages}, nil
}

// MovieDetail loads a movie with its screenings and reviews.
func (s *CatalogService) MovieDetail(ctx context.Context, id uint64) (*MovieDetail, error) {
	m, err := s.Movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	d := &MovieDetail{Movie: *m}
	if d.Screenings, err = s.Screenings.ListByMovie(ctx, id); err != nil {
		return nil, fmt.Errorf("list screenings: %w", err)
	}
	if d.Reviews, err = s.Reviews.ListByMovie(ctx, id); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return d, nil
}

// CinemaScreenings loads a cinema with its screenings.
func (s *CatalogService) CinemaScreenings(ctx context.Context, id uint64) (*CinemaDetail, error) {
	c, err := s.Cinemas.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCinemaNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	list, err := s.Screenings.ListByCinema(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list screenings: %w", err)
	}
	return &CinemaDetail{Cinema: *c, Screenings: list}, nil
}

// Search matches movie titles containing query, ignoring case. A blank
// query returns no movies.
func (s *CatalogService) Search(ctx context.Context, query string) ([]model.Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Movie{}, nil
	}
	return s.Movies.SearchByTitle(ctx, query)
}

// ListCinemas returns every cinema.
func (s *CatalogService) ListCinemas(ctx context.Context) ([]model.Cinema, error) {
	return s.Cinemas.ListAll(ctx)
}

// AdminOverview lists every cinema with the distinct current movies that
// have a screening there. Cinemas without screenings are included with no
// movies.
func (s *CatalogService) AdminOverview(ctx context.Context) ([]model.CinemaMovies, error) {
	cinemas, err := s.Cinemas.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	byCinema, err := s.Movies.CurrentByCinema(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.CinemaMovies, 0, len(cinemas))
	for _, c := range cinemas {
		movies := byCinema[c.ID]
		if movies == nil {
			movies = []model.Movie{}
		}
		out = append(out, model.CinemaMovies{Cinema: c, Movies: movies})
	}
	return out, nil
}

// BookingContext loads a screening and its seats for the booking form.
func (s *CatalogService) BookingContext(ctx context.Context, screeningID uint64) (*BookingView, error) {
	sc, err := s.Screenings.GetByID(ctx, screeningID)
	if err != nil {
		if errors.Is(err, repository.ErrScreeningNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	seats, err := s.Seats.ListForScreening(ctx, screeningID)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	return &BookingView{Screening: *sc, Seats: seats}, nil
}

// ListUserBookings returns the user's bookings with screening details.
func (s *CatalogService) ListUserBookings(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	return s.Bookings.ListByUser(ctx, userID)
}
