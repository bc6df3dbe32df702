// Package router wires handlers, middleware and services into an echo
// instance.
package router

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/service"
	"github.com/iliyamo/cinema-booking/internal/view"
)

// Deps are the collaborators the server is built from. Redis and Events
// are optional.
type Deps struct {
	Cfg       config.Config
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	DB        *sql.DB
	Redis     *redis.Client
	Events    service.EventPublisher
	Log       *logrus.Logger
}

// Services groups the business services built by New so callers (tests,
// the seed tool) can reach them.
type Services struct {
	Auth     *service.AuthService
	Bookings *service.BookingService
	Social   *service.SocialService
	Catalog  *service.CatalogService
	Reviews  *service.ReviewService
	Admin    *service.AdminService
}

// NewServices builds repositories and services over db.
func NewServices(d Deps) *Services {
	var (
		users      = repository.NewUserRepo(d.DB)
		sessions   = repository.NewSessionRepo(d.DB)
		movies     = repository.NewMovieRepo(d.DB)
		cinemas    = repository.NewCinemaRepo(d.DB)
		screenings = repository.NewScreeningRepo(d.DB)
		seats      = repository.NewSeatRepo(d.DB)
		bookings   = repository.NewBookingRepo(d.DB)
		reviews    = repository.NewReviewRepo(d.DB)
		favorites  = repository.NewFavoriteRepo(d.DB)
		friends    = repository.NewFriendshipRepo(d.DB)
	)
	return &Services{
		Auth:     service.NewAuthService(d.Cfg, users, sessions, d.Log),
		Bookings: service.NewBookingService(d.DB, screenings, seats, bookings, d.Events, d.Log),
		Social:   service.NewSocialService(users, movies, favorites, friends),
		Catalog:  service.NewCatalogService(movies, cinemas, screenings, seats, bookings, reviews),
		Reviews:  service.NewReviewService(movies, reviews),
		Admin:    service.NewAdminService(movies, d.Log),
	}
}

// New builds the echo instance with every route registered.
func New(d Deps) (*echo.Echo, *Services, error) {
	r, err := view.New()
	if err != nil {
		return nil, nil, err
	}
	svc := NewServices(d)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = r
	e.HTTPErrorHandler = errorHandler(d.Log)

	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.Recover())
	e.Use(middleware.NewTokenBucket(d.RateLimit, d.Redis, svc.Auth, d.Log))
	e.Use(middleware.LoadSession(svc.Auth))

	Register(e, d, svc)
	return e, svc, nil
}

// Register adds the route table to e.
func Register(e *echo.Echo, d Deps, svc *Services) {
	browse := handler.NewBrowseHandler(svc.Catalog, svc.Social, d.Log)
	auth := handler.NewAuthHandler(svc.Auth, d.Cfg.CookieSecure, d.Log)
	booking := handler.NewBookingHandler(svc.Catalog, svc.Bookings, d.Log)
	social := handler.NewSocialHandler(svc.Social, svc.Catalog, d.Log)
	review := handler.NewReviewHandler(svc.Reviews, browse, d.Log)
	admin := handler.NewAdminHandler(svc.Catalog, svc.Admin, d.Log)

	e.GET("/healthz", handler.Health(d.DB))

	cache := middleware.NewRedisCache(d.Cache, d.Redis, d.Log)
	e.GET("/", browse.Home, cache)
	e.GET("/movie/:id", browse.Movie, cache)
	e.GET("/movies/showing", browse.ShowingMovies, cache)
	e.GET("/movies/top-rated", browse.TopRated, cache)
	e.GET("/movies/most-commented", browse.MostCommented, cache)
	e.GET("/cinemas", browse.Cinemas, cache)
	e.GET("/cinema/:id/screenings", browse.CinemaScreenings, cache)
	e.GET("/search", browse.Search, cache)

	e.GET("/register", auth.RegisterForm)
	e.POST("/register", auth.Register)
	e.GET("/login", auth.LoginForm)
	e.POST("/login", auth.Login)

	// Guards are per route; an empty-prefix group would also guard unknown paths.
	requireUser := middleware.RequireSession()
	e.GET("/logout", auth.Logout, requireUser)
	e.GET("/book/:screening_id", booking.Form, requireUser)
	e.POST("/book/:screening_id", booking.Submit, requireUser)
	e.POST("/favorite/:movie_id", social.ToggleFavorite, requireUser)
	e.POST("/movie/:id/review", review.Add, requireUser)
	e.GET("/my-list", social.MyList, requireUser)

	requireAdmin := middleware.RequireRole(model.RoleAdmin)
	e.GET("/admin", admin.Overview, requireAdmin)
	e.GET("/insert", admin.InsertForm, requireAdmin)
	e.POST("/insert", admin.Insert, requireAdmin)
	e.GET("/update", admin.UpdateForm, requireAdmin)
	e.POST("/update", admin.Update, requireAdmin)
	e.POST("/delete", admin.Delete, requireAdmin)
}

// errorHandler renders echo errors (unknown routes, bad methods, panics
// caught by Recover) as plain pages and logs server-side failures.
func errorHandler(log *logrus.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		msg := "Something went wrong."
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			msg = http.StatusText(status)
		}
		if status >= 500 {
			log.WithError(err).WithField("path", c.Request().URL.Path).Error("unhandled error")
		}
		if rerr := c.Render(status, "error", echo.Map{"Status": status, "Message": msg, "Query": ""}); rerr != nil {
			_ = c.String(status, msg)
		}
	}
}
