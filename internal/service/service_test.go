package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/logger"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/service"
	"github.com/iliyamo/cinema-booking/internal/testutil"
)

// env wires every service over one in-memory database.
type env struct {
	db       *sql.DB
	auth     *service.AuthService
	bookings *service.BookingService
	social   *service.SocialService
	catalog  *service.CatalogService
	reviews  *service.ReviewService
	admin    *service.AdminService
	events   *recorder
}

type recorder struct {
	ch chan queue.BookingCreatedEvent
}

func (r *recorder) PublishBookingCreated(_ context.Context, ev queue.BookingCreatedEvent) error {
	r.ch <- ev
	return nil
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.OpenDB(t)
	log := logger.Discard()
	cfg := config.Config{
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
		BcryptCost:    4,
		AdminEmails:   []string{"Boss@Example.com"},
	}
	var (
		users      = repository.NewUserRepo(db)
		movies     = repository.NewMovieRepo(db)
		cinemas    = repository.NewCinemaRepo(db)
		screenings = repository.NewScreeningRepo(db)
		seats      = repository.NewSeatRepo(db)
		bookings   = repository.NewBookingRepo(db)
		reviews    = repository.NewReviewRepo(db)
	)
	rec := &recorder{ch: make(chan queue.BookingCreatedEvent, 64)}
	return &env{
		db:       db,
		auth:     service.NewAuthService(cfg, users, repository.NewSessionRepo(db), log),
		bookings: service.NewBookingService(db, screenings, seats, bookings, rec, log),
		social:   service.NewSocialService(users, movies, repository.NewFavoriteRepo(db), repository.NewFriendshipRepo(db)),
		catalog:  service.NewCatalogService(movies, cinemas, screenings, seats, bookings, reviews),
		reviews:  service.NewReviewService(movies, reviews),
		admin:    service.NewAdminService(movies, log),
		events:   rec,
	}
}

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, service.IsValidation(err), "expected validation error, got %v", err)
	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, field, ve.Field)
}
