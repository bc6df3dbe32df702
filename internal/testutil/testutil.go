// Package testutil opens throwaway SQLite databases with the full schema
// and inserts fixtures for tests.
package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

// OpenDB returns a migrated in-memory SQLite database closed at test end.
func OpenDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.SQLite))
	return db
}

// User inserts a user whose password is the username followed by "-pw".
func User(t testing.TB, db *sql.DB, username, role string) *model.User {
	t.Helper()
	hash, err := utils.HashPassword(username+"-pw", 4)
	require.NoError(t, err)
	u := &model.User{Username: username, Email: username + "@example.com", PasswordHash: hash, Role: role}
	require.NoError(t, repository.NewUserRepo(db).Create(context.Background(), u))
	return u
}

// Movie inserts a movie.
func Movie(t testing.TB, db *sql.DB, title string, current bool) *model.Movie {
	t.Helper()
	m := &model.Movie{Title: title, Genre: "Drama", IsCurrent: current}
	require.NoError(t, repository.NewMovieRepo(db).Create(context.Background(), m))
	return m
}

// Venue inserts a cinema with one hall.
func Venue(t testing.TB, db *sql.DB, name string) (*model.Cinema, *model.Hall) {
	t.Helper()
	ctx := context.Background()
	c := &model.Cinema{Name: name, Location: "Somewhere"}
	require.NoError(t, repository.NewCinemaRepo(db).Create(ctx, c))
	h := &model.Hall{CinemaID: c.ID, Name: "A1", Size: 50}
	require.NoError(t, repository.NewHallRepo(db).Create(ctx, h))
	return c, h
}

// Screening inserts a screening of movie in the hall starting at startsAt
// with the given seat labels. No labels means no seat scheme.
func Screening(t testing.TB, db *sql.DB, movie *model.Movie, hall *model.Hall, startsAt time.Time, seats ...string) *model.Screening {
	t.Helper()
	ctx := context.Background()
	sc := &model.Screening{MovieID: movie.ID, CinemaID: hall.CinemaID, HallID: hall.ID,
		StartsAt: startsAt.UTC().Truncate(time.Second), PriceCents: 1250}
	require.NoError(t, repository.NewScreeningRepo(db).Create(ctx, sc))
	require.NoError(t, repository.NewSeatRepo(db).CreateBulk(ctx, sc.ID, seats))
	return sc
}

// Review inserts a review.
func Review(t testing.TB, db *sql.DB, user *model.User, movie *model.Movie, rate float64) {
	t.Helper()
	rv := &model.Review{UserID: user.ID, MovieID: movie.ID, Content: "seen it", Rate: rate}
	require.NoError(t, repository.NewReviewRepo(db).Create(context.Background(), rv))
}
