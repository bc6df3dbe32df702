package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/testutil"
)

func TestBookingUniquePerSeat(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	repo := repository.NewBookingRepo(db)

	alice := testutil.User(t, db, "alice", model.RoleUser)
	bob := testutil.User(t, db, "bob", model.RoleUser)
	movie := testutil.Movie(t, db, "Dune", true)
	_, hall := testutil.Venue(t, db, "Grand")
	sc := testutil.Screening(t, db, movie, hall, time.Now().Add(time.Hour))

	first := &model.Booking{UserID: alice.ID, ScreeningID: sc.ID, SeatNumber: "A5"}
	require.NoError(t, repository.WithTx(ctx, db, func(tx *sql.Tx) error {
		return repo.CreateTx(ctx, tx, first)
	}))
	assert.NotZero(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	err := repository.WithTx(ctx, db, func(tx *sql.Tx) error {
		return repo.CreateTx(ctx, tx, &model.Booking{UserID: bob.ID, ScreeningID: sc.ID, SeatNumber: "A5"})
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	require.NoError(t, repository.WithTx(ctx, db, func(tx *sql.Tx) error {
		exists, err := repo.ExistsTx(ctx, tx, sc.ID, "A5")
		assert.True(t, exists)
		return err
	}))

	n, err := repo.CountForScreening(ctx, sc.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	list, err := repo.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "A5", list[0].SeatNumber)
	assert.Equal(t, "Dune", list[0].Screening.MovieTitle)
	assert.Equal(t, "Grand", list[0].Screening.CinemaName)
	assert.Equal(t, "A1", list[0].Screening.HallName)

	list, err = repo.ListByUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	repo := repository.NewBookingRepo(db)

	alice := testutil.User(t, db, "alice", model.RoleUser)
	movie := testutil.Movie(t, db, "Dune", true)
	_, hall := testutil.Venue(t, db, "Grand")
	sc := testutil.Screening(t, db, movie, hall, time.Now())

	boom := assert.AnError
	err := repository.WithTx(ctx, db, func(tx *sql.Tx) error {
		if err := repo.CreateTx(ctx, tx, &model.Booking{UserID: alice.ID, ScreeningID: sc.ID, SeatNumber: "B1"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := repo.CountForScreening(ctx, sc.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSeatsAvailabilityDerivedFromBookings(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	seats := repository.NewSeatRepo(db)

	alice := testutil.User(t, db, "alice", model.RoleUser)
	movie := testutil.Movie(t, db, "Dune", true)
	_, hall := testutil.Venue(t, db, "Grand")
	sc := testutil.Screening(t, db, movie, hall, time.Now(), "A10", "a2", "A1")

	require.NoError(t, repository.WithTx(ctx, db, func(tx *sql.Tx) error {
		return repository.NewBookingRepo(db).CreateTx(ctx, tx,
			&model.Booking{UserID: alice.ID, ScreeningID: sc.ID, SeatNumber: "A2"})
	}))

	list, err := seats.ListForScreening(ctx, sc.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "A1", list[0].SeatNumber)
	assert.True(t, list[0].IsAvailable)
	assert.Equal(t, "A2", list[1].SeatNumber)
	assert.False(t, list[1].IsAvailable)
	assert.Equal(t, "A10", list[2].SeatNumber)

	assert.ErrorIs(t, seats.CreateBulk(ctx, sc.ID, []string{"A1"}), repository.ErrDuplicate)

	require.NoError(t, repository.WithTx(ctx, db, func(tx *sql.Tx) error {
		n, err := seats.CountForScreeningTx(ctx, tx, sc.ID)
		assert.EqualValues(t, 3, n)
		if err != nil {
			return err
		}
		ok, err := seats.ExistsTx(ctx, tx, sc.ID, "A10")
		assert.True(t, ok)
		return err
	}))
}

func TestScreeningLookups(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	repo := repository.NewScreeningRepo(db)

	movie := testutil.Movie(t, db, "Dune", true)
	cinema, hall := testutil.Venue(t, db, "Grand")
	start := time.Date(2030, 1, 2, 18, 30, 0, 0, time.UTC)
	late := testutil.Screening(t, db, movie, hall, start.Add(2*time.Hour))
	early := testutil.Screening(t, db, movie, hall, start)

	got, err := repo.GetByID(ctx, early.ID)
	require.NoError(t, err)
	assert.True(t, start.Equal(got.StartsAt))
	assert.Equal(t, "Dune", got.MovieTitle)
	assert.Equal(t, "Grand", got.CinemaName)
	assert.EqualValues(t, 1250, got.PriceCents)

	_, err = repo.GetByID(ctx, 777)
	assert.ErrorIs(t, err, repository.ErrScreeningNotFound)

	byMovie, err := repo.ListByMovie(ctx, movie.ID)
	require.NoError(t, err)
	require.Len(t, byMovie, 2)
	assert.Equal(t, early.ID, byMovie[0].ID)
	assert.Equal(t, late.ID, byMovie[1].ID)

	byCinema, err := repo.ListByCinema(ctx, cinema.ID)
	require.NoError(t, err)
	assert.Len(t, byCinema, 2)
}
