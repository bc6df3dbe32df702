package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/testutil"
)

func TestHallsByCinema(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	halls := repository.NewHallRepo(db)

	cinema, a1 := testutil.Venue(t, db, "Grand")
	b1 := &model.Hall{CinemaID: cinema.ID, Name: "B1", Size: 32}
	require.NoError(t, halls.Create(ctx, b1))
	other, _ := testutil.Venue(t, db, "Other")

	got, err := halls.GetByID(ctx, b1.ID)
	require.NoError(t, err)
	assert.Equal(t, "B1", got.Name)
	assert.Equal(t, cinema.ID, got.CinemaID)
	assert.Equal(t, 32, int(got.Size))

	_, err = halls.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, repository.ErrHallNotFound)

	list, err := halls.ListByCinema(ctx, cinema.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a1.ID, list[0].ID)
	assert.Equal(t, b1.ID, list[1].ID)

	list, err = halls.ListByCinema(ctx, other.ID+100)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCinemaLookups(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	cinemas := repository.NewCinemaRepo(db)

	first, _ := testutil.Venue(t, db, "Grand")
	testutil.Venue(t, db, "Arcade")

	got, err := cinemas.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grand", got.Name)

	_, err = cinemas.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, repository.ErrCinemaNotFound)

	all, err := cinemas.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
