package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/testutil"
)

func titles(ms []model.Movie) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Title)
	}
	return out
}

func TestMovieRatingComputedFromReviews(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	repo := repository.NewMovieRepo(db)

	alice := testutil.User(t, db, "alice", model.RoleUser)
	bob := testutil.User(t, db, "bob", model.RoleUser)
	dune := testutil.Movie(t, db, "Dune", true)
	heat := testutil.Movie(t, db, "Heat", true)
	testutil.Review(t, db, alice, dune, 4)
	testutil.Review(t, db, bob, dune, 5)

	got, err := repo.GetByID(ctx, dune.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, got.Rating, 0.001)
	assert.EqualValues(t, 2, got.CommentsCount)
	assert.True(t, got.IsCurrent)

	got, err = repo.GetByID(ctx, heat.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Rating)
	assert.Zero(t, got.CommentsCount)

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, repository.ErrMovieNotFound)
}

func TestMovieListOrdering(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	repo := repository.NewMovieRepo(db)

	u1 := testutil.User(t, db, "u1", model.RoleUser)
	u2 := testutil.User(t, db, "u2", model.RoleUser)
	a := testutil.Movie(t, db, "Alpha", true)
	b := testutil.Movie(t, db, "Bravo", true)
	testutil.Movie(t, db, "Charlie", false)
	testutil.Review(t, db, u1, a, 2)
	testutil.Review(t, db, u2, a, 2)
	testutil.Review(t, db, u1, b, 5)

	newest, err := repo.ListCurrent(ctx, repository.OrderNewest, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bravo", "Alpha"}, titles(newest))

	rated, err := repo.List(ctx, repository.OrderRating, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bravo", "Alpha", "Charlie"}, titles(rated))

	commented, err := repo.List(ctx, repository.OrderComments, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Bravo", "Charlie"}, titles(commented))

	page, err := repo.List(ctx, repository.OrderNewest, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bravo"}, titles(page))

	n, err := repo.CountCurrent(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestMovieUpdateAndDelete(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	repo := repository.NewMovieRepo(db)

	m := testutil.Movie(t, db, "Draft", true)
	m.Title = "Final"
	m.IsCurrent = false
	require.NoError(t, repo.Update(ctx, m))

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title)
	assert.False(t, got.IsCurrent)

	require.NoError(t, repo.Delete(ctx, m.ID))
	assert.ErrorIs(t, repo.Delete(ctx, m.ID), repository.ErrMovieNotFound)
	assert.ErrorIs(t, repo.Update(ctx, m), repository.ErrMovieNotFound)
}

func TestCurrentByCinema(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repository.NewMovieRepo(db)
	start := time.Now().Add(24 * time.Hour)

	c1, h1 := testutil.Venue(t, db, "North")
	c2, h2 := testutil.Venue(t, db, "South")
	zed := testutil.Movie(t, db, "Zed", true)
	abe := testutil.Movie(t, db, "Abe", true)
	old := testutil.Movie(t, db, "Old", false)
	testutil.Screening(t, db, zed, h1, start)
	testutil.Screening(t, db, zed, h1, start.Add(3*time.Hour))
	testutil.Screening(t, db, abe, h1, start)
	testutil.Screening(t, db, old, h2, start)

	byCinema, err := repo.CurrentByCinema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Abe", "Zed"}, titles(byCinema[c1.ID]))
	assert.Empty(t, byCinema[c2.ID])
}

func TestSearchByTitle(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	repo := repository.NewMovieRepo(db)

	testutil.Movie(t, db, "The Matrix", true)
	testutil.Movie(t, db, "Matrix Reloaded", false)
	testutil.Movie(t, db, "100% Love", true)
	testutil.Movie(t, db, "Heat", true)

	got, err := repo.SearchByTitle(ctx, "MATRIX")
	require.NoError(t, err)
	assert.Equal(t, []string{"Matrix Reloaded", "The Matrix"}, titles(got))

	got, err = repo.SearchByTitle(ctx, "%")
	require.NoError(t, err)
	assert.Equal(t, []string{"100% Love"}, titles(got))

	got, err = repo.SearchByTitle(ctx, "_eat")
	require.NoError(t, err)
	assert.Empty(t, got)
}
