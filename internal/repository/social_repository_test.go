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
	"github.com/iliyamo/cinema-booking/internal/utils"
)

func TestFavorites(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	repo := repository.NewFavoriteRepo(db)

	alice := testutil.User(t, db, "alice", model.RoleUser)
	dune := testutil.Movie(t, db, "Dune", true)
	heat := testutil.Movie(t, db, "Heat", true)

	require.NoError(t, repository.WithTx(ctx, db, func(tx *sql.Tx) error {
		return repo.InsertTx(ctx, tx, alice.ID, dune.ID)
	}))
	err := repository.WithTx(ctx, db, func(tx *sql.Tx) error {
		return repo.InsertTx(ctx, tx, alice.ID, dune.ID)
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	ok, err := repo.Exists(ctx, alice.ID, dune.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := repo.FavoriteIDs(ctx, alice.ID, []uint64{dune.ID, heat.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint64]bool{dune.ID: true}, ids)

	movies, err := repo.ListMoviesByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune"}, titles(movies))

	require.NoError(t, repository.WithTx(ctx, db, func(tx *sql.Tx) error {
		deleted, err := repo.DeleteTx(ctx, tx, alice.ID, dune.ID)
		assert.True(t, deleted)
		if err != nil {
			return err
		}
		deleted, err = repo.DeleteTx(ctx, tx, alice.ID, dune.ID)
		assert.False(t, deleted)
		return err
	}))
}

func TestFriendshipsAreDirected(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	repo := repository.NewFriendshipRepo(db)

	alice := testutil.User(t, db, "alice", model.RoleUser)
	bob := testutil.User(t, db, "bob", model.RoleUser)

	assert.ErrorIs(t, repo.Add(ctx, alice.ID, alice.ID), repository.ErrSelfFriendship)
	require.NoError(t, repo.Add(ctx, alice.ID, bob.ID))
	require.NoError(t, repo.Add(ctx, alice.ID, bob.ID))

	ok, err := repo.Exists(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	friends, err := repo.ListFriends(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "bob", friends[0].Username)
	assert.Empty(t, friends[0].PasswordHash)

	removed, err := repo.Remove(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.Remove(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestUsersAndSessions(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)

	u := &model.User{Username: "carol", Email: "  Carol@Example.COM ", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, u))
	assert.Equal(t, "carol@example.com", u.Email)
	assert.Equal(t, model.RoleUser, u.Role)

	dup := &model.User{Username: "carol2", Email: "carol@example.com", PasswordHash: "x"}
	assert.ErrorIs(t, users.Create(ctx, dup), repository.ErrDuplicate)

	taken, err := users.ExistsByUsernameOrEmail(ctx, "nobody", "CAROL@example.com")
	require.NoError(t, err)
	assert.True(t, taken)

	got, err := users.GetByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	_, err = users.GetByEmail(ctx, "none@example.com")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	require.NoError(t, users.SetRole(ctx, u.ID, model.RoleAdmin))
	got, err = users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)

	hash := utils.HashToken("sid-1")
	require.NoError(t, sessions.Store(ctx, u.ID, hash, time.Now().Add(time.Hour)))
	id, err := sessions.Validate(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	require.NoError(t, sessions.RevokeByHash(ctx, hash))
	require.NoError(t, sessions.RevokeByHash(ctx, hash))
	_, err = sessions.Validate(ctx, hash)
	assert.ErrorIs(t, err, repository.ErrSessionInvalid)

	expired := utils.HashToken("sid-2")
	require.NoError(t, sessions.Store(ctx, u.ID, expired, time.Now().Add(-time.Minute)))
	_, err = sessions.Validate(ctx, expired)
	assert.ErrorIs(t, err, repository.ErrSessionInvalid)

	live := utils.HashToken("sid-3")
	require.NoError(t, sessions.Store(ctx, u.ID, live, time.Now().Add(time.Hour)))
	require.NoError(t, sessions.RevokeAllForUser(ctx, u.ID))
	_, err = sessions.Validate(ctx, live)
	assert.ErrorIs(t, err, repository.ErrSessionInvalid)
}
