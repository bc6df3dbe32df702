package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// FavoriteState is the outcome of a toggle.
type FavoriteState bool

const (
	NotFavorited FavoriteState = false
	Favorited    FavoriteState = true
)

func (s FavoriteState) String() string {
	if s {
		return "favorited"
	}
	return "not favorited"
}

// SocialService manages favorites and the friendship graph.
type SocialService struct {
	Users     *repository.UserRepo
	Movies    *repository.MovieRepo
	Favorites *repository.FavoriteRepo
	Friends   *repository.FriendshipRepo
}

func NewSocialService(users *repository.UserRepo, movies *repository.MovieRepo,
	favorites *repository.FavoriteRepo, friends *repository.FriendshipRepo) *SocialService {
	return &SocialService{Users: users, Movies: movies, Favorites: favorites, Friends: friends}
}

// ToggleFavorite flips the favorite pair for (user, movie) and returns the
// new state. Two calls in a row restore the original state.
func (s *SocialService) ToggleFavorite(ctx context.Context, userID, movieID uint64) (FavoriteState, error) {
	var state FavoriteState
	err := repository.WithTx(ctx, s.Favorites.DB(), func(tx *sql.Tx) error {
		ok, err := s.Movies.ExistsTx(ctx, tx, movieID)
		if err != nil {
			return fmt.Errorf("check movie: %w", err)
		}
		if !ok {
			return ErrNotFound
		}
		removed, err := s.Favorites.DeleteTx(ctx, tx, userID, movieID)
		if err != nil {
			return fmt.Errorf("delete favorite: %w", err)
		}
		if removed {
			state = NotFavorited
			return nil
		}
		if err := s.Favorites.InsertTx(ctx, tx, userID, movieID); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return fmt.Errorf("insert favorite: %w", err)
		}
		state = Favorited
		return nil
	})
	return state, err
}

// ListFavorites returns the user's favorite movies.
func (s *SocialService) ListFavorites(ctx context.Context, userID uint64) ([]model.Movie, error) {
	return s.Favorites.ListMoviesByUser(ctx, userID)
}

// IsFavorite reports whether the user favorited the movie.
func (s *SocialService) IsFavorite(ctx context.Context, userID, movieID uint64) (bool, error) {
	return s.Favorites.Exists(ctx, userID, movieID)
}

// AddFriend records the directed edge user1 -> user2. Adding an existing
// edge succeeds without change.
func (s *SocialService) AddFriend(ctx context.Context, user1, user2 uint64) error {
	if user1 == user2 {
		return invalid("friend", "cannot add yourself as a friend")
	}
	for _, id := range []uint64{user1, user2} {
		if _, err := s.Users.GetByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load user: %w", err)
		}
	}
	return s.Friends.Add(ctx, user1, user2)
}

// RemoveFriend deletes the edge user1 -> user2. Removing a missing edge
// returns ErrNotFound.
func (s *SocialService) RemoveFriend(ctx context.Context, user1, user2 uint64) error {
	ok, err := s.Friends.Remove(ctx, user1, user2)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// ListFriends returns the users the given user has added.
func (s *SocialService) ListFriends(ctx context.Context, userID uint64) ([]model.User, error) {
	return s.Friends.ListFriends(ctx, userID)
}

// AreFriends reports whether the edge a -> b exists. The relation is not
// symmetric.
func (s *SocialService) AreFriends(ctx context.Context, a, b uint64) (bool, error) {
	return s.Friends.Exists(ctx, a, b)
}
