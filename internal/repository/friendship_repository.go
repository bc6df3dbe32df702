package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// ErrSelfFriendship is returned when a user tries to befriend themselves.
var ErrSelfFriendship = errors.New("cannot add self as friend")

// FriendshipRepo manages directed edges user1 -> user2 in user_friends.
// No mirrored edge is ever written.
type FriendshipRepo struct {
	db *sql.DB
}

func NewFriendshipRepo(db *sql.DB) *FriendshipRepo { return &FriendshipRepo{db: db} }

// Add inserts the edge. Adding an existing edge is a no-op.
func (r *FriendshipRepo) Add(ctx context.Context, user1, user2 uint64) error {
	if user1 == user2 {
		return ErrSelfFriendship
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_friends (user1_id, user2_id, created_at) VALUES (?, ?, ?)`,
		user1, user2, time.Now().UTC().Truncate(time.Second))
	if isDuplicate(err) {
		return nil
	}
	return err
}

// Remove deletes the edge and reports whether it existed.
func (r *FriendshipRepo) Remove(ctx context.Context, user1, user2 uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM user_friends WHERE user1_id = ? AND user2_id = ?`, user1, user2)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Exists reports whether the edge user1 -> user2 exists.
func (r *FriendshipRepo) Exists(ctx context.Context, user1, user2 uint64) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_friends WHERE user1_id = ? AND user2_id = ?`,
		user1, user2).Scan(&n)
	return n > 0, err
}

// ListFriends returns the users the given user points to, ordered by
// username.
func (r *FriendshipRepo) ListFriends(ctx context.Context, userID uint64) ([]model.User, error) {
	const q = `SELECT u.id, u.username, u.email, u.role, u.created_at
	           FROM user_friends f
	           JOIN users u ON u.id = f.user2_id
	           WHERE f.user1_id = ?
	           ORDER BY u.username`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
