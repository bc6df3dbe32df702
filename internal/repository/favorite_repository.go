package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// FavoriteRepo manages the user_favorites join table. A row's existence
// means the movie is favorited by the user.
type FavoriteRepo struct {
	db *sql.DB
}

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{db: db} }

// DB exposes the underlying handle for transaction control.
func (r *FavoriteRepo) DB() *sql.DB { return r.db }

// DeleteTx removes the pair and reports whether a row was deleted.
func (r *FavoriteRepo) DeleteTx(ctx context.Context, tx *sql.Tx, userID, movieID uint64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`DELETE FROM user_favorites WHERE user_id = ? AND movie_id = ?`, userID, movieID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// InsertTx adds the pair. An existing pair yields ErrDuplicate.
func (r *FavoriteRepo) InsertTx(ctx context.Context, tx *sql.Tx, userID, movieID uint64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO user_favorites (user_id, movie_id, created_at) VALUES (?, ?, ?)`,
		userID, movieID, time.Now().UTC().Truncate(time.Second))
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// Exists reports whether the user has favorited the movie.
func (r *FavoriteRepo) Exists(ctx context.Context, userID, movieID uint64) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_favorites WHERE user_id = ? AND movie_id = ?`,
		userID, movieID).Scan(&n)
	return n > 0, err
}

// ListMoviesByUser returns the user's favorite movies, most recently
// favorited first.
func (r *FavoriteRepo) ListMoviesByUser(ctx context.Context, userID uint64) ([]model.Movie, error) {
	q := movieSelect + `
		JOIN user_favorites f ON f.movie_id = m.id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC, m.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Movie, 0)
	for rows.Next() {
		var m model.Movie
		if err := scanMovie(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// FavoriteIDs returns the subset of movieIDs the user has favorited.
func (r *FavoriteRepo) FavoriteIDs(ctx context.Context, userID uint64, movieIDs []uint64) (map[uint64]bool, error) {
	out := make(map[uint64]bool, len(movieIDs))
	if len(movieIDs) == 0 {
		return out, nil
	}
	args := make([]any, 0, len(movieIDs)+1)
	args = append(args, userID)
	for _, id := range movieIDs {
		args = append(args, id)
	}
	q := `SELECT movie_id FROM user_favorites WHERE user_id = ? AND movie_id IN (?` +
		strings.Repeat(",?", len(movieIDs)-1) + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}
