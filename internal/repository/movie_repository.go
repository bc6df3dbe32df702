package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// MovieRepo manages the movies table. Every read computes Rating and
// CommentsCount from the reviews table.
type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// DB exposes the underlying handle so services can open transactions that
// span several repositories.
func (r *MovieRepo) DB() *sql.DB { return r.db }

const movieSelect = `SELECT m.id, m.title,
	COALESCE(m.description, '') AS description, COALESCE(m.genre, '') AS genre,
	COALESCE(m.release_date, '') AS release_date, COALESCE(m.poster_url, '') AS poster_url,
	m.is_current, m.created_at,
	(SELECT COALESCE(AVG(rv.rate), 0.0) FROM reviews rv WHERE rv.movie_id = m.id) AS rating,
	(SELECT COUNT(*) FROM reviews rv WHERE rv.movie_id = m.id) AS comments_count
	FROM movies m`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(s rowScanner, m *model.Movie) error {
	return s.Scan(&m.ID, &m.Title, &m.Description, &m.Genre, &m.ReleaseDate,
		&m.PosterURL, &m.IsCurrent, &m.CreatedAt, &m.Rating, &m.CommentsCount)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Create inserts a movie and fills in its ID.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO movies (title, description, genre, release_date, poster_url, is_current)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.Title, nullable(m.Description), nullable(m.Genre), nullable(m.ReleaseDate),
		nullable(m.PosterURL), m.IsCurrent)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// Update overwrites the editable columns. ErrMovieNotFound is returned when
// the id does not exist.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	if _, err := r.GetByID(ctx, m.ID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE movies SET title = ?, description = ?, genre = ?, release_date = ?,
		 poster_url = ?, is_current = ? WHERE id = ?`,
		m.Title, nullable(m.Description), nullable(m.Genre), nullable(m.ReleaseDate),
		nullable(m.PosterURL), m.IsCurrent, m.ID)
	return err
}

// Delete removes a movie; screenings, bookings, seats, reviews and
// favorites go with it through ON DELETE CASCADE.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}

// GetByID returns the movie or ErrMovieNotFound.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	var m model.Movie
	if err := scanMovie(r.db.QueryRowContext(ctx, movieSelect+` WHERE m.id = ?`, id), &m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ExistsTx checks for a movie inside the caller's transaction.
func (r *MovieRepo) ExistsTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
	var n int64
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies WHERE id = ?`, id).Scan(&n)
	return n > 0, err
}

// MovieOrder selects the sort order of a movie listing.
type MovieOrder int

const (
	OrderNewest MovieOrder = iota
	OrderRating
	OrderComments
)

func (o MovieOrder) clause() string {
	switch o {
	case OrderRating:
		return ` ORDER BY rating DESC, m.id ASC`
	case OrderComments:
		return ` ORDER BY comments_count DESC, m.id ASC`
	}
	return ` ORDER BY m.id DESC`
}

// ListCurrent returns current movies in the given order.
func (r *MovieRepo) ListCurrent(ctx context.Context, order MovieOrder, limit, offset int) ([]model.Movie, error) {
	return r.list(ctx, movieSelect+` WHERE m.is_current = 1`+order.clause()+` LIMIT ? OFFSET ?`, limit, offset)
}

// List returns all movies in the given order.
func (r *MovieRepo) List(ctx context.Context, order MovieOrder, limit, offset int) ([]model.Movie, error) {
	return r.list(ctx, movieSelect+order.clause()+` LIMIT ? OFFSET ?`, limit, offset)
}

// CountCurrent counts movies flagged as current.
func (r *MovieRepo) CountCurrent(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies WHERE is_current = 1`).Scan(&n)
	return n, err
}

// Count counts all movies.
func (r *MovieRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&n)
	return n, err
}

// CurrentByCinema maps each cinema ID to the distinct current movies that
// have at least one screening there, ordered by title.
func (r *MovieRepo) CurrentByCinema(ctx context.Context) (map[uint64][]model.Movie, error) {
	q := `SELECT sc.cinema_id, ` + strings.TrimPrefix(movieSelect, "SELECT ") + `
		JOIN (SELECT DISTINCT cinema_id, movie_id FROM screenings) sc ON sc.movie_id = m.id
		WHERE m.is_current = 1
		ORDER BY sc.cinema_id, m.title, m.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64][]model.Movie)
	for rows.Next() {
		var cinemaID uint64
		var m model.Movie
		if err := rows.Scan(&cinemaID, &m.ID, &m.Title, &m.Description, &m.Genre, &m.ReleaseDate,
			&m.PosterURL, &m.IsCurrent, &m.CreatedAt, &m.Rating, &m.CommentsCount); err != nil {
			return nil, err
		}
		out[cinemaID] = append(out[cinemaID], m)
	}
	return out, rows.Err()
}

func (r *MovieRepo) list(ctx context.Context, q string, args ...any) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
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
