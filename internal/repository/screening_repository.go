package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// ScreeningRepo manages persistence for screenings. Reads join the movie,
// cinema and hall so callers get display names in one query.
type ScreeningRepo struct {
	db *sql.DB
}

// NewScreeningRepo constructs a ScreeningRepo with the given DB handle.
func NewScreeningRepo(db *sql.DB) *ScreeningRepo {
	return &ScreeningRepo{db: db}
}

// DB exposes the underlying sql.DB so services can begin transactions
// spanning several repositories.
func (r *ScreeningRepo) DB() *sql.DB {
	return r.db
}

const screeningSelect = `SELECT s.id, s.movie_id, s.cinema_id, s.hall_id, s.starts_at, s.price_cents,
	m.title, c.name, h.name
	FROM screenings s
	JOIN movies m  ON m.id = s.movie_id
	JOIN cinemas c ON c.id = s.cinema_id
	JOIN halls h   ON h.id = s.hall_id`

func scanScreening(s rowScanner, sc *model.Screening) error {
	return s.Scan(&sc.ID, &sc.MovieID, &sc.CinemaID, &sc.HallID, &sc.StartsAt, &sc.PriceCents,
		&sc.MovieTitle, &sc.CinemaName, &sc.HallName)
}

// Create inserts a screening. StartsAt is stored in UTC.
func (r *ScreeningRepo) Create(ctx context.Context, sc *model.Screening) error {
	const q = `INSERT INTO screenings (movie_id, cinema_id, hall_id, starts_at, price_cents)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, sc.MovieID, sc.CinemaID, sc.HallID, sc.StartsAt.UTC(), sc.PriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	sc.ID = uint64(id)
	return nil
}

// GetByID returns the screening with its movie, cinema and hall names, or
// ErrScreeningNotFound.
func (r *ScreeningRepo) GetByID(ctx context.Context, id uint64) (*model.Screening, error) {
	return r.getOne(ctx, r.db.QueryRowContext(ctx, screeningSelect+` WHERE s.id = ?`, id))
}

// GetByIDTx is GetByID inside the caller's transaction.
func (r *ScreeningRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Screening, error) {
	return r.getOne(ctx, tx.QueryRowContext(ctx, screeningSelect+` WHERE s.id = ?`, id))
}

func (r *ScreeningRepo) getOne(_ context.Context, row *sql.Row) (*model.Screening, error) {
	var sc model.Screening
	if err := scanScreening(row, &sc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScreeningNotFound
		}
		return nil, err
	}
	return &sc, nil
}

// ListByMovie returns the screenings of a movie ordered by start time.
func (r *ScreeningRepo) ListByMovie(ctx context.Context, movieID uint64) ([]model.Screening, error) {
	return r.list(ctx, screeningSelect+` WHERE s.movie_id = ? ORDER BY s.starts_at, s.id`, movieID)
}

// ListByCinema returns the screenings hosted by a cinema ordered by start
// time.
func (r *ScreeningRepo) ListByCinema(ctx context.Context, cinemaID uint64) ([]model.Screening, error) {
	return r.list(ctx, screeningSelect+` WHERE s.cinema_id = ? ORDER BY s.starts_at, s.id`, cinemaID)
}

func (r *ScreeningRepo) list(ctx context.Context, q string, args ...any) ([]model.Screening, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Screening, 0)
	for rows.Next() {
		var sc model.Screening
		if err := scanScreening(rows, &sc); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
