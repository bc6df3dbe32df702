package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// BookingRepo stores seat bookings. The UNIQUE (screening_id, seat_number)
// constraint makes CreateTx the authoritative conflict check; ExistsTx is
// only a fast path.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle for transaction control.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// ExistsTx reports whether the seat is already booked for the screening.
func (r *BookingRepo) ExistsTx(ctx context.Context, tx *sql.Tx, screeningID uint64, seat string) (bool, error) {
	var n int64
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE screening_id = ? AND seat_number = ?`,
		screeningID, seat).Scan(&n)
	return n > 0, err
}

// CreateTx inserts a booking within the caller's transaction and populates
// ID and CreatedAt. A seat that is already taken yields ErrDuplicate.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (user_id, screening_id, seat_number, created_at) VALUES (?, ?, ?, ?)`,
		b.UserID, b.ScreeningID, b.SeatNumber, now)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.CreatedAt = now
	return nil
}

// ListByUser returns a user's bookings joined with screening details,
// newest screening first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	const q = `SELECT b.id, b.user_id, b.screening_id, b.seat_number, b.created_at,
	           s.id, s.movie_id, s.cinema_id, s.hall_id, s.starts_at, s.price_cents,
	           m.title, c.name, h.name
	           FROM bookings b
	           JOIN screenings s ON s.id = b.screening_id
	           JOIN movies m     ON m.id = s.movie_id
	           JOIN cinemas c    ON c.id = s.cinema_id
	           JOIN halls h      ON h.id = s.hall_id
	           WHERE b.user_id = ?
	           ORDER BY s.starts_at DESC, b.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.BookingDetail, 0)
	for rows.Next() {
		var d model.BookingDetail
		sc := &d.Screening
		if err := rows.Scan(&d.ID, &d.UserID, &d.ScreeningID, &d.SeatNumber, &d.CreatedAt,
			&sc.ID, &sc.MovieID, &sc.CinemaID, &sc.HallID, &sc.StartsAt, &sc.PriceCents,
			&sc.MovieTitle, &sc.CinemaName, &sc.HallName); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListForScreening returns the bookings of a screening ordered by seat.
func (r *BookingRepo) ListForScreening(ctx context.Context, screeningID uint64) ([]model.Booking, error) {
	const q = `SELECT id, user_id, screening_id, seat_number, created_at
	           FROM bookings WHERE screening_id = ?
	           ORDER BY LENGTH(seat_number), seat_number`
	rows, err := r.db.QueryContext(ctx, q, screeningID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.ScreeningID, &b.SeatNumber, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountForScreening counts the bookings made for a screening.
func (r *BookingRepo) CountForScreening(ctx context.Context, screeningID uint64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE screening_id = ?`, screeningID).Scan(&n)
	return n, err
}
