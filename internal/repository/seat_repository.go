package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// SeatRepo works with the seat labels offered for a screening. Whether a
// seat is taken is never stored here; it is read from bookings.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// CreateBulk inserts the given labels for a screening in a single
// statement. Labels are stored upper-cased.
func (r *SeatRepo) CreateBulk(ctx context.Context, screeningID uint64, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO seats (screening_id, seat_number) VALUES `)
	args := make([]any, 0, len(labels)*2)
	for i, l := range labels {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?)")
		args = append(args, screeningID, strings.ToUpper(strings.TrimSpace(l)))
	}
	_, err := r.db.ExecContext(ctx, b.String(), args...)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// ListForScreening returns the seats of a screening in label order with
// IsAvailable derived from the bookings table.
func (r *SeatRepo) ListForScreening(ctx context.Context, screeningID uint64) ([]model.Seat, error) {
	const q = `SELECT s.id, s.screening_id, s.seat_number,
	           NOT EXISTS (SELECT 1 FROM bookings b
	                       WHERE b.screening_id = s.screening_id AND b.seat_number = s.seat_number) AS available
	           FROM seats s
	           WHERE s.screening_id = ?
	           ORDER BY LENGTH(s.seat_number), s.seat_number`
	rows, err := r.db.QueryContext(ctx, q, screeningID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Seat, 0)
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.ScreeningID, &s.SeatNumber, &s.IsAvailable); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountForScreeningTx counts the seat rows defined for a screening. Zero
// means the screening accepts any label.
func (r *SeatRepo) CountForScreeningTx(ctx context.Context, tx *sql.Tx, screeningID uint64) (int64, error) {
	var n int64
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM seats WHERE screening_id = ?`, screeningID).Scan(&n)
	return n, err
}

// ExistsTx reports whether the label is one of the screening's seats.
func (r *SeatRepo) ExistsTx(ctx context.Context, tx *sql.Tx, screeningID uint64, label string) (bool, error) {
	var n int64
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seats WHERE screening_id = ? AND seat_number = ?`,
		screeningID, label).Scan(&n)
	return n > 0, err
}
